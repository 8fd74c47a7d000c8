// Package wallet abstracts the external signing provider: connecting,
// exposing the active signer address, submitting value transfers, and
// awaiting on-chain confirmation.
package wallet

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrProviderUnavailable indicates no signing provider is reachable
	ErrProviderUnavailable = errors.New("wallet provider unavailable")

	// ErrNotConnected indicates connect has not succeeded yet
	ErrNotConnected = errors.New("wallet not connected")

	// ErrUserRejected indicates the user denied account access. Only
	// interactive Gateway implementations can produce it; the keypair-backed
	// Client has no user prompt to decline.
	ErrUserRejected = errors.New("wallet access rejected by user")

	// ErrSigningRejected indicates the signer declined to sign the transfer
	ErrSigningRejected = errors.New("transfer signing rejected")

	// ErrInvalidAmount indicates a non-numeric or non-positive amount
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSubmissionFailed indicates a network or provider error while submitting,
	// or a transfer that executed with an error on chain
	ErrSubmissionFailed = errors.New("transfer submission failed")

	// ErrUnconfirmed indicates confirmation could not be observed within the bound
	ErrUnconfirmed = errors.New("transfer not confirmed")
)

// Pending is the handle returned once a transfer has been signed and submitted
type Pending struct {
	Signature string
	From      string
	To        string
	Lamports  uint64
}

// Receipt proves a transfer reached on-chain confirmation
type Receipt struct {
	Pending
	Slot uint64
}

// Gateway is the provider boundary. SendTransfer and AwaitConfirmation are
// separate suspension points so callers can observe the
// awaiting-signature and awaiting-confirmation phases independently.
type Gateway interface {
	// Connect requests account access and returns the signer address
	Connect(ctx context.Context) (string, error)

	// ActiveAddress returns the currently authorized signer address
	ActiveAddress() (string, error)

	// SendTransfer converts amount to lamports, signs and submits a value
	// transfer, and returns once the provider acknowledges the pending transaction
	SendTransfer(ctx context.Context, to string, amount decimal.Decimal) (Pending, error)

	// AwaitConfirmation blocks until the pending transfer is confirmed on
	// chain, fails on chain, or the bounded confirmation window lapses
	AwaitConfirmation(ctx context.Context, pending Pending) (Receipt, error)
}
