package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/wnt/crowdmint/internal/logger"
	"github.com/wnt/crowdmint/internal/metrics"
	"github.com/wnt/crowdmint/internal/rpc"
)

// Client is the keypair-backed signing provider over a Solana RPC endpoint pool
type Client struct {
	pool           *rpc.Pool
	keypairPath    string
	confirmTimeout time.Duration
	pollInterval   time.Duration
	logger         zerolog.Logger

	mu      sync.RWMutex
	signer  solana.PrivateKey
	address solana.PublicKey
	session bool
}

// NewClient creates a wallet client. No session exists until Connect succeeds.
func NewClient(pool *rpc.Pool, keypairPath string, confirmTimeout, pollInterval time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		pool:           pool,
		keypairPath:    keypairPath,
		confirmTimeout: confirmTimeout,
		pollInterval:   pollInterval,
		logger:         logger.With().Str("component", "wallet").Logger(),
	}
}

// Connect loads the signer keypair and verifies an RPC endpoint is reachable.
// A missing or unreadable keypair, or no reachable endpoint, fails with
// ErrProviderUnavailable.
func (c *Client) Connect(ctx context.Context) (string, error) {
	signer, err := solana.PrivateKeyFromSolanaKeygenFile(c.keypairPath)
	if err != nil {
		return "", fmt.Errorf("%w: load keypair %s: %v", ErrProviderUnavailable, c.keypairPath, err)
	}

	client, endpoint, err := c.pool.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	// Check connection by getting the latest block height
	if _, err := client.GetBlockHeight(ctx, solrpc.CommitmentFinalized); err != nil {
		metrics.RecordRPCRequest("failed")
		c.pool.MarkUnhealthy(endpoint)
		return "", fmt.Errorf("%w: reach %s: %v", ErrProviderUnavailable, endpoint, err)
	}
	metrics.RecordRPCRequest("success")

	c.mu.Lock()
	c.signer = signer
	c.address = signer.PublicKey()
	c.session = true
	c.mu.Unlock()

	address := signer.PublicKey().String()
	walletLogger := logger.WithWallet(c.logger, address)
	walletLogger.Info().Str("rpc_endpoint", endpoint).Msg("Wallet connected")
	return address, nil
}

// ActiveAddress returns the address of the currently authorized signer
func (c *Client) ActiveAddress() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.session {
		return "", ErrNotConnected
	}
	return c.address.String(), nil
}

// SendTransfer signs and submits a system transfer of amount SOL to the
// destination address and returns the pending transaction handle
func (c *Client) SendTransfer(ctx context.Context, to string, amount decimal.Decimal) (Pending, error) {
	c.mu.RLock()
	signer := c.signer
	from := c.address
	connected := c.session
	c.mu.RUnlock()

	if !connected {
		return Pending{}, ErrNotConnected
	}

	lamports, err := ToLamports(amount)
	if err != nil {
		return Pending{}, err
	}

	toKey, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return Pending{}, fmt.Errorf("%w: destination %q: %v", ErrSubmissionFailed, to, err)
	}

	client, endpoint, err := c.pool.Get(ctx)
	if err != nil {
		return Pending{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	recent, err := client.GetLatestBlockhash(ctx, solrpc.CommitmentFinalized)
	if err != nil {
		metrics.RecordRPCRequest("failed")
		c.pool.MarkUnhealthy(endpoint)
		return Pending{}, fmt.Errorf("%w: fetch blockhash: %v", ErrSubmissionFailed, err)
	}
	metrics.RecordRPCRequest("success")

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, from, toKey).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return Pending{}, fmt.Errorf("%w: build transaction: %v", ErrSubmissionFailed, err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from) {
			return &signer
		}
		return nil
	}); err != nil {
		return Pending{}, fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}

	sig, err := client.SendTransaction(ctx, tx)
	if err != nil {
		metrics.RecordRPCRequest("failed")
		return Pending{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	metrics.RecordRPCRequest("success")

	c.logger.Info().
		Str("signature", sig.String()).
		Str("to", to).
		Uint64("lamports", lamports).
		Msg("Transfer submitted")

	return Pending{
		Signature: sig.String(),
		From:      from.String(),
		To:        to,
		Lamports:  lamports,
	}, nil
}

// AwaitConfirmation polls the signature status until the transfer is
// confirmed, fails on chain, or the confirmation window lapses
func (c *Client) AwaitConfirmation(ctx context.Context, pending Pending) (Receipt, error) {
	sig, err := solana.SignatureFromBase58(pending.Signature)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: signature %q: %v", ErrUnconfirmed, pending.Signature, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	started := time.Now()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, done, err := c.checkStatus(ctx, sig, pending)
		if err != nil {
			return Receipt{}, err
		}
		if done {
			metrics.RecordTransferConfirm(time.Since(started).Seconds())
			c.logger.Info().
				Str("signature", pending.Signature).
				Uint64("slot", receipt.Slot).
				Dur("waited", time.Since(started)).
				Msg("Transfer confirmed")
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return Receipt{}, fmt.Errorf("%w: %s after %s: %v", ErrUnconfirmed, pending.Signature, time.Since(started), ctx.Err())
		case <-ticker.C:
		}
	}
}

// checkStatus performs one signature-status poll. done is true once the
// transfer reached confirmed or finalized commitment.
func (c *Client) checkStatus(ctx context.Context, sig solana.Signature, pending Pending) (Receipt, bool, error) {
	client, endpoint, err := c.pool.Get(ctx)
	if err != nil {
		return Receipt{}, false, fmt.Errorf("%w: %v", ErrUnconfirmed, err)
	}

	out, err := client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		// Transient RPC errors just mean we try the next poll on another endpoint
		metrics.RecordRPCRequest("failed")
		c.pool.MarkUnhealthy(endpoint)
		endpointLogger := logger.WithRPCEndpoint(c.logger, endpoint)
		endpointLogger.Warn().Err(err).Msg("Signature status poll failed")
		return Receipt{}, false, nil
	}
	metrics.RecordRPCRequest("success")

	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return Receipt{}, false, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		return Receipt{}, false, fmt.Errorf("%w: transaction %s failed on chain: %v", ErrSubmissionFailed, pending.Signature, status.Err)
	}

	switch status.ConfirmationStatus {
	case solrpc.ConfirmationStatusConfirmed, solrpc.ConfirmationStatusFinalized:
		return Receipt{Pending: pending, Slot: status.Slot}, true, nil
	default:
		return Receipt{}, false, nil
	}
}
