package models

import "time"

// WalletSession represents the externally authorized signer identity.
// The zero value means not connected; a session is only refreshed by an
// explicit connect, never automatically.
type WalletSession struct {
	Address     string
	ConnectedAt time.Time
}

// Connected reports whether a signer is currently authorized
func (s WalletSession) Connected() bool {
	return s.Address != ""
}
