package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation represents a confirmed value transfer attributed to a campaign
type Donation struct {
	CampaignID string
	Amount     decimal.Decimal
	From       string // donor wallet address at confirmation time

	// Signature identifies the confirmed on-chain transfer; the ledger
	// refuses to record the same signature twice
	Signature   string
	ConfirmedAt time.Time
}
