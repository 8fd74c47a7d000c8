package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign represents a funding goal with its accumulated donations
type Campaign struct {
	ID          string
	Title       string
	Description string
	GoalAmount  decimal.Decimal
	ImageRef    string // data URI or URL, optional
	CreatedAt   time.Time

	// Donations is append-only, in confirmation order
	Donations []Donation
}

// TotalRaised returns the sum of all recorded donation amounts
func (c Campaign) TotalRaised() decimal.Decimal {
	total := decimal.Zero
	for _, d := range c.Donations {
		total = total.Add(d.Amount)
	}
	return total
}
