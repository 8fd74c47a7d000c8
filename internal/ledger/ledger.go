package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/wnt/crowdmint/internal/metrics"
	"github.com/wnt/crowdmint/internal/models"
)

var (
	// ErrInvalidInput indicates rejected campaign or donation fields
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates an unknown campaign ID
	ErrNotFound = errors.New("campaign not found")

	// ErrDuplicateTransfer indicates a transfer signature that was already recorded
	ErrDuplicateTransfer = errors.New("transfer already recorded")
)

// Ledger is the in-memory store of campaigns and their donations.
// All mutation goes through CreateCampaign and RecordDonation; donations
// are append-only and only recorded for externally confirmed transfers.
type Ledger struct {
	mu         sync.RWMutex
	campaigns  []*models.Campaign
	byID       map[string]*models.Campaign
	signatures map[string]bool
	logger     zerolog.Logger
}

// New creates an empty campaign ledger
func New(logger zerolog.Logger) *Ledger {
	return &Ledger{
		byID:       make(map[string]*models.Campaign),
		signatures: make(map[string]bool),
		logger:     logger.With().Str("component", "ledger").Logger(),
	}
}

// CreateCampaign validates the fields and appends a new campaign with no donations
func (l *Ledger) CreateCampaign(title, description string, goalAmount decimal.Decimal, imageRef string) (models.Campaign, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" {
		return models.Campaign{}, fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	}
	if description == "" {
		return models.Campaign{}, fmt.Errorf("%w: description must not be empty", ErrInvalidInput)
	}
	if !goalAmount.IsPositive() {
		return models.Campaign{}, fmt.Errorf("%w: goal amount must be positive, got %s", ErrInvalidInput, goalAmount)
	}

	campaign := &models.Campaign{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		GoalAmount:  goalAmount,
		ImageRef:    imageRef,
		CreatedAt:   time.Now().UTC(),
	}

	l.mu.Lock()
	l.campaigns = append(l.campaigns, campaign)
	l.byID[campaign.ID] = campaign
	l.mu.Unlock()

	metrics.RecordCampaignCreated()
	l.logger.Info().
		Str("campaign_id", campaign.ID).
		Str("title", campaign.Title).
		Str("goal_amount", goalAmount.String()).
		Msg("Campaign created")

	return cloneCampaign(campaign), nil
}

// Campaigns returns a snapshot of all campaigns in creation order.
// The snapshot is a deep copy; later appends do not alter it.
func (l *Ledger) Campaigns() []models.Campaign {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make([]models.Campaign, 0, len(l.campaigns))
	for _, c := range l.campaigns {
		snapshot = append(snapshot, cloneCampaign(c))
	}
	return snapshot
}

// Campaign returns a copy of a single campaign by ID
func (l *Ledger) Campaign(id string) (models.Campaign, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.byID[id]
	if !ok {
		return models.Campaign{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneCampaign(c), nil
}

// RecordDonation appends a confirmed donation to a campaign. The caller
// must only invoke this after the transfer identified by signature has
// been confirmed on chain; a replayed signature is refused so the same
// confirmed transfer is never counted twice.
func (l *Ledger) RecordDonation(campaignID string, amount decimal.Decimal, from, signature string) (models.Donation, error) {
	if !amount.IsPositive() {
		return models.Donation{}, fmt.Errorf("%w: donation amount must be positive, got %s", ErrInvalidInput, amount)
	}
	if from == "" {
		return models.Donation{}, fmt.Errorf("%w: donor address must not be empty", ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	campaign, ok := l.byID[campaignID]
	if !ok {
		return models.Donation{}, fmt.Errorf("%w: %s", ErrNotFound, campaignID)
	}
	if signature != "" && l.signatures[signature] {
		return models.Donation{}, fmt.Errorf("%w: %s", ErrDuplicateTransfer, signature)
	}

	donation := models.Donation{
		CampaignID:  campaignID,
		Amount:      amount,
		From:        from,
		Signature:   signature,
		ConfirmedAt: time.Now().UTC(),
	}
	campaign.Donations = append(campaign.Donations, donation)
	if signature != "" {
		l.signatures[signature] = true
	}

	metrics.RecordDonationRecorded()
	l.logger.Info().
		Str("campaign_id", campaignID).
		Str("amount", amount.String()).
		Str("from", from).
		Str("signature", signature).
		Msg("Donation recorded")

	return donation, nil
}

// TotalRaised returns the sum of recorded donation amounts for a campaign
func (l *Ledger) TotalRaised(campaignID string) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	campaign, ok := l.byID[campaignID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNotFound, campaignID)
	}
	return campaign.TotalRaised(), nil
}

// cloneCampaign copies a campaign including its donation slice so callers
// never alias ledger-owned state
func cloneCampaign(c *models.Campaign) models.Campaign {
	out := *c
	out.Donations = make([]models.Donation, len(c.Donations))
	copy(out.Donations, c.Donations)
	return out
}
