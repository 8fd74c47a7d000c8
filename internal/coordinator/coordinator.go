// Package coordinator sequences a donation: validate the input, drive the
// wallet gateway through signing and confirmation, and only then record
// the donation in the ledger. No failure path mutates the ledger.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wnt/crowdmint/internal/ledger"
	"github.com/wnt/crowdmint/internal/logger"
	"github.com/wnt/crowdmint/internal/metrics"
	"github.com/wnt/crowdmint/internal/models"
	"github.com/wnt/crowdmint/internal/wallet"
)

// Coordinator owns the wallet session and orchestrates donation attempts
type Coordinator struct {
	gateway     wallet.Gateway
	ledger      *ledger.Ledger
	destination string
	logger      zerolog.Logger

	mu       sync.RWMutex
	session  models.WalletSession
	attempts map[string]*Attempt
	order    []string
}

// New creates a coordinator that transfers donations to the given
// destination address
func New(gateway wallet.Gateway, l *ledger.Ledger, destination string, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		gateway:     gateway,
		ledger:      l,
		destination: destination,
		logger:      log.With().Str("component", "coordinator").Logger(),
		attempts:    make(map[string]*Attempt),
	}
}

// Connect establishes the wallet session. The session is only refreshed by
// another explicit Connect; an externally changed account is not detected
// until then.
func (c *Coordinator) Connect(ctx context.Context) (string, error) {
	address, err := c.gateway.Connect(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Wallet connect failed")
		return "", err
	}

	c.mu.Lock()
	c.session = models.WalletSession{
		Address:     address,
		ConnectedAt: time.Now().UTC(),
	}
	c.mu.Unlock()

	c.logger.Info().Str("wallet", address).Msg("Wallet session established")
	return address, nil
}

// Session returns a copy of the current wallet session
func (c *Coordinator) Session() models.WalletSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Donate runs one donation attempt: cheap validation first, then the
// external transfer, then the ledger append. The donor recorded is the
// session address at confirmation time.
func (c *Coordinator) Donate(ctx context.Context, campaignID, amount string) (models.Donation, error) {
	attempt := c.newAttempt(campaignID, amount)
	log := logger.WithAttempt(logger.WithCampaign(c.logger, campaignID), attempt.ID)

	if !c.Session().Connected() {
		return models.Donation{}, c.reject(attempt, log, wallet.ErrNotConnected)
	}

	parsed, err := wallet.ParseAmount(amount)
	if err != nil {
		return models.Donation{}, c.reject(attempt, log, err)
	}

	// A campaign miss after an irrevocable transfer would strand the funds,
	// so the id is checked before any wallet call
	if _, err := c.ledger.Campaign(campaignID); err != nil {
		return models.Donation{}, c.reject(attempt, log, err)
	}

	c.setState(attempt, StateAwaitingSignature)
	pending, err := c.gateway.SendTransfer(ctx, c.destination, parsed)
	if err != nil {
		return models.Donation{}, c.reject(attempt, log, err)
	}
	log = log.With().Str("signature", pending.Signature).Logger()

	c.setState(attempt, StateAwaitingConfirmation)
	receipt, err := c.gateway.AwaitConfirmation(ctx, pending)
	if err != nil {
		return models.Donation{}, c.fail(attempt, log, err)
	}

	// Attribute the donation to the session identity as of confirmation,
	// not as of the request start
	from := c.Session().Address

	donation, err := c.ledger.RecordDonation(campaignID, parsed, from, receipt.Signature)
	if err != nil {
		return models.Donation{}, c.fail(attempt, log, fmt.Errorf("record confirmed transfer: %w", err))
	}

	c.setState(attempt, StateRecorded)
	metrics.RecordDonationAttempt(string(StateRecorded))
	log.Info().
		Str("from", from).
		Str("amount", parsed.String()).
		Uint64("slot", receipt.Slot).
		Msg("Donation recorded")

	return donation, nil
}

// Attempts returns a snapshot of all attempts in start order so the
// presentation layer can surface per-attempt progress and time out
// long confirmations
func (c *Coordinator) Attempts() []Attempt {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Attempt, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.attempts[id])
	}
	return out
}

// Attempt returns a copy of a single attempt by ID
func (c *Coordinator) Attempt(id string) (Attempt, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.attempts[id]
	if !ok {
		return Attempt{}, false
	}
	return *a, true
}

func (c *Coordinator) newAttempt(campaignID, amount string) *Attempt {
	now := time.Now().UTC()
	attempt := &Attempt{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		Amount:     amount,
		State:      StateValidating,
		StartedAt:  now,
		UpdatedAt:  now,
	}

	c.mu.Lock()
	c.attempts[attempt.ID] = attempt
	c.order = append(c.order, attempt.ID)
	c.mu.Unlock()

	return attempt
}

func (c *Coordinator) setState(attempt *Attempt, state AttemptState) {
	c.mu.Lock()
	attempt.State = state
	attempt.UpdatedAt = time.Now().UTC()
	c.mu.Unlock()
}

func (c *Coordinator) setTerminal(attempt *Attempt, state AttemptState, err error) {
	c.mu.Lock()
	attempt.State = state
	attempt.Err = err
	attempt.UpdatedAt = time.Now().UTC()
	c.mu.Unlock()

	metrics.RecordDonationAttempt(string(state))
}

// reject terminates an attempt that never reached confirmation
func (c *Coordinator) reject(attempt *Attempt, log zerolog.Logger, err error) error {
	c.setTerminal(attempt, StateRejected, err)
	log.Warn().Err(err).Msg("Donation attempt rejected")
	return err
}

// fail terminates an attempt that was submitted but could not be confirmed
// or recorded
func (c *Coordinator) fail(attempt *Attempt, log zerolog.Logger, err error) error {
	c.setTerminal(attempt, StateFailed, err)
	log.Error().Err(err).Msg("Donation attempt failed")
	return err
}
