// Package reconcile periodically cross-checks recorded donations against
// chain state. Because the ledger only mutates after confirmation, every
// recorded signature should stay visible and error-free on chain; anything
// else is flagged as a defect, never silently repaired.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/wnt/crowdmint/internal/ledger"
	"github.com/wnt/crowdmint/internal/metrics"
	"github.com/wnt/crowdmint/internal/models"
	"github.com/wnt/crowdmint/internal/rpc"
	"github.com/wnt/crowdmint/internal/utils"
)

// statusBatchSize is the signature-status request limit per RPC call
const statusBatchSize = 256

// Reconciler verifies recorded donations against signature statuses
type Reconciler struct {
	pool     *rpc.Pool
	ledger   *ledger.Ledger
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a reconciler that sweeps at the given interval
func New(pool *rpc.Pool, l *ledger.Ledger, interval time.Duration, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		pool:     pool,
		ledger:   l,
		interval: interval,
		logger:   logger.With().Str("component", "reconciler").Logger(),
	}
}

// Start runs the sweep loop until the context is cancelled
func (r *Reconciler) Start(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Msg("Starting reconciler")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Reconciler received shutdown signal")
			return ctx.Err()
		case <-ticker.C:
			mismatches, err := r.sweep(ctx)
			if err != nil {
				r.logger.Error().Err(err).Msg("Reconcile sweep failed")
				continue
			}
			if mismatches > 0 {
				r.logger.Warn().Int("mismatches", mismatches).Msg("Reconcile sweep found unverifiable donations")
			}
		}
	}
}

// sweep checks every recorded donation signature and returns how many
// could not be verified on chain
func (r *Reconciler) sweep(ctx context.Context) (int, error) {
	var donations []models.Donation
	for _, campaign := range r.ledger.Campaigns() {
		donations = append(donations, campaign.Donations...)
	}

	donations = utils.Filter(donations, func(d models.Donation) bool {
		return d.Signature != ""
	})
	if len(donations) == 0 {
		return 0, nil
	}

	mismatches := 0
	for start := 0; start < len(donations); start += statusBatchSize {
		end := start + statusBatchSize
		if end > len(donations) {
			end = len(donations)
		}

		n, err := r.checkBatch(ctx, donations[start:end])
		if err != nil {
			return mismatches, err
		}
		mismatches += n
	}

	r.logger.Debug().
		Int("donations", len(donations)).
		Int("mismatches", mismatches).
		Msg("Reconcile sweep completed")

	return mismatches, nil
}

func (r *Reconciler) checkBatch(ctx context.Context, donations []models.Donation) (int, error) {
	signatures := make([]solana.Signature, 0, len(donations))
	for _, d := range donations {
		sig, err := solana.SignatureFromBase58(d.Signature)
		if err != nil {
			return 0, fmt.Errorf("recorded donation has malformed signature %q: %w", d.Signature, err)
		}
		signatures = append(signatures, sig)
	}

	client, endpoint, err := r.pool.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("no RPC client for reconcile sweep: %w", err)
	}

	out, err := client.GetSignatureStatuses(ctx, true, signatures...)
	if err != nil {
		metrics.RecordRPCRequest("failed")
		r.pool.MarkUnhealthy(endpoint)
		return 0, fmt.Errorf("fetch signature statuses: %w", err)
	}
	metrics.RecordRPCRequest("success")

	if out == nil || len(out.Value) != len(donations) {
		return 0, fmt.Errorf("signature status count mismatch: asked %d", len(donations))
	}

	mismatches := 0
	for i, status := range out.Value {
		donation := donations[i]
		switch {
		case status == nil:
			mismatches++
			metrics.RecordReconcileMismatch()
			r.logger.Error().
				Str("campaign_id", donation.CampaignID).
				Str("signature", donation.Signature).
				Msg("Recorded donation not found on chain")
		case status.Err != nil:
			mismatches++
			metrics.RecordReconcileMismatch()
			r.logger.Error().
				Str("campaign_id", donation.CampaignID).
				Str("signature", donation.Signature).
				Interface("chain_err", status.Err).
				Msg("Recorded donation errored on chain")
		}
	}

	return mismatches, nil
}
