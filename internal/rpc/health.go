package rpc

import (
	"context"
	"time"

	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/wnt/crowdmint/internal/logger"
	"github.com/wnt/crowdmint/internal/metrics"
)

// Monitor periodically probes every pool endpoint and updates its health state
type Monitor struct {
	pool     *Pool
	interval time.Duration
	logger   zerolog.Logger
}

// NewMonitor creates a health monitor for the given pool
func NewMonitor(pool *Pool, interval time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		pool:     pool,
		interval: interval,
		logger:   logger.With().Str("component", "rpc_health").Logger(),
	}
}

// Start runs the probe loop until the context is cancelled
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info().Dur("interval", m.interval).Msg("Starting RPC health monitor")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Probe once up front so a dead endpoint is benched before first use
	m.probeAll(ctx)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("RPC health monitor received shutdown signal")
			return ctx.Err()
		case <-ticker.C:
			m.probeAll(ctx)
		}
	}
}

func (m *Monitor) probeAll(ctx context.Context) {
	for _, endpoint := range m.pool.endpoints {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := endpoint.client.GetBlockHeight(probeCtx, solrpc.CommitmentFinalized)
		cancel()

		if err != nil {
			metrics.RecordRPCRequest("failed")
			endpointLogger := logger.WithRPCEndpoint(m.logger, endpoint.URL)
			endpointLogger.Warn().Err(err).Msg("Health probe failed")
			m.pool.MarkUnhealthy(endpoint.URL)
			continue
		}

		metrics.RecordRPCRequest("success")
		m.pool.MarkHealthy(endpoint.URL)
	}
}
