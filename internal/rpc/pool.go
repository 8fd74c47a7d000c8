package rpc

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/wnt/crowdmint/internal/metrics"
	"golang.org/x/time/rate"
)

// cooldownPeriod is how long a failed endpoint is benched before Get
// considers it again
const cooldownPeriod = 1 * time.Minute

// Pool manages a pool of Solana RPC endpoints with load balancing and rate limiting
type Pool struct {
	endpoints []*Endpoint
	current   int
	mutex     sync.Mutex
	logger    zerolog.Logger
}

// Endpoint represents a single RPC endpoint with its own rate limiter.
// An endpoint is eligible whenever it is not in cooldown; cooldown expiry
// alone restores it, and a health probe can end the cooldown early.
type Endpoint struct {
	URL           string
	client        *solrpc.Client
	limiter       *rate.Limiter
	cooldownUntil time.Time
	mutex         sync.RWMutex
}

// inCooldown reports whether the endpoint is currently benched
func (e *Endpoint) inCooldown(now time.Time) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return now.Before(e.cooldownUntil)
}

// NewPool creates a new RPC pool with the given endpoints
func NewPool(urls []string, logger zerolog.Logger) *Pool {
	endpoints := make([]*Endpoint, len(urls))

	for i, url := range urls {
		endpoints[i] = &Endpoint{
			URL:    url,
			client: solrpc.New(url),
			// Rate limit to ~2 req/s per endpoint to stay under free tier limits
			limiter: rate.NewLimiter(rate.Limit(2.0), 5),
		}

		// Set initial health status in metrics
		metrics.SetRPCEndpointHealth(url, true)
	}

	return &Pool{
		endpoints: endpoints,
		current:   rand.Intn(len(endpoints)),
		logger:    logger.With().Str("component", "rpc_pool").Logger(),
	}
}

// Get returns the next available RPC client using round-robin
func (p *Pool) Get(ctx context.Context) (*solrpc.Client, string, error) {
	p.mutex.Lock()

	attempts := 0
	now := time.Now()
	var selected *Endpoint

	for attempts < len(p.endpoints) {
		endpoint := p.endpoints[p.current]
		p.current = (p.current + 1) % len(p.endpoints)
		attempts++

		if endpoint.inCooldown(now) {
			p.logger.Debug().Str("endpoint", endpoint.URL).Msg("Skipping endpoint in cooldown")
			continue
		}

		selected = endpoint
		break
	}
	p.mutex.Unlock()

	if selected == nil {
		return nil, "", fmt.Errorf("no healthy RPC endpoints available")
	}

	// Respect the endpoint rate limit before handing it out
	if err := selected.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	return selected.client, selected.URL, nil
}

// MarkUnhealthy benches an endpoint for the cooldown period after a failure
func (p *Pool) MarkUnhealthy(url string) {
	for _, endpoint := range p.endpoints {
		if endpoint.URL != url {
			continue
		}

		endpoint.mutex.Lock()
		endpoint.cooldownUntil = time.Now().Add(cooldownPeriod)
		endpoint.mutex.Unlock()

		metrics.SetRPCEndpointHealth(url, false)
		p.logger.Warn().Str("endpoint", url).Msg("Endpoint marked unhealthy, cooling down")
		return
	}
}

// MarkHealthy ends an endpoint's cooldown early after a successful probe
func (p *Pool) MarkHealthy(url string) {
	for _, endpoint := range p.endpoints {
		if endpoint.URL != url {
			continue
		}

		endpoint.mutex.Lock()
		wasCooling := time.Now().Before(endpoint.cooldownUntil)
		endpoint.cooldownUntil = time.Time{}
		endpoint.mutex.Unlock()

		metrics.SetRPCEndpointHealth(url, true)
		if wasCooling {
			p.logger.Info().Str("endpoint", url).Msg("Endpoint restored to healthy")
		}
		return
	}
}

// HealthyCount returns the number of endpoints currently usable
func (p *Pool) HealthyCount() int {
	count := 0
	now := time.Now()

	for _, endpoint := range p.endpoints {
		if !endpoint.inCooldown(now) {
			count++
		}
	}

	return count
}
