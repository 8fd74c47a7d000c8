package rpc

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPoolRoundRobin(t *testing.T) {
	pool := NewPool([]string{"http://one", "http://two"}, zerolog.Nop())

	seen := map[string]int{}
	for i := 0; i < 4; i++ {
		_, url, err := pool.Get(context.Background())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		seen[url]++
	}

	if seen["http://one"] != 2 || seen["http://two"] != 2 {
		t.Errorf("Expected even rotation, got %v", seen)
	}
}

func TestPoolSkipsUnhealthyEndpoints(t *testing.T) {
	pool := NewPool([]string{"http://one", "http://two"}, zerolog.Nop())
	pool.MarkUnhealthy("http://one")

	for i := 0; i < 3; i++ {
		_, url, err := pool.Get(context.Background())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if url != "http://two" {
			t.Errorf("Expected http://two, got %s", url)
		}
	}

	if count := pool.HealthyCount(); count != 1 {
		t.Errorf("Expected 1 healthy endpoint, got %d", count)
	}
}

func TestPoolAllUnhealthy(t *testing.T) {
	pool := NewPool([]string{"http://one"}, zerolog.Nop())
	pool.MarkUnhealthy("http://one")

	if _, _, err := pool.Get(context.Background()); err == nil {
		t.Fatal("Expected error when no endpoints are healthy")
	}

	pool.MarkHealthy("http://one")
	if _, _, err := pool.Get(context.Background()); err != nil {
		t.Fatalf("Unexpected error after restoring endpoint: %v", err)
	}
}

func TestPoolCooldownExpiryRestoresEndpoint(t *testing.T) {
	pool := NewPool([]string{"http://one"}, zerolog.Nop())

	pool.MarkUnhealthy("http://one")
	if _, _, err := pool.Get(context.Background()); err == nil {
		t.Fatal("Expected error while endpoint is in cooldown")
	}

	// Once the cooldown lapses the endpoint serves again without any
	// health probe marking it back
	pool.endpoints[0].mutex.Lock()
	pool.endpoints[0].cooldownUntil = time.Now().Add(-time.Second)
	pool.endpoints[0].mutex.Unlock()

	if _, _, err := pool.Get(context.Background()); err != nil {
		t.Fatalf("Unexpected error after cooldown expiry: %v", err)
	}
	if count := pool.HealthyCount(); count != 1 {
		t.Errorf("Expected 1 healthy endpoint after cooldown expiry, got %d", count)
	}
}
