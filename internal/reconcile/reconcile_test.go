package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnt/crowdmint/internal/ledger"
	"github.com/wnt/crowdmint/internal/rpc"
)

const donorAddress = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func testSignature(fill byte) string {
	var sig solana.Signature
	for i := range sig {
		sig[i] = fill
	}
	return sig.String()
}

func statusServer(t *testing.T, value string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "getSignatureStatuses", req.Method)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":{"context":{"slot":82},"value":` + value + `}}`))
	}))
}

func newTestLedger(t *testing.T, signatures ...string) *ledger.Ledger {
	t.Helper()

	l := ledger.New(zerolog.Nop())
	campaign, err := l.CreateCampaign("Clean Water", "Wells", decimal.NewFromInt(5), "")
	require.NoError(t, err)

	for _, sig := range signatures {
		_, err := l.RecordDonation(campaign.ID, decimal.RequireFromString("0.5"), donorAddress, sig)
		require.NoError(t, err)
	}
	return l
}

func TestSweepEmptyLedger(t *testing.T) {
	l := newTestLedger(t)
	pool := rpc.NewPool([]string{"http://unused"}, zerolog.Nop())

	r := New(pool, l, time.Minute, zerolog.Nop())
	mismatches, err := r.sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, mismatches)
}

func TestSweepAllVerified(t *testing.T) {
	l := newTestLedger(t, testSignature(1), testSignature(2))

	server := statusServer(t, `[{"slot":72,"confirmations":null,"err":null,"confirmationStatus":"finalized"},{"slot":73,"confirmations":null,"err":null,"confirmationStatus":"finalized"}]`)
	defer server.Close()

	pool := rpc.NewPool([]string{server.URL}, zerolog.Nop())
	r := New(pool, l, time.Minute, zerolog.Nop())

	mismatches, err := r.sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, mismatches)
}

func TestSweepFlagsMissingAndErrored(t *testing.T) {
	l := newTestLedger(t, testSignature(1), testSignature(2), testSignature(3))

	server := statusServer(t, `[null,{"slot":73,"confirmations":null,"err":{"InstructionError":[0,"Custom"]},"confirmationStatus":"finalized"},{"slot":74,"confirmations":null,"err":null,"confirmationStatus":"finalized"}]`)
	defer server.Close()

	pool := rpc.NewPool([]string{server.URL}, zerolog.Nop())
	r := New(pool, l, time.Minute, zerolog.Nop())

	mismatches, err := r.sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, mismatches)
}

func TestSweepMalformedSignature(t *testing.T) {
	l := newTestLedger(t, "not-base58-!!!")
	pool := rpc.NewPool([]string{"http://unused"}, zerolog.Nop())

	r := New(pool, l, time.Minute, zerolog.Nop())
	_, err := r.sweep(context.Background())
	require.Error(t, err)
}
