package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CampaignsCreatedTotal tracks the number of campaigns created
	CampaignsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdmint_campaigns_created_total",
		Help: "The total number of campaigns created",
	})

	// DonationsRecordedTotal tracks confirmed donations recorded into the ledger
	DonationsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdmint_donations_recorded_total",
		Help: "The total number of confirmed donations recorded",
	})

	// DonationAttemptsTotal tracks donation attempts by terminal state
	DonationAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdmint_donation_attempts_total",
			Help: "The total number of donation attempts",
		},
		[]string{"state"}, // recorded, rejected, failed
	)

	// TransferConfirmSeconds tracks time from submission to on-chain confirmation
	TransferConfirmSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crowdmint_transfer_confirm_seconds",
		Help:    "Time taken for a submitted transfer to reach confirmation",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4min
	})

	// RPCRequestsTotal tracks RPC requests by status
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdmint_rpc_requests_total",
			Help: "The total number of RPC requests",
		},
		[]string{"status"},
	)

	// RPCEndpointHealth tracks RPC endpoint health
	RPCEndpointHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crowdmint_rpc_endpoint_health",
			Help: "Health status of RPC endpoints (1 = healthy, 0 = unhealthy)",
		},
		[]string{"endpoint"},
	)

	// ReconcileMismatchesTotal tracks recorded donations the reconciler could not verify on chain
	ReconcileMismatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crowdmint_reconcile_mismatches_total",
		Help: "The total number of recorded donations not verifiable on chain",
	})
)

// RecordCampaignCreated records a campaign creation
func RecordCampaignCreated() {
	CampaignsCreatedTotal.Inc()
}

// RecordDonationAttempt records a donation attempt reaching a terminal state
func RecordDonationAttempt(state string) {
	DonationAttemptsTotal.WithLabelValues(state).Inc()
}

// RecordDonationRecorded records a confirmed donation appended to the ledger
func RecordDonationRecorded() {
	DonationsRecordedTotal.Inc()
}

// RecordTransferConfirm records the time taken for a transfer to confirm
func RecordTransferConfirm(duration float64) {
	TransferConfirmSeconds.Observe(duration)
}

// RecordRPCRequest records an RPC request with the given status
func RecordRPCRequest(status string) {
	RPCRequestsTotal.WithLabelValues(status).Inc()
}

// SetRPCEndpointHealth sets the health status of an RPC endpoint
func SetRPCEndpointHealth(endpoint string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	RPCEndpointHealth.WithLabelValues(endpoint).Set(value)
}

// RecordReconcileMismatch records a recorded donation missing or errored on chain
func RecordReconcileMismatch() {
	ReconcileMismatchesTotal.Inc()
}
