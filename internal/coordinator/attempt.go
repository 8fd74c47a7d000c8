package coordinator

import "time"

// AttemptState is the lifecycle state of a single donation attempt
type AttemptState string

const (
	StateValidating           AttemptState = "validating"
	StateAwaitingSignature    AttemptState = "awaiting_signature"
	StateAwaitingConfirmation AttemptState = "awaiting_confirmation"

	// Terminal states
	StateRecorded AttemptState = "recorded"
	StateRejected AttemptState = "rejected"
	StateFailed   AttemptState = "failed"
)

// Terminal reports whether the state is final for the attempt
func (s AttemptState) Terminal() bool {
	switch s {
	case StateRecorded, StateRejected, StateFailed:
		return true
	}
	return false
}

// Attempt tracks one donation attempt from validation through its terminal
// state. Retried donations are new, independent attempts.
type Attempt struct {
	ID         string
	CampaignID string
	Amount     string
	State      AttemptState
	Err        error
	StartedAt  time.Time
	UpdatedAt  time.Time
}
