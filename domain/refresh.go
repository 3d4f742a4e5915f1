package domain

import "time"

// RefreshState is the coordinator state.
type RefreshState string

const (
	RefreshIdle       RefreshState = "idle"
	RefreshRefreshing RefreshState = "refreshing"
)

// RefreshOutcome is the result of one refresh trigger.
type RefreshOutcome string

const (
	OutcomeRefreshed RefreshOutcome = "refreshed"
	OutcomeThrottled RefreshOutcome = "throttled"
	OutcomeFailed    RefreshOutcome = "failed"
)

// RefreshStatus describes the coordinator for health reporting.
type RefreshStatus struct {
	State               RefreshState `json:"state"`
	HasSnapshot         bool         `json:"has_snapshot"`
	LastAttempt         time.Time    `json:"last_attempt,omitempty"`
	LastSuccess         time.Time    `json:"last_success,omitempty"`
	LastError           string       `json:"last_error,omitempty"`
	LastErrorMethod     string       `json:"last_error_method,omitempty"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
}
