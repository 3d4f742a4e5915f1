package monitor

import (
	"time"

	"github.com/fastygo/boardwatch/domain"
)

// ComponentState is the health of one optional dependency.
type ComponentState string

const (
	StateUp       ComponentState = "up"
	StateDown     ComponentState = "down"
	StateDisabled ComponentState = "disabled"
)

type Status struct {
	Redis      ComponentState       `json:"redis"`
	Kafka      ComponentState       `json:"kafka"`
	Outbox     ComponentState       `json:"outbox"`
	OutboxSize int                  `json:"outbox_size"`
	Refresh    domain.RefreshStatus `json:"refresh"`
	LastCheck  time.Time            `json:"last_check"`
}
