package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item priorities; lower values drain first.
const (
	PriorityOverdue = 1
	PriorityDueSoon = 2
	PriorityDefault = 3
)

// Item is a notification that a remote sink failed to accept.
type Item struct {
	ID        string          `json:"id"`
	Sink      string          `json:"sink"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	LastError string          `json:"last_error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > PriorityDefault {
		i.Priority = PriorityDefault
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
