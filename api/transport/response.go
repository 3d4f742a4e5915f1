package transport

import (
	"encoding/json"
	"time"

	"github.com/fastygo/boardwatch/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// RefreshResult is the payload of POST /api/v1/refresh.
type RefreshResult struct {
	Outcome domain.RefreshOutcome `json:"outcome"`
	Status  domain.RefreshStatus  `json:"status"`
}

// SnapshotMeta describes the snapshot a read was served from.
type SnapshotMeta struct {
	FetchedAt string `json:"fetched_at,omitempty"`
}

// MetaFor builds SnapshotMeta; a nil snapshot yields empty metadata.
func MetaFor(snap *domain.Snapshot) SnapshotMeta {
	if snap == nil {
		return SnapshotMeta{}
	}
	return SnapshotMeta{FetchedAt: snap.FetchedAt.UTC().Format(time.RFC3339)}
}
