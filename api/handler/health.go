package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/api/transport"
	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/internal/infrastructure/monitor"
	"github.com/fastygo/boardwatch/pkg/httpcontext"
)

// StatusReporter is satisfied by *monitor.Monitor.
type StatusReporter interface {
	GetStatus() monitor.Status
}

// DeliveryStats is satisfied by the notifier.
type DeliveryStats interface {
	Pending() int
	Dropped() uint64
	Suppressed() uint64
	Delivered() uint64
}

type HealthHandler struct {
	baseHandler
	monitor  StatusReporter
	delivery DeliveryStats
}

func NewHealthHandler(mon StatusReporter, delivery DeliveryStats, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		delivery:    delivery,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"refresh":   status.Refresh,
		"services": map[string]interface{}{
			"redis": status.Redis,
			"kafka": status.Kafka,
			"outbox": map[string]interface{}{
				"state": status.Outbox,
				"size":  status.OutboxSize,
			},
		},
	}
	if h.delivery != nil {
		payload["notifications"] = map[string]interface{}{
			"pending":    h.delivery.Pending(),
			"dropped":    h.delivery.Dropped(),
			"suppressed": h.delivery.Suppressed(),
			"delivered":  h.delivery.Delivered(),
		}
	}

	if status.Refresh.HasSnapshot {
		h.respondSuccess(ctx, http.StatusOK, payload, nil)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable,
		transport.NewError(string(domain.ErrCodeUnavailable), domain.ErrNoSnapshot.Message, payload))
}
