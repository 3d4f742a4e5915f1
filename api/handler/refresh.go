package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/api/transport"
	"github.com/fastygo/boardwatch/domain"
	"github.com/fastygo/boardwatch/pkg/httpcontext"
	appLogger "github.com/fastygo/boardwatch/pkg/logger"
)

// Refresher is satisfied by the update coordinator.
type Refresher interface {
	Refresh(ctx context.Context) (domain.RefreshOutcome, error)
	Status() domain.RefreshStatus
}

type RefreshHandler struct {
	baseHandler
	refresher Refresher
	timeout   time.Duration
}

// NewRefreshHandler builds the manual trigger. The cycle runs under its own
// timeout since callers that overlap it share its context.
func NewRefreshHandler(refresher Refresher, timeout time.Duration, adapter *httpcontext.Adapter, logger *zap.Logger) *RefreshHandler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &RefreshHandler{
		baseHandler: newBaseHandler(adapter, logger),
		refresher:   refresher,
		timeout:     timeout,
	}
}

// @Summary Trigger a refresh
// @Tags refresh
// @Router /api/v1/refresh [post]
func (h *RefreshHandler) Trigger(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	cycleCtx, cycleCancel := context.WithTimeout(context.WithoutCancel(stdCtx), h.timeout)
	defer cycleCancel()

	outcome, err := h.refresher.Refresh(cycleCtx)
	result := transport.RefreshResult{Outcome: outcome, Status: h.refresher.Status()}

	if outcome == domain.OutcomeFailed || err != nil {
		appLogger.WithRequestID(stdCtx, h.logger).Warn("manual refresh failed", zap.Error(err))
		msg := domain.ErrRefreshFailed.Message
		if err != nil {
			msg = err.Error()
		}
		h.respondJSON(ctx, http.StatusBadGateway, transport.NewError(string(domain.ErrCodeUnavailable), msg, result))
		return
	}
	h.respondSuccess(ctx, http.StatusAccepted, result, nil)
}
