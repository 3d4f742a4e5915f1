package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/api/transport"
	"github.com/fastygo/boardwatch/pkg/httpcontext"
	calendarUC "github.com/fastygo/boardwatch/usecase/calendar"
)

type CalendarHandler struct {
	baseHandler
	uc *calendarUC.UseCase
}

func NewCalendarHandler(uc *calendarUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Calendar events in a window
// @Tags calendar
// @Router /api/v1/calendar [get]
func (h *CalendarHandler) Events(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	window, err := transport.ParseCalendarWindow(
		string(ctx.QueryArgs().Peek("start")),
		string(ctx.QueryArgs().Peek("end")),
	)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	events, err := h.uc.Window(stdCtx, window.Start, window.End)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, events, map[string]interface{}{
		"calendar":  calendarUC.Name,
		"unique_id": calendarUC.UniqueID,
		"count":     len(events),
	})
}

// @Summary Next calendar event
// @Tags calendar
// @Router /api/v1/calendar/next [get]
func (h *CalendarHandler) Next(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	event, err := h.uc.Next(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, event, nil)
}
