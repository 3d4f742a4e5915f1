package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/api/transport"
	"github.com/fastygo/boardwatch/pkg/httpcontext"
	sensorUC "github.com/fastygo/boardwatch/usecase/sensor"
)

type SensorHandler struct {
	baseHandler
	uc     *sensorUC.UseCase
	source SnapshotSource
}

func NewSensorHandler(uc *sensorUC.UseCase, source SnapshotSource, adapter *httpcontext.Adapter, logger *zap.Logger) *SensorHandler {
	return &SensorHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		source:      source,
	}
}

// @Summary List sensors
// @Tags sensors
// @Router /api/v1/sensors [get]
func (h *SensorHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	views, err := h.uc.Views(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, views, transport.MetaFor(h.source.Snapshot()))
}

// @Summary Get sensor
// @Tags sensors
// @Router /api/v1/sensors/{id} [get]
func (h *SensorHandler) Get(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entity, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, sensorUC.Describe(entity), transport.MetaFor(h.source.Snapshot()))
}

// @Summary Per-project task breakdown
// @Tags sensors
// @Router /api/v1/projects/breakdown [get]
func (h *SensorHandler) Breakdown(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rows, err := h.uc.Breakdown(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, rows, transport.MetaFor(h.source.Snapshot()))
}
