package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/boardwatch/api/handler"
)

type Handlers struct {
	Health   *apiHandler.HealthHandler
	Sensor   *apiHandler.SensorHandler
	Calendar *apiHandler.CalendarHandler
	Refresh  *apiHandler.RefreshHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New registers the routes. authMiddleware guards everything under /api/v1.
func New(handlers Handlers, authMiddleware Middleware) *router.Router {
	if authMiddleware == nil {
		authMiddleware = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")
	api.GET("/sensors", authMiddleware(handlers.Sensor.List))
	api.GET("/sensors/{id}", authMiddleware(handlers.Sensor.Get))
	api.GET("/projects/breakdown", authMiddleware(handlers.Sensor.Breakdown))

	api.GET("/calendar", authMiddleware(handlers.Calendar.Events))
	api.GET("/calendar/next", authMiddleware(handlers.Calendar.Next))

	api.POST("/refresh", authMiddleware(handlers.Refresh.Trigger))

	return r
}
