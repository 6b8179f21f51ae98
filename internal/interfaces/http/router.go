package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quickrollcall/rollcall/internal/interfaces/http/middleware"
	"github.com/quickrollcall/rollcall/internal/interfaces/http/routes"
)

// SetupRoutes installs the global middleware chain and every route.
func (c *Container) SetupRoutes() {
	origins := c.cfg.Server.AllowedOrigins
	if c.cfg.Server.IsProduction() && middleware.IsWildcardOrigin(origins) {
		c.log.Warnw("CORS allows any origin in production, set CORS_ORIGIN to the frontend domain")
	}

	c.engine.Use(middleware.RequestID())
	c.engine.Use(middleware.Logger(c.log.Named("http")))
	c.engine.Use(middleware.Recovery(c.log))
	c.engine.Use(middleware.HTTPMetrics(c.metrics))
	c.engine.Use(middleware.SecurityHeaders())
	c.engine.Use(middleware.CORS(origins))

	c.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})))

	api := c.engine.Group("/api")

	routes.SetupSystemRoutes(api, &routes.SystemRouteConfig{
		SystemHandler: c.hdlrs.systemHandler,
	})

	routes.SetupSessionRoutes(api, &routes.SessionRouteConfig{
		SessionHandler: c.hdlrs.sessionHandler,
		OwnerAuth:      c.ownerAuth,
	})

	routes.SetupAttendanceRoutes(api, &routes.AttendanceRouteConfig{
		AttendanceHandler: c.hdlrs.attendanceHandler,
		SubmitRateLimit:   c.submitRateLimit,
		MintRateLimit:     c.mintRateLimit,
	})

	routes.SetupExportRoutes(api, &routes.ExportRouteConfig{
		ExportHandler: c.hdlrs.exportHandler,
		OwnerAuth:     c.ownerAuth,
	})

	c.engine.NoRoute(routes.NotFound)
}
