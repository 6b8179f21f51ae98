package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/interfaces/http/handlers"
	"github.com/quickrollcall/rollcall/internal/interfaces/http/middleware"
)

// ExportRouteConfig holds dependencies for export routes.
type ExportRouteConfig struct {
	ExportHandler *handlers.ExportHandler
	OwnerAuth     *middleware.OwnerAuthMiddleware
}

// SetupExportRoutes configures /api/export. Both routes require the owner secret.
func SetupExportRoutes(api *gin.RouterGroup, cfg *ExportRouteConfig) {
	exports := api.Group("/export/:sessionId")
	exports.Use(cfg.OwnerAuth.RequireOwner())
	{
		exports.GET("/preview", cfg.ExportHandler.Preview)
		exports.GET("/pdf", cfg.ExportHandler.DownloadPDF)
	}
}
