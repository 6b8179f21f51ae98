package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/interfaces/http/handlers"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

// SystemRouteConfig holds dependencies for operational routes.
type SystemRouteConfig struct {
	SystemHandler *handlers.SystemHandler
}

// SetupSystemRoutes configures health, Redis status, identity and client logs.
func SetupSystemRoutes(api *gin.RouterGroup, cfg *SystemRouteConfig) {
	api.GET("/health", cfg.SystemHandler.Health)
	api.GET("/redis/status", cfg.SystemHandler.RedisStatus)
	api.GET("/identity", cfg.SystemHandler.Identity)
	api.POST("/logs", cfg.SystemHandler.ClientLog)
}

// NotFound answers unknown routes in the API envelope.
func NotFound(c *gin.Context) {
	utils.ErrorResponse(c, http.StatusNotFound, "Not Found")
}
