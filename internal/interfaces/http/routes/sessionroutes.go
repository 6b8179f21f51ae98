package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/interfaces/http/handlers"
	"github.com/quickrollcall/rollcall/internal/interfaces/http/middleware"
)

// SessionRouteConfig holds dependencies for organizer routes.
type SessionRouteConfig struct {
	SessionHandler *handlers.SessionHandler
	OwnerAuth      *middleware.OwnerAuthMiddleware
}

// SetupSessionRoutes configures /api/sessions.
func SetupSessionRoutes(api *gin.RouterGroup, cfg *SessionRouteConfig) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", cfg.SessionHandler.CreateSession)

		owned := sessions.Group("/:sessionId")
		owned.Use(cfg.OwnerAuth.RequireOwner())
		{
			owned.GET("", cfg.SessionHandler.GetSession)
			owned.POST("/close", cfg.SessionHandler.CloseSession)
			owned.POST("/token", cfg.SessionHandler.IssueToken)
			owned.GET("/qr", cfg.SessionHandler.GetQRCode)
		}
	}
}
