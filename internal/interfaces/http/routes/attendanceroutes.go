package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/interfaces/http/handlers"
	"github.com/quickrollcall/rollcall/internal/interfaces/http/middleware"
)

// AttendanceRouteConfig holds dependencies for participant routes.
type AttendanceRouteConfig struct {
	AttendanceHandler *handlers.AttendanceHandler
	SubmitRateLimit   *middleware.SessionRateLimiter
	MintRateLimit     *middleware.SessionRateLimiter
}

// SetupAttendanceRoutes configures /api/attendance. These routes are public;
// submission and self-minting are throttled per session and client.
func SetupAttendanceRoutes(api *gin.RouterGroup, cfg *AttendanceRouteConfig) {
	attendance := api.Group("/attendance/:sessionId")
	{
		attendance.POST("", cfg.SubmitRateLimit.Limit(), cfg.AttendanceHandler.SubmitAttendance)
		attendance.GET("/validate", cfg.AttendanceHandler.ValidateToken)
		attendance.POST("/token", cfg.MintRateLimit.Limit(), cfg.AttendanceHandler.MintToken)
	}
}
