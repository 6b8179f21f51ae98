package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowHeaders  = "Content-Type, Content-Length, Accept, Origin, Authorization, X-Owner-Token, X-Client-ID, X-Request-ID"
	corsExposeHeaders = "Content-Length, Content-Disposition, X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset"
)

// CORS handles cross-origin requests. A "*" entry allows any origin; no
// credentials are ever allowed since the owner secret travels in a header.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	wildcard := IsWildcardOrigin(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if allowed := getAllowedOrigin(origin, allowedOrigins, wildcard); allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// IsWildcardOrigin reports whether the origin list allows everyone.
func IsWildcardOrigin(allowedOrigins []string) bool {
	return slices.Contains(allowedOrigins, "*")
}

func getAllowedOrigin(origin string, allowedOrigins []string, wildcard bool) string {
	if wildcard {
		return "*"
	}
	if origin != "" && slices.Contains(allowedOrigins, origin) {
		return origin
	}
	return ""
}

// SecurityHeaders sets the headers a JSON API needs by default.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
