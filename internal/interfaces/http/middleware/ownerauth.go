package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/shared/errors"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

const (
	// OwnerTokenHeader is the fallback for clients that cannot set Authorization.
	OwnerTokenHeader = "X-Owner-Token"

	ownerSessionKey = "owner_session_id"
)

type ownerVerifier interface {
	VerifyOwner(ctx context.Context, sessionID, supplied string) (bool, error)
}

// OwnerAuthMiddleware guards organizer routes with the session's owner secret.
type OwnerAuthMiddleware struct {
	verifier ownerVerifier
	logger   logger.Interface
}

func NewOwnerAuthMiddleware(verifier ownerVerifier, logger logger.Interface) *OwnerAuthMiddleware {
	return &OwnerAuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// RequireOwner rejects the request with 403 unless it carries the owner
// secret of the :sessionId in the path.
func (m *OwnerAuthMiddleware) RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.Param("sessionId"))
		if sessionID == "" {
			utils.ErrorResponseWithError(c, errors.NewBadRequestError("Missing sessionId"))
			c.Abort()
			return
		}

		ok, err := m.verifier.VerifyOwner(c.Request.Context(), sessionID, ExtractOwnerToken(c))
		if err != nil {
			m.logger.Errorw("owner verification failed", "session_id", sessionID, "error", err)
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}
		if !ok {
			utils.ErrorResponse(c, http.StatusForbidden, "Forbidden")
			c.Abort()
			return
		}

		c.Set(ownerSessionKey, sessionID)
		c.Next()
	}
}

// ExtractOwnerToken reads a bearer token, falling back to X-Owner-Token.
func ExtractOwnerToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.GetHeader(OwnerTokenHeader))
}
