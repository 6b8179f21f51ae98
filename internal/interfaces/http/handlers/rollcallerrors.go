package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/shared/errors"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

var rejectionMessages = map[session.Reason]string{
	session.ReasonSessionNotFound:           "Session not found",
	session.ReasonSessionClosed:             "Session is closed",
	session.ReasonTokenInvalid:              "Invalid or already used token",
	session.ReasonDuplicateAttendance:       "This user has already submitted attendance",
	session.ReasonDuplicateDeviceSubmission: "This device already submitted attendance",
}

// reasonError converts a business rejection into the API error. Only a
// missing session maps to 404; every other rejection is a 400.
func reasonError(reason session.Reason) *errors.AppError {
	msg, ok := rejectionMessages[reason]
	if !ok {
		return errors.NewBadRequestError("Invalid request")
	}

	var appErr *errors.AppError
	switch reason {
	case session.ReasonSessionNotFound:
		appErr = errors.NewNotFoundError(msg)
	case session.ReasonSessionClosed:
		appErr = errors.NewClosedError(msg)
	case session.ReasonTokenInvalid:
		appErr = errors.NewInvalidCredentialError(msg)
	default:
		appErr = errors.NewDuplicateError(msg)
	}
	return appErr.WithReason(string(reason))
}

// respondError writes err as an API error. Domain sentinels are translated
// to their reason; anything unexpected is logged and hidden behind a 500.
func respondError(c *gin.Context, log logger.Interface, err error) {
	if reason := session.ReasonFor(err); reason != session.ReasonNone {
		utils.ErrorResponseWithError(c, reasonError(reason))
		return
	}
	if !errors.IsAppError(err) {
		log.Errorw("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"session_id", c.Param("sessionId"),
			"error", err,
		)
	}
	utils.ErrorResponseWithError(c, err)
}
