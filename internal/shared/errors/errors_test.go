package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsMapStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
		typ  ErrorType
	}{
		{"not found", NewNotFoundError("Session not found"), http.StatusNotFound, ErrorTypeNotFound},
		{"closed", NewClosedError("Session is closed"), http.StatusBadRequest, ErrorTypeClosed},
		{"invalid token", NewInvalidCredentialError("Invalid token"), http.StatusBadRequest, ErrorTypeInvalidCredential},
		{"duplicate", NewDuplicateError("Already recorded"), http.StatusBadRequest, ErrorTypeDuplicate},
		{"forbidden", NewForbiddenError("Forbidden"), http.StatusForbidden, ErrorTypeForbidden},
		{"rate limited", NewRateLimitedError("Too many requests"), http.StatusTooManyRequests, ErrorTypeRateLimited},
		{"internal", NewInternalError("boom"), http.StatusInternalServerError, ErrorTypeInternal},
		{"validation", NewValidationError("bad"), http.StatusBadRequest, ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.typ, tt.err.Type)
		})
	}
}

func TestWithReasonCopies(t *testing.T) {
	base := NewInvalidCredentialError("Invalid token", "consumed")
	tagged := base.WithReason("TOKEN_INVALID")

	assert.Empty(t, base.Reason)
	assert.Equal(t, "TOKEN_INVALID", tagged.Reason)
	assert.Equal(t, "invalid_credential: Invalid token (consumed)", tagged.Error())
}

func TestGetAppErrorUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("failed to submit: %w", NewNotFoundError("Session not found"))

	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.True(t, IsNotFoundError(wrapped))
	assert.False(t, IsValidationError(wrapped))
	assert.Nil(t, GetAppError(fmt.Errorf("plain")))
}
