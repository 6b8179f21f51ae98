package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/application/rollcall"
	"github.com/quickrollcall/rollcall/internal/application/rollcall/dto"
	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/metrics"
	apperrors "github.com/quickrollcall/rollcall/internal/shared/errors"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

const (
	tokenSourceCreate = "create"
	tokenSourceOwner  = "owner"
	tokenSourceQR     = "qr"
	tokenSourceSelf   = "self"
)

// SessionHandler serves the organizer endpoints under /api/sessions.
type SessionHandler struct {
	sessions sessionService
	qr       qrEncoder
	links    *LinkResolver
	metrics  *metrics.Metrics
	logger   logger.Interface
}

func NewSessionHandler(
	sessions sessionService,
	qr qrEncoder,
	links *LinkResolver,
	m *metrics.Metrics,
	logger logger.Interface,
) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		qr:       qr,
		links:    links,
		metrics:  m,
		logger:   logger,
	}
}

// CreateSession handles POST /api/sessions. The body is optional.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ErrorResponseWithError(c, utils.ValidationError(err))
		return
	}

	name := utils.SanitizeOptional(req.Name)
	if name != nil && *name == "" {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Validation failed", "name cannot be blank"))
		return
	}

	s, err := h.sessions.Create(c.Request.Context(), rollcall.CreateSessionCommand{
		Name:            name,
		DurationMinutes: req.Duration(),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := h.sessions.IssueToken(c.Request.Context(), s.ID())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if token == "" {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("Token could not be generated"))
		return
	}
	h.metrics.TokenIssued(tokenSourceCreate)

	utils.CreatedResponse(c, &dto.CreatedSessionDTO{
		SessionID:       s.ID(),
		IsActive:        s.IsActive(),
		CreatedAt:       s.CreatedAt().UnixMilli(),
		Name:            s.Name(),
		DurationMinutes: s.DurationMinutes(),
		OwnerToken:      s.OwnerToken(),
		Token:           token,
		InstructorURL:   h.links.InstructorURL(c, s.ID()),
		AttendURL:       h.links.AttendURL(c, s.ID(), token),
	}, "Session created successfully")
}

// GetSession handles GET /api/sessions/:sessionId.
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, err := h.sessions.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if s == nil {
		respondError(c, h.logger, session.ErrSessionNotFound)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto.ToOwnerSessionDTO(s))
}

// CloseSession handles POST /api/sessions/:sessionId/close.
func (h *SessionHandler) CloseSession(c *gin.Context) {
	s, err := h.sessions.Close(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if s == nil {
		respondError(c, h.logger, session.ErrSessionNotFound)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session closed", &dto.CloseSessionDTO{
		Success: true,
		Session: dto.ToOwnerSessionDTO(s),
	})
}

// IssueToken handles POST /api/sessions/:sessionId/token.
func (h *SessionHandler) IssueToken(c *gin.Context) {
	sessionID := c.Param("sessionId")
	token, ok := h.issue(c, sessionID, tokenSourceOwner)
	if !ok {
		return
	}

	attendURL := h.links.AttendURL(c, sessionID, token)
	resp := &dto.IssuedTokenDTO{Token: token, AttendURL: attendURL}
	if dataURL, err := h.qr.DataURL(attendURL); err != nil {
		h.logger.Warnw("failed to render qr code", "session_id", sessionID, "error", err)
	} else {
		resp.QRCodeDataURL = dataURL
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// GetQRCode handles GET /api/sessions/:sessionId/qr. Every call mints a
// fresh token and returns the attend link as a PNG.
func (h *SessionHandler) GetQRCode(c *gin.Context) {
	sessionID := c.Param("sessionId")
	token, ok := h.issue(c, sessionID, tokenSourceQR)
	if !ok {
		return
	}

	png, err := h.qr.PNG(h.links.AttendURL(c, sessionID, token))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *SessionHandler) issue(c *gin.Context, sessionID, source string) (string, bool) {
	token, err := h.sessions.IssueToken(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return "", false
	}
	if token == "" {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("Session not found or inactive"))
		return "", false
	}
	h.metrics.TokenIssued(source)
	return token, true
}
