package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/application/rollcall/dto"
	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/metrics"
	apperrors "github.com/quickrollcall/rollcall/internal/shared/errors"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

// AttendanceHandler serves the participant endpoints under /api/attendance.
type AttendanceHandler struct {
	sessions attendanceService
	links    *LinkResolver
	metrics  *metrics.Metrics
	logger   logger.Interface
}

func NewAttendanceHandler(
	sessions attendanceService,
	links *LinkResolver,
	m *metrics.Metrics,
	logger logger.Interface,
) *AttendanceHandler {
	return &AttendanceHandler{
		sessions: sessions,
		links:    links,
		metrics:  m,
		logger:   logger,
	}
}

// SubmitAttendance handles POST /api/attendance/:sessionId.
func (h *AttendanceHandler) SubmitAttendance(c *gin.Context) {
	var req SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.ValidationError(err))
		return
	}

	sessionID := c.Param("sessionId")
	input := req.ToInput()
	clientID := strings.TrimSpace(c.GetHeader("X-Client-ID"))

	result, err := h.sessions.SubmitAttendance(c.Request.Context(), sessionID, req.Token, input, clientID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !result.OK {
		utils.ErrorResponseWithError(c, reasonError(result.Reason))
		return
	}

	resp := &dto.SubmitAttendanceDTO{OK: true, SessionID: sessionID}
	if result.Session != nil {
		records := result.Session.Attendance()
		resp.Attendees = len(records)
		if n := len(records); n > 0 {
			resp.Record = dto.ToAttendanceRecordDTO(records[n-1])
		}
	}
	utils.SuccessResponse(c, http.StatusOK, "Attendance recorded", resp)
}

// ValidateToken handles GET /api/attendance/:sessionId/validate?token=.
// The token is not consumed.
func (h *AttendanceHandler) ValidateToken(c *gin.Context) {
	var query ValidateTokenQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorResponseWithError(c, utils.ValidationError(err))
		return
	}

	sessionID := c.Param("sessionId")
	result, err := h.sessions.ValidateToken(c.Request.Context(), sessionID, query.Token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !result.Valid {
		utils.ErrorResponseWithError(c, reasonError(result.Reason))
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", &dto.ValidateTokenDTO{
		OK:          true,
		SessionID:   sessionID,
		SessionName: result.SessionName,
	})
}

// MintToken handles POST /api/attendance/:sessionId/token, the public
// self-service mint used by scanners.
func (h *AttendanceHandler) MintToken(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("sessionId")

	s, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if s == nil {
		utils.ErrorResponseWithError(c, reasonError(session.ReasonSessionNotFound))
		return
	}
	if !s.IsActive() {
		utils.ErrorResponseWithError(c, reasonError(session.ReasonSessionClosed))
		return
	}

	token, err := h.sessions.IssueToken(ctx, sessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if token == "" {
		utils.ErrorResponseWithError(c, apperrors.NewNotFoundError("Token could not be generated"))
		return
	}
	h.metrics.TokenIssued(tokenSourceSelf)

	utils.SuccessResponse(c, http.StatusOK, "", &dto.IssuedTokenDTO{
		Token:     token,
		AttendURL: h.links.AttendURL(c, sessionID, token),
	})
}
