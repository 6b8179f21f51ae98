package handlers

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

type CreateSessionRequest struct {
	Name            *string       `json:"name" binding:"omitempty,min=1,max=200"`
	DurationMinutes *MinutesValue `json:"durationMinutes" binding:"omitempty,gt=0"`
}

// Duration returns the requested duration, or nil when none was sent.
func (r *CreateSessionRequest) Duration() *int {
	if r.DurationMinutes == nil {
		return nil
	}
	minutes := int(*r.DurationMinutes)
	return &minutes
}

// MinutesValue accepts a whole number either as a JSON number or as a
// numeric string ("30"). Fractional values are rejected.
type MinutesValue int

func (m *MinutesValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			*m = 0
			return nil
		}
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("durationMinutes must be a number")
	}
	if value != math.Trunc(value) || value > math.MaxInt32 || value < math.MinInt32 {
		return fmt.Errorf("durationMinutes must be a whole number")
	}

	*m = MinutesValue(value)
	return nil
}

type SubmitAttendanceRequest struct {
	Token   string `json:"token" binding:"required,max=256"`
	UserID  string `json:"userId" binding:"required,max=32,userid"`
	Name    string `json:"name" binding:"required,max=100,personname"`
	Surname string `json:"surname" binding:"required,max=100,personname"`
	Section string `json:"section" binding:"required,max=50,section"`
}

func (r *SubmitAttendanceRequest) ToInput() session.AttendanceInput {
	return session.AttendanceInput{
		UserID:  strings.TrimSpace(r.UserID),
		Name:    utils.SanitizeText(r.Name),
		Surname: utils.SanitizeText(r.Surname),
		Section: utils.SanitizeText(r.Section),
	}
}

type ValidateTokenQuery struct {
	Token string `form:"token" binding:"required"`
}

type ClientLogRequest struct {
	Level   string         `json:"level" binding:"required,oneof=debug info warn error"`
	Message string         `json:"message" binding:"required,min=1,max=2000"`
	Meta    map[string]any `json:"meta"`
}
