package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

// LinkResolver builds the public links handed to organizers and participants.
type LinkResolver struct {
	configured string
	fallback   string
}

func NewLinkResolver(configured, fallback string) *LinkResolver {
	return &LinkResolver{configured: configured, fallback: fallback}
}

func (l *LinkResolver) base(c *gin.Context) string {
	return utils.ResolveFrontendBase(c, l.configured, l.fallback)
}

func (l *LinkResolver) AttendURL(c *gin.Context, sessionID, token string) string {
	return utils.AttendURL(l.base(c), sessionID, token)
}

func (l *LinkResolver) InstructorURL(c *gin.Context, sessionID string) string {
	return utils.InstructorURL(l.base(c), sessionID)
}
