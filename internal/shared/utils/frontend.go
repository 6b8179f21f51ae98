package utils

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// ResolveFrontendBase picks the public base URL used in instructor and attend
// links. An explicitly configured base wins, then the forwarding headers of a
// reverse proxy, then Origin, then the Referer origin, then fallback.
func ResolveFrontendBase(c *gin.Context, configured, fallback string) string {
	if base := strings.TrimSpace(configured); base != "" {
		return strings.TrimRight(base, "/")
	}

	proto := normalizeProto(firstHeaderValue(c.GetHeader("X-Forwarded-Proto")))
	host := firstHeaderValue(c.GetHeader("X-Forwarded-Host"))
	if proto != "" && host != "" {
		return proto + "://" + host
	}

	if origin := strings.TrimSpace(c.GetHeader("Origin")); origin != "" {
		return strings.TrimRight(origin, "/")
	}

	if ref := strings.TrimSpace(c.GetHeader("Referer")); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}

	return strings.TrimRight(fallback, "/")
}

// AttendURL builds the participant link for one attendance token.
func AttendURL(base, sessionID, token string) string {
	return base + "/attend/" + url.PathEscape(sessionID) + "?token=" + url.QueryEscape(token)
}

// InstructorURL builds the organizer link for a session.
func InstructorURL(base, sessionID string) string {
	return base + "/session/" + url.PathEscape(sessionID)
}

func firstHeaderValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

// normalizeProto accepts "https", "https:" or "https; rel=..." and rejects
// anything that is not http or https.
func normalizeProto(p string) string {
	fields := strings.FieldsFunc(p, func(r rune) bool { return r == ';' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return ""
	}
	p = strings.ToLower(strings.TrimSuffix(fields[0], ":"))
	if p == "http" || p == "https" {
		return p
	}
	return ""
}
