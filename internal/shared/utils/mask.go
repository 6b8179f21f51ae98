package utils

import (
	"net/url"
	"strings"
)

// MaskSecret keeps the first four characters of a token for log correlation.
// Example: "3f9a0c..." -> "3f9a***"
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return "***"
	}
	return secret[:4] + "***"
}

// MaskURLPassword replaces the password of a connection URL with "***".
func MaskURLPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "(invalid url)"
	}
	if u.User == nil {
		return u.String()
	}
	if _, ok := u.User.Password(); !ok {
		return u.String()
	}

	// url.UserPassword would percent-encode the mask, so it is spliced in.
	username := url.User(u.User.Username()).String()
	u.User = nil
	prefix := u.Scheme + "://"
	return prefix + username + ":***@" + strings.TrimPrefix(u.String(), prefix)
}
