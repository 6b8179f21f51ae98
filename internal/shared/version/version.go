// Package version exposes the build version stamped in at link time.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is set with -ldflags "-X github.com/quickrollcall/rollcall/internal/shared/version.Version=1.2.3".
var Version = "dev"

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3"
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return ""
	}
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// String returns the canonical semver form of Version, or the raw value for
// development builds that are not valid semver.
func String() string {
	normalized := Normalize(Version)
	if !semver.IsValid(normalized) {
		if Version == "" {
			return "dev"
		}
		return Version
	}
	return semver.Canonical(normalized)
}
