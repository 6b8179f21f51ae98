package export

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxFilenameRunes = 80
	defaultFilename  = "attendance"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[/\\:*?"<>|]+`)
	whitespaceRuns      = regexp.MustCompile(`\s+`)
)

// SafeFilename turns a session name into an ASCII file stem usable in a
// Content-Disposition header. Accents are folded ("Café" -> "Cafe"), path
// and shell metacharacters removed, whitespace runs become "_" and the
// result is capped at 80 characters. Empty results fall back to "attendance".
func SafeFilename(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), strings.TrimSpace(name))
	if err != nil {
		folded = name
	}

	printable := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || unicode.IsControl(r) {
			return -1
		}
		return r
	}, folded)

	cleaned := unsafeFilenameChars.ReplaceAllString(printable, "")
	cleaned = whitespaceRuns.ReplaceAllString(strings.TrimSpace(cleaned), "_")

	if r := []rune(cleaned); len(r) > maxFilenameRunes {
		cleaned = string(r[:maxFilenameRunes])
	}
	if cleaned == "" {
		return defaultFilename
	}
	return cleaned
}
