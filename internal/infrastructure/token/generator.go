package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Format selects the encoding of a generated value.
type Format int

const (
	// FormatSecret is a hex-encoded random byte string.
	FormatSecret Format = iota
	// FormatIdentifier is a random (v4) UUID.
	FormatIdentifier
)

const (
	DefaultSecretBytes = 16
	MinSecretBytes     = 1
	MaxSecretBytes     = 1024

	AttendanceTokenBytes = 16
	OwnerTokenBytes      = 24
)

// Options controls Generate. Bytes applies to FormatSecret only; zero means
// DefaultSecretBytes and other values are clamped to [MinSecretBytes, MaxSecretBytes].
type Options struct {
	Format Format
	Bytes  int
}

// Generator produces identifiers and secrets. Uniqueness relies on entropy
// alone; nothing is checked for collisions.
type Generator interface {
	Generate(opts Options) (string, error)
	NewSessionID() (string, error)
	NewIdentity() (string, error)
	NewAttendanceToken() (string, error)
	NewOwnerToken() (string, error)
}

type generator struct {
	random io.Reader
}

func NewGenerator() Generator {
	return &generator{random: rand.Reader}
}

// NewGeneratorWithReader draws secret bytes from r. Tests use it to simulate
// an exhausted entropy source.
func NewGeneratorWithReader(r io.Reader) Generator {
	return &generator{random: r}
}

func (g *generator) Generate(opts Options) (string, error) {
	switch opts.Format {
	case FormatIdentifier:
		id, err := uuid.NewRandomFromReader(g.random)
		if err != nil {
			return "", fmt.Errorf("failed to generate identifier: %w", err)
		}
		return id.String(), nil
	case FormatSecret:
		buf := make([]byte, clampBytes(opts.Bytes))
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		return hex.EncodeToString(buf), nil
	default:
		return "", fmt.Errorf("unknown token format %d", opts.Format)
	}
}

func (g *generator) NewSessionID() (string, error) {
	return g.Generate(Options{Format: FormatIdentifier})
}

func (g *generator) NewIdentity() (string, error) {
	return g.Generate(Options{Format: FormatIdentifier})
}

func (g *generator) NewAttendanceToken() (string, error) {
	return g.Generate(Options{Format: FormatSecret, Bytes: AttendanceTokenBytes})
}

func (g *generator) NewOwnerToken() (string, error) {
	return g.Generate(Options{Format: FormatSecret, Bytes: OwnerTokenBytes})
}

func clampBytes(n int) int {
	switch {
	case n == 0:
		return DefaultSecretBytes
	case n < MinSecretBytes:
		return MinSecretBytes
	case n > MaxSecretBytes:
		return MaxSecretBytes
	default:
		return n
	}
}
