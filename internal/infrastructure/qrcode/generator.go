// Package qrcode renders attend links as scannable PNG images.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

const DefaultSize = 256

var ErrEmptyContent = errors.New("qr content must be a non-empty string")

type Generator struct {
	size  int
	level qr.RecoveryLevel
}

func NewGenerator(size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	return &Generator{size: size, level: qr.Medium}
}

// PNG encodes content as a square PNG of the configured size.
func (g *Generator) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	png, err := qr.Encode(content, g.level, g.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// DataURL returns the PNG as a data: URL suitable for an <img> src.
func (g *Generator) DataURL(content string) (string, error) {
	png, err := g.PNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
