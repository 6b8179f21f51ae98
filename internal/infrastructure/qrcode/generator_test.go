package qrcode

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_PNG(t *testing.T) {
	g := NewGenerator(0)

	data, err := g.PNG("http://localhost:5173/attend/s-1?token=abc")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
}

func TestGenerator_DataURL(t *testing.T) {
	url, err := NewGenerator(128).DataURL("hello")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestGenerator_EmptyContent(t *testing.T) {
	_, err := NewGenerator(0).PNG("  ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}
