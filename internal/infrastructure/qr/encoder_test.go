package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_EncodePNG(t *testing.T) {
	out, err := NewEncoder().EncodePNG("https://www.afip.gob.ar/fe/qr/?p=eyJ2ZXIiOjF9", 300)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("\x89PNG\r\n\x1a\n")))

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestClampSize(t *testing.T) {
	assert.Equal(t, DefaultSize, clampSize(0))
	assert.Equal(t, MinSize, clampSize(10))
	assert.Equal(t, MaxSize, clampSize(5000))
	assert.Equal(t, 512, clampSize(512))
}
