package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, width, height int, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeJPEG(t *testing.T) {
	data := encodeTestImage(t, 640, 480, func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: 80})
	})

	normalizer := NewPNGNormalizer(250, 250)
	out, err := normalizer.Normalize(data)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 250, decoded.Bounds().Dx())
	assert.Equal(t, 250, decoded.Bounds().Dy())
}

func TestNormalizePNGIgnoresAspectRatio(t *testing.T) {
	data := encodeTestImage(t, 30, 200, func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	})

	normalizer := NewPNGNormalizer(250, 250)
	out, err := normalizer.Normalize(data)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 250, decoded.Bounds().Dx(), "output is stretched, not fitted")
	assert.Equal(t, 250, decoded.Bounds().Dy())
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	normalizer := NewPNGNormalizer(250, 250)

	_, err := normalizer.Normalize([]byte("definitely not an image"))
	assert.Error(t, err)

	_, err = normalizer.Normalize(nil)
	assert.Error(t, err)
}
