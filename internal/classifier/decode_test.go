package classifier

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/nfnt/resize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	data := encodePNG(t, cross(40, 30))

	img, format, err := DecodeImage(bytes.NewReader(data), 40*30)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
}

func TestDecodeImageRejectsLargeDimensionsFromHeader(t *testing.T) {
	data := encodePNG(t, image.NewGray(image.Rect(0, 0, 2000, 1500)))

	_, _, err := DecodeImage(bytes.NewReader(data), 1000*1000)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorContains(t, err, "2000x1500")
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, _, err := DecodeImage(bytes.NewReader([]byte("not an image")), DefaultMaxPixels)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCheckPixels(t *testing.T) {
	assert.NoError(t, CheckPixels(nil, 10))
	assert.NoError(t, CheckPixels((*image.Gray)(nil), 10))
	assert.NoError(t, CheckPixels(image.NewGray(image.Rect(0, 0, 5, 2)), 10))
	assert.ErrorIs(t, CheckPixels(image.NewGray(image.Rect(0, 0, 11, 1)), 10), ErrInvalidInput)
	assert.NoError(t, CheckPixels(image.NewGray(image.Rect(0, 0, 100, 100)), 0))
}

func TestImageSize(t *testing.T) {
	w, h, ok := imageSize(image.NewNRGBA(image.Rect(3, 4, 10, 20)))
	assert.True(t, ok)
	assert.Equal(t, 7, w)
	assert.Equal(t, 16, h)

	_, _, ok = imageSize(nil)
	assert.False(t, ok)
	_, _, ok = imageSize((*image.Paletted)(nil))
	assert.False(t, ok)
}

func TestPreprocessLargeTransparentSource(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1024, 1024))
	for y := 384; y < 640; y++ {
		for x := 384; x < 640; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}

	tensor, err := preprocess(img, 32, 32, resize.Bilinear)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, tensor.Data[0], 1e-3)
	assert.InDelta(t, 0.0, tensor.Data[16*32+16], 0.01)
}
