package classifier

import (
	"image"
	"image/color"
	"testing"

	"github.com/nfnt/resize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessShapeAndRange(t *testing.T) {
	tensor, err := preprocess(cross(97, 61), 32, 32, resize.Lanczos3)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 32, 32, 1}, tensor.Shape)
	assert.Len(t, tensor.Data, 32*32)
	assert.Equal(t, 32*32, tensor.Elements())
	for _, v := range tensor.Data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestPreprocessLuma(t *testing.T) {
	c := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	tensor, err := preprocess(solid(64, 64, c), 32, 32, resize.Bilinear)
	require.NoError(t, err)

	want := (0.299*200 + 0.587*100 + 0.114*50) / 255.0
	for _, v := range tensor.Data {
		assert.InDelta(t, want, v, 0.01)
	}
}

func TestPreprocessFlattensTransparencyOnWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	img.Set(16, 16, color.NRGBA{A: 255})

	tensor, err := preprocess(img, 32, 32, resize.NearestNeighbor)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, tensor.Data[0], 1e-3)
	assert.InDelta(t, 0.0, tensor.Data[16*32+16], 1e-3)
}

func TestPreprocessGrayAndPalettedInputs(t *testing.T) {
	gray := image.NewGray(image.Rect(10, 10, 42, 42))
	for i := range gray.Pix {
		gray.Pix[i] = 51
	}
	tensor, err := preprocess(gray, 32, 32, resize.NearestNeighbor)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, tensor.Data[0], 0.01)

	pal := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White})
	tensor, err = preprocess(pal, 32, 32, resize.Bilinear)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, tensor.Data[100], 0.01)
}

func TestPreprocessRejectsDegenerateImages(t *testing.T) {
	_, err := preprocess(nil, 32, 32, resize.Bilinear)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = preprocess(image.NewRGBA(image.Rectangle{}), 32, 32, resize.Bilinear)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = preprocess(cross(8, 8), 0, 32, resize.Bilinear)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseResample(t *testing.T) {
	f, err := ParseResample("Bilinear")
	require.NoError(t, err)
	assert.Equal(t, resize.Bilinear, f)

	f, err = ParseResample(" lanczos3 ")
	require.NoError(t, err)
	assert.Equal(t, resize.Lanczos3, f)

	_, err = ParseResample("cubic-ish")
	assert.Error(t, err)
}

func TestTensorBinaryEncoding(t *testing.T) {
	tensor := NewTensor(2, 2)
	copy(tensor.Data, []float32{0, 0.25, 0.5, 1})

	raw, err := tensor.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x80, 0x3e, 0, 0, 0, 0x3f, 0, 0, 0x80, 0x3f}, raw)

	decoded, err := DecodeTensor(raw, tensor.Shape)
	require.NoError(t, err)
	assert.Equal(t, tensor, decoded)

	_, err = DecodeTensor(raw[:15], tensor.Shape)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = DecodeTensor(raw, []int64{1, -1, 2, 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
