package classifier

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/nfnt/resize"
)

// Luma weights (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

var resampleFilters = map[string]resize.InterpolationFunction{
	"nearest":  resize.NearestNeighbor,
	"bilinear": resize.Bilinear,
	"bicubic":  resize.Bicubic,
	"mitchell": resize.MitchellNetravali,
	"lanczos2": resize.Lanczos2,
	"lanczos3": resize.Lanczos3,
}

// ParseResample maps a filter name from configuration to a resize filter.
func ParseResample(name string) (resize.InterpolationFunction, error) {
	f, ok := resampleFilters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown resample filter %q", name)
	}
	return f, nil
}

// preprocess scales img to width×height, converts it to luminance and normalizes
// every value to [0,1]. Transparent pixels are treated as white paper. Alpha is
// flattened after resizing so only target-sized buffers are allocated.
func preprocess(img image.Image, width, height int, filter resize.InterpolationFunction) (Tensor, error) {
	srcW, srcH, ok := imageSize(img)
	if !ok {
		return Tensor{}, fmt.Errorf("%w: no image", ErrInvalidInput)
	}
	if srcW <= 0 || srcH <= 0 {
		return Tensor{}, fmt.Errorf("%w: zero-area image %dx%d", ErrInvalidInput, srcW, srcH)
	}
	if width <= 0 || height <= 0 {
		return Tensor{}, fmt.Errorf("%w: target size %dx%d", ErrInvalidInput, width, height)
	}

	resized := resize.Resize(uint(width), uint(height), img, filter)

	target := image.Rect(0, 0, width, height)
	flat := image.NewRGBA(target)
	draw.Draw(flat, target, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flat, target, resized, resized.Bounds().Min, draw.Over)

	tensor := NewTensor(height, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := flat.Pix[y*flat.Stride+x*4:]
			luma := lumaR*float32(p[0]) + lumaG*float32(p[1]) + lumaB*float32(p[2])
			tensor.Data[y*width+x] = clamp01(luma / 255)
		}
	}
	return tensor, nil
}

// imageSize reports the dimensions of img. ok is false for a nil image, including a
// typed nil pointer whose Bounds method panics.
func imageSize(img image.Image) (width, height int, ok bool) {
	if img == nil {
		return 0, 0, false
	}
	defer func() {
		if recover() != nil {
			width, height, ok = 0, 0, false
		}
	}()
	b := img.Bounds()
	return b.Dx(), b.Dy(), true
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
