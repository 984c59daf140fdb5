package classifier

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

// CheckPixels rejects an image whose area exceeds maxPixels. A nil image passes and
// is reported by preprocessing.
func CheckPixels(img image.Image, maxPixels int) error {
	width, height, ok := imageSize(img)
	if !ok {
		return nil
	}
	return checkArea(width, height, maxPixels)
}

func checkArea(width, height, maxPixels int) error {
	if maxPixels > 0 && int64(width)*int64(height) > int64(maxPixels) {
		return fmt.Errorf("%w: image is %dx%d, larger than %d pixels",
			ErrInvalidInput, width, height, maxPixels)
	}
	return nil
}

// DecodeImage reads the image header first and refuses images above maxPixels
// before decoding any pixel data. It returns the image and its format name.
func DecodeImage(r io.ReadSeeker, maxPixels int) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := checkArea(cfg.Width, cfg.Height, maxPixels); err != nil {
		return nil, "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("failed to rewind image: %w", err)
	}

	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return img, format, nil
}
