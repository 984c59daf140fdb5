package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/nfnt/resize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mathsym/mathsym/internal/classifier"
)

type constantModel struct {
	scores []float32
}

func (m constantModel) InputShape() []int64 { return []int64{1, 32, 32, 1} }
func (m constantModel) NumClasses() int     { return len(m.scores) }
func (m constantModel) Close() error        { return nil }

func (m constantModel) Run([]float32) ([]float32, error) {
	return append([]float32(nil), m.scores...), nil
}

func testClassifier(t *testing.T, scores ...float32) *classifier.Classifier {
	t.Helper()
	dir := t.TempDir()
	labelsPath := writeFile(t, dir, "labels.json",
		`{"31": {"latex": "\\alpha", "unicode": "α"}, "36": {"latex": "\\beta"}}`)
	mappingPath := writeFile(t, dir, "reverse_mapping.json", `{"0": 31, "1": 36}`)

	c := classifier.New(classifier.Options{
		ModelPath:   "model.onnx",
		LabelsPath:  labelsPath,
		MappingPath: mappingPath,
		Threshold:   classifier.DefaultThreshold,
		Resample:    resize.Bilinear,
		Loader: func(string) (classifier.Model, error) {
			return constantModel{scores: scores}, nil
		},
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, c.Initialize())
	t.Cleanup(func() { c.Close() })
	return c
}

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	path := filepath.Join(dir, "symbol.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestRecognizeFileRecognized(t *testing.T) {
	c := testClassifier(t, 0.95, 0.05)
	path := writePNG(t, t.TempDir(), 48, 48)

	r := recognizeFile(c, path, classifier.DefaultMaxPixels)
	require.True(t, r.Result.Recognized(), r.Result.Message)
	assert.Equal(t, "α", r.Result.Symbol)
	assert.Equal(t, 48, r.Result.Width)
}

func TestRecognizeFileUnreadablePath(t *testing.T) {
	c := testClassifier(t, 0.95, 0.05)

	r := recognizeFile(c, filepath.Join(t.TempDir(), "missing.png"), classifier.DefaultMaxPixels)
	assert.True(t, r.Result.Failed())
	assert.ErrorIs(t, r.Result.Err, os.ErrNotExist)
	assert.Contains(t, r.Result.LaTeX, "Error:")
}

func TestRecognizeFileUndecodable(t *testing.T) {
	c := testClassifier(t, 0.95, 0.05)
	path := writeFile(t, t.TempDir(), "symbol.png", "definitely not a png")

	r := recognizeFile(c, path, classifier.DefaultMaxPixels)
	assert.True(t, r.Result.Failed())
	assert.ErrorIs(t, r.Result.Err, classifier.ErrInvalidInput)
}

func TestRecognizeFileTooLarge(t *testing.T) {
	c := testClassifier(t, 0.95, 0.05)
	path := writePNG(t, t.TempDir(), 200, 100)

	r := recognizeFile(c, path, 100*100)
	assert.True(t, r.Result.Failed())
	assert.ErrorIs(t, r.Result.Err, classifier.ErrInvalidInput)
}

func TestPrintRecognitionsShowsRejectedConfidence(t *testing.T) {
	c := testClassifier(t, 0.42, 0.58)
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	var buf bytes.Buffer
	printRecognitions(&buf, []recognition{
		{File: "blank.png", Result: c.Recognize(img)},
		{File: "bad.png", Result: classifier.FailedResult(classifier.ErrInvalidInput)},
	})

	assert.Equal(t,
		"blank.png\t"+classifier.RejectedMessage+" (low_confidence: 58.0%)\n"+
			"bad.png\tError: invalid input image\n",
		buf.String())
}
