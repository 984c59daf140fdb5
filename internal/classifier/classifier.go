// Package classifier recognizes a single handwritten math symbol in an image.
//
// A Classifier owns the inference model and the label tables. It is created with
// New, loaded once with Initialize and released with Close. Recognition calls are
// synchronous and may run concurrently; the model and tables are read-only once
// loaded.
package classifier

import (
	"fmt"
	"image"
	"math"
	"slices"
	"sync"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/mathsym/mathsym/internal/labels"
	"github.com/mathsym/mathsym/internal/symbols"
)

// DefaultThreshold is the minimum top-class probability accepted as a recognition.
const DefaultThreshold float32 = 0.8

// DefaultMaxPixels bounds the area of images accepted for recognition.
const DefaultMaxPixels = 4096 * 4096

// Model is a loaded inference model taking a (1,H,W,1) float32 input.
type Model interface {
	InputShape() []int64
	NumClasses() int
	Run(input []float32) ([]float32, error)
	Close() error
}

// Loader opens the model file at path.
type Loader func(path string) (Model, error)

type Options struct {
	ModelPath   string
	LabelsPath  string
	MappingPath string

	Threshold    float32
	Resample     resize.InterpolationFunction
	ApplySoftmax bool
	InkCheck     InkCheck
	// MaxPixels rejects larger images as invalid input. Zero means DefaultMaxPixels.
	MaxPixels int

	Loader Loader
	Logger *zap.Logger
}

type Classifier struct {
	opts   Options
	logger *zap.Logger

	once    sync.Once
	initErr error

	// mu guards the lifecycle only: recognition holds it for reading, Close for writing.
	mu     sync.RWMutex
	ready  bool
	model  Model
	table  *labels.Table
	width  int
	height int
}

// Info describes the loaded classifier.
type Info struct {
	Initialized bool    `json:"initialized"`
	Error       string  `json:"error,omitempty"`
	InputShape  []int64 `json:"input_shape,omitempty"`
	ImageSize   int     `json:"image_size,omitempty"`
	Classes     int     `json:"classes"`
	Labels      int     `json:"labels"`
	Threshold   float32 `json:"confidence_threshold"`
}

func New(opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &Classifier{
		opts:   opts,
		logger: logger.Named("classifier"),
	}
}

// Initialize loads the model and label tables. Only the first call does any work;
// later calls return the same outcome. A failure is recorded and returned, and the
// classifier stays usable in the sense that Recognize reports Failed results.
func (c *Classifier) Initialize() error {
	c.once.Do(func() {
		err := c.load()
		c.mu.Lock()
		c.initErr = err
		c.mu.Unlock()
		if err != nil {
			c.logger.Error("Initialization failed", zap.Error(err))
			return
		}
		c.logger.Info("Classifier initialized",
			zap.String("model", c.opts.ModelPath),
			zap.Int("width", c.width),
			zap.Int("height", c.height),
			zap.Int("labels", c.table.Len()),
			zap.Float32("threshold", c.opts.Threshold))
	})
	return c.initErr
}

func (c *Classifier) load() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInitialization, r)
		}
	}()

	if c.opts.Threshold < 0 || c.opts.Threshold > 1 || math.IsNaN(float64(c.opts.Threshold)) {
		return fmt.Errorf("%w: confidence threshold %v outside [0,1]", ErrInitialization, c.opts.Threshold)
	}
	if c.opts.Loader == nil {
		return fmt.Errorf("%w: no model loader", ErrInitialization)
	}

	table, err := labels.Load(c.opts.LabelsPath, c.opts.MappingPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	m, err := c.opts.Loader(c.opts.ModelPath)
	if err != nil {
		return fmt.Errorf("%w: load model: %w", ErrInitialization, err)
	}

	shape := m.InputShape()
	if len(shape) != 4 || shape[0] != 1 || shape[1] <= 0 || shape[2] <= 0 || shape[3] != 1 {
		m.Close()
		return fmt.Errorf("%w: model input shape %v is not (1,H,W,1)", ErrInitialization, shape)
	}
	if n := m.NumClasses(); n != table.Len() {
		c.logger.Warn("Model class count differs from label table; unmatched indices resolve to Unknown",
			zap.Int("model_classes", n),
			zap.Int("table_indices", table.Len()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = m
	c.table = table
	c.height = int(shape[1])
	c.width = int(shape[2])
	c.ready = true
	return nil
}

func (c *Classifier) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Err returns the recorded initialization error, if any.
func (c *Classifier) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initErr
}

// Threshold returns the configured confidence threshold.
func (c *Classifier) Threshold() float32 {
	return c.opts.Threshold
}

func (c *Classifier) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info := Info{
		Initialized: c.ready,
		Threshold:   c.opts.Threshold,
	}
	if c.initErr != nil {
		info.Error = c.initErr.Error()
	}
	if c.ready {
		info.InputShape = c.model.InputShape()
		info.ImageSize = c.width
		info.Classes = c.model.NumClasses()
		info.Labels = c.table.Len()
	}
	return info
}

// Close releases the model. Recognition calls made afterwards report Failed.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		return nil
	}
	err := c.model.Close()
	c.model = nil
	c.ready = false
	c.logger.Info("Classifier closed")
	return err
}

// Preprocess converts an image into the model's input tensor.
func (c *Classifier) Preprocess(img image.Image) (Tensor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return Tensor{}, ErrNotInitialized
	}
	return c.preprocess(img)
}

// Infer runs one forward pass and returns a score per compact class index.
func (c *Classifier) Infer(t Tensor) ([]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return nil, ErrNotInitialized
	}
	return c.infer(t)
}

// Postprocess turns class scores into a result without input dimensions.
func (c *Classifier) Postprocess(scores []float32) Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return failed(ErrNotInitialized, 0, 0)
	}
	if err := checkScores(scores); err != nil {
		return failed(err, 0, 0)
	}
	return c.postprocess(scores, 0, 0)
}

// Recognize runs preprocessing, inference and postprocessing on img. It always
// returns a Recognized, Rejected or Failed result and never panics.
func (c *Classifier) Recognize(img image.Image) (res Result) {
	width, height, _ := imageSize(img)
	defer c.recoverInto(&res, width, height)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return failed(c.notReadyErr(), width, height)
	}

	tensor, err := c.preprocess(img)
	if err != nil {
		return failed(err, width, height)
	}
	return c.classify(tensor, width, height)
}

// RecognizeTensor runs inference and postprocessing on an already prepared tensor.
func (c *Classifier) RecognizeTensor(t Tensor) (res Result) {
	defer c.recoverInto(&res, 0, 0)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return failed(c.notReadyErr(), 0, 0)
	}
	return c.classify(t, 0, 0)
}

func (c *Classifier) preprocess(img image.Image) (Tensor, error) {
	if err := CheckPixels(img, c.opts.MaxPixels); err != nil {
		return Tensor{}, err
	}
	return preprocess(img, c.width, c.height, c.opts.Resample)
}

func (c *Classifier) classify(t Tensor, width, height int) Result {
	if reason := c.opts.InkCheck.Evaluate(t.Data); reason != "" {
		c.logger.Debug("Image rejected before inference", zap.String("reason", reason))
		return rejected(-1, 0, reason, width, height)
	}

	scores, err := c.infer(t)
	if err != nil {
		c.logger.Warn("Inference failed", zap.Error(err))
		return failed(err, width, height)
	}
	return c.postprocess(scores, width, height)
}

func (c *Classifier) infer(t Tensor) ([]float32, error) {
	want := []int64{1, int64(c.height), int64(c.width), 1}
	if !slices.Equal(t.Shape, want) || len(t.Data) != c.width*c.height {
		return nil, fmt.Errorf("%w: tensor shape %v with %d values, model expects %v",
			ErrInference, t.Shape, len(t.Data), want)
	}

	scores, err := c.model.Run(t.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if c.opts.ApplySoftmax {
		scores = softmax(scores)
	}
	if err := checkScores(scores); err != nil {
		return nil, err
	}
	return scores, nil
}

func (c *Classifier) postprocess(scores []float32, width, height int) Result {
	index, score := argmax(scores)
	confidence := clamp01(score)

	if confidence < c.opts.Threshold {
		return rejected(index, confidence, ReasonLowConfidence, width, height)
	}

	res, ok := c.table.Resolve(index)
	if !ok {
		c.logger.Warn("No label for class index", zap.Int("index", index), zap.Int("label_id", res.LabelID))
		return recognized(index, res.LabelID, UnknownLaTeX, symbols.Display(UnknownLaTeX),
			confidence, ReasonUnknownLabel, width, height)
	}

	return recognized(index, res.LabelID, res.LaTeX, displaySymbol(res.Entry),
		confidence, "", width, height)
}

func (c *Classifier) notReadyErr() error {
	if c.initErr != nil {
		return fmt.Errorf("%w: %w", ErrNotInitialized, c.initErr)
	}
	return ErrNotInitialized
}

func (c *Classifier) recoverInto(res *Result, width, height int) {
	if r := recover(); r != nil {
		c.logger.Error("Recognition panicked", zap.Any("panic", r))
		*res = failed(fmt.Errorf("%w: panic: %v", ErrInference, r), width, height)
	}
}

// displaySymbol prefers the static table, then the label file's glyph, then the
// LaTeX string itself.
func displaySymbol(e labels.Entry) string {
	if s, ok := symbols.Lookup(e.LaTeX); ok {
		return s
	}
	if e.Unicode != "" {
		return e.Unicode
	}
	return e.LaTeX
}

// argmax returns the first index holding the maximum score.
func argmax(scores []float32) (int, float32) {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best, scores[best]
}

func checkScores(scores []float32) error {
	if len(scores) == 0 {
		return fmt.Errorf("%w: model returned no scores", ErrInference)
	}
	for i, s := range scores {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return fmt.Errorf("%w: non-finite score at index %d", ErrInference, i)
		}
	}
	return nil
}

func softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return logits
	}
	top := logits[0]
	for _, v := range logits[1:] {
		if v > top {
			top = v
		}
	}
	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - top))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}
