package model

import (
	"errors"
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

// InitRuntime loads the ONNX Runtime shared library and creates its environment.
// It is a no-op when the environment already exists.
func InitRuntime(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// ShutdownRuntime destroys the ONNX Runtime environment.
func ShutdownRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// Session is a loaded model. Run may be called from several goroutines.
type Session struct {
	session  *ort.DynamicAdvancedSession
	Metadata Metadata
}

func Open(cfg Config) (*Session, error) {
	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("model file %s is empty", cfg.Path)
	}

	if err := InitRuntime(cfg.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect model: %w", err)
	}

	in, err := pickTensor(inputs, cfg.InputName, "input")
	if err != nil {
		return nil, err
	}
	out, err := pickTensor(outputs, cfg.OutputName, "output")
	if err != nil {
		return nil, err
	}

	metadata, err := describe(in, out)
	if err != nil {
		return nil, err
	}

	var options *ort.SessionOptions
	if cfg.IntraOpThreads > 0 {
		options, err = ort.NewSessionOptions()
		if err != nil {
			return nil, fmt.Errorf("failed to create session options: %w", err)
		}
		defer options.Destroy()
		if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.Path,
		[]string{metadata.InputName}, []string{metadata.OutputName}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Session{
		session:  session,
		Metadata: metadata,
	}, nil
}

func pickTensor(infos []ort.InputOutputInfo, name, kind string) (ort.InputOutputInfo, error) {
	if len(infos) == 0 {
		return ort.InputOutputInfo{}, fmt.Errorf("model declares no %s", kind)
	}
	if name == "" {
		return infos[0], nil
	}
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return ort.InputOutputInfo{}, fmt.Errorf("model has no %s named %q", kind, name)
}

func describe(in, out ort.InputOutputInfo) (Metadata, error) {
	if in.OrtValueType != ort.ONNXTypeTensor || in.DataType != ort.TensorElementDataTypeFloat {
		return Metadata{}, fmt.Errorf("input %q must be a float32 tensor", in.Name)
	}
	if out.OrtValueType != ort.ONNXTypeTensor || out.DataType != ort.TensorElementDataTypeFloat {
		return Metadata{}, fmt.Errorf("output %q must be a float32 tensor", out.Name)
	}

	inputShape, err := imageShape(in.Dimensions)
	if err != nil {
		return Metadata{}, fmt.Errorf("input %q: %w", in.Name, err)
	}
	outputShape, classes, err := scoreShape(out.Dimensions)
	if err != nil {
		return Metadata{}, fmt.Errorf("output %q: %w", out.Name, err)
	}

	return Metadata{
		InputName:   in.Name,
		OutputName:  out.Name,
		InputShape:  inputShape,
		OutputShape: outputShape,
		ImageSize:   int(inputShape[1]),
		Classes:     classes,
	}, nil
}

// imageShape accepts (N,H,W,1) with a dynamic or unit batch and returns (1,H,W,1).
func imageShape(dims []int64) ([]int64, error) {
	if len(dims) != 4 {
		return nil, fmt.Errorf("expected rank 4 (1,H,W,1), got %v", dims)
	}
	if dims[0] > 1 {
		return nil, fmt.Errorf("batch size %d is not supported", dims[0])
	}
	if dims[1] <= 0 || dims[2] <= 0 {
		return nil, fmt.Errorf("image dimensions must be fixed, got %v", dims)
	}
	if dims[3] != 1 {
		return nil, fmt.Errorf("expected a single channel, got %d", dims[3])
	}
	return []int64{1, dims[1], dims[2], 1}, nil
}

// scoreShape accepts (N,C) or (C) and returns the shape to allocate and C.
func scoreShape(dims []int64) ([]int64, int, error) {
	switch len(dims) {
	case 1:
		if dims[0] <= 0 {
			return nil, 0, fmt.Errorf("class count must be fixed, got %v", dims)
		}
		return []int64{dims[0]}, int(dims[0]), nil
	case 2:
		if dims[0] > 1 {
			return nil, 0, fmt.Errorf("batch size %d is not supported", dims[0])
		}
		if dims[1] <= 0 {
			return nil, 0, fmt.Errorf("class count must be fixed, got %v", dims)
		}
		return []int64{1, dims[1]}, int(dims[1]), nil
	default:
		return nil, 0, fmt.Errorf("expected rank 2 (1,C), got %v", dims)
	}
}

func (s *Session) InputShape() []int64 {
	return append([]int64(nil), s.Metadata.InputShape...)
}

func (s *Session) NumClasses() int {
	return s.Metadata.Classes
}

// Run performs one forward pass. Tensors are allocated per call so concurrent
// callers never share buffers.
func (s *Session) Run(input []float32) ([]float32, error) {
	if s.session == nil {
		return nil, errors.New("session is closed")
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(s.Metadata.InputShape...), input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.OutputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := s.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	scores := make([]float32, len(outputTensor.GetData()))
	copy(scores, outputTensor.GetData())
	return scores, nil
}

func (s *Session) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
