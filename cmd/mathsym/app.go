package main

import (
	"go.uber.org/zap"

	"github.com/mathsym/mathsym/internal/classifier"
	"github.com/mathsym/mathsym/internal/config"
	"github.com/mathsym/mathsym/internal/model"
)

// modelLoader opens ONNX models with the runtime settings from cfg.
func modelLoader(cfg config.ModelConfig) classifier.Loader {
	return func(path string) (classifier.Model, error) {
		session, err := model.Open(model.Config{
			Path:           path,
			LibraryPath:    cfg.ORTLibrary,
			InputName:      cfg.InputName,
			OutputName:     cfg.OutputName,
			IntraOpThreads: cfg.IntraOpThreads,
		})
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

// newClassifier builds and initializes the classifier. An initialization failure is
// logged and left on the classifier, which then reports Failed results.
func newClassifier(cfg *config.Config, logger *zap.Logger) (*classifier.Classifier, error) {
	opts, err := cfg.ClassifierOptions()
	if err != nil {
		return nil, err
	}
	opts.Loader = modelLoader(cfg.Model)
	opts.Logger = logger

	c := classifier.New(opts)
	if err := c.Initialize(); err != nil {
		logger.Warn("Continuing without a loaded model", zap.Error(err))
	}
	return c, nil
}

func closeClassifier(c *classifier.Classifier, logger *zap.Logger) {
	if err := c.Close(); err != nil {
		logger.Warn("Failed to close classifier", zap.Error(err))
	}
	if err := model.ShutdownRuntime(); err != nil {
		logger.Warn("Failed to shut down ONNX runtime", zap.Error(err))
	}
}
