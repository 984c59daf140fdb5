package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mathsym/mathsym/internal/classifier"
	"github.com/mathsym/mathsym/internal/history"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Model      ModelConfig      `mapstructure:"model" yaml:"model"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	History    HistoryConfig    `mapstructure:"history" yaml:"history"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            string        `mapstructure:"port" yaml:"port"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type ModelConfig struct {
	Path           string `mapstructure:"path" yaml:"path"`
	LabelsPath     string `mapstructure:"labels_path" yaml:"labels_path"`
	MappingPath    string `mapstructure:"mapping_path" yaml:"mapping_path"`
	ORTLibrary     string `mapstructure:"ort_library" yaml:"ort_library"`
	InputName      string `mapstructure:"input_name" yaml:"input_name"`
	OutputName     string `mapstructure:"output_name" yaml:"output_name"`
	IntraOpThreads int    `mapstructure:"intra_op_threads" yaml:"intra_op_threads"`
}

type ClassifierConfig struct {
	// ConfidenceThreshold must agree with the threshold used when the model was evaluated.
	ConfidenceThreshold float32        `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	Resample            string         `mapstructure:"resample" yaml:"resample"`
	ApplySoftmax        bool           `mapstructure:"apply_softmax" yaml:"apply_softmax"`
	MaxImagePixels      int            `mapstructure:"max_image_pixels" yaml:"max_image_pixels"`
	InkCheck            InkCheckConfig `mapstructure:"ink_check" yaml:"ink_check"`
}

type InkCheckConfig struct {
	Enabled       bool    `mapstructure:"enabled" yaml:"enabled"`
	DarkLevel     float32 `mapstructure:"dark_level" yaml:"dark_level"`
	MinForeground float32 `mapstructure:"min_foreground" yaml:"min_foreground"`
	MaxForeground float32 `mapstructure:"max_foreground" yaml:"max_foreground"`
	MinStdDev     float32 `mapstructure:"min_std_dev" yaml:"min_std_dev"`
}

type HistoryConfig struct {
	Enabled          bool   `mapstructure:"enabled" yaml:"enabled"`
	Driver           string `mapstructure:"driver" yaml:"driver"`
	DSN              string `mapstructure:"dsn" yaml:"dsn"`
	RecordRecognized bool   `mapstructure:"record_recognized" yaml:"record_recognized"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// Default returns the configuration used when no file or environment overrides it.
func Default() Config {
	ink := classifier.DefaultInkCheck()
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			MaxUploadBytes:  10 << 20,
			ShutdownTimeout: 5 * time.Second,
		},
		Model: ModelConfig{
			Path:        "models/math_ocr_model.onnx",
			LabelsPath:  "models/labels.json",
			MappingPath: "models/reverse_mapping.json",
		},
		Classifier: ClassifierConfig{
			ConfidenceThreshold: classifier.DefaultThreshold,
			Resample:            "bilinear",
			MaxImagePixels:      classifier.DefaultMaxPixels,
			InkCheck: InkCheckConfig{
				DarkLevel:     ink.DarkLevel,
				MinForeground: ink.MinForeground,
				MaxForeground: ink.MaxForeground,
				MinStdDev:     ink.MinStdDev,
			},
		},
		History: HistoryConfig{
			Enabled:          true,
			Driver:           history.DriverSQLite,
			DSN:              "./data/history.db",
			RecordRecognized: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from cfgFile, or from ./config.yaml or
// $HOME/.mathsym/config.yaml when cfgFile is empty. Environment variables with the
// MATHSYM_ prefix override file values, e.g. MATHSYM_CLASSIFIER_CONFIDENCE_THRESHOLD.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("MATHSYM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.mathsym")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Model.Path = os.ExpandEnv(cfg.Model.Path)
	cfg.Model.LabelsPath = os.ExpandEnv(cfg.Model.LabelsPath)
	cfg.Model.MappingPath = os.ExpandEnv(cfg.Model.MappingPath)
	cfg.Model.ORTLibrary = os.ExpandEnv(cfg.Model.ORTLibrary)
	cfg.History.DSN = os.ExpandEnv(cfg.History.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("model.path", d.Model.Path)
	v.SetDefault("model.labels_path", d.Model.LabelsPath)
	v.SetDefault("model.mapping_path", d.Model.MappingPath)
	v.SetDefault("model.ort_library", d.Model.ORTLibrary)
	v.SetDefault("model.input_name", d.Model.InputName)
	v.SetDefault("model.output_name", d.Model.OutputName)
	v.SetDefault("model.intra_op_threads", d.Model.IntraOpThreads)

	v.SetDefault("classifier.confidence_threshold", d.Classifier.ConfidenceThreshold)
	v.SetDefault("classifier.resample", d.Classifier.Resample)
	v.SetDefault("classifier.apply_softmax", d.Classifier.ApplySoftmax)
	v.SetDefault("classifier.max_image_pixels", d.Classifier.MaxImagePixels)
	v.SetDefault("classifier.ink_check.enabled", d.Classifier.InkCheck.Enabled)
	v.SetDefault("classifier.ink_check.dark_level", d.Classifier.InkCheck.DarkLevel)
	v.SetDefault("classifier.ink_check.min_foreground", d.Classifier.InkCheck.MinForeground)
	v.SetDefault("classifier.ink_check.max_foreground", d.Classifier.InkCheck.MaxForeground)
	v.SetDefault("classifier.ink_check.min_std_dev", d.Classifier.InkCheck.MinStdDev)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.driver", d.History.Driver)
	v.SetDefault("history.dsn", d.History.DSN)
	v.SetDefault("history.record_recognized", d.History.RecordRecognized)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	th := c.Classifier.ConfidenceThreshold
	if th < 0 || th > 1 || th != th {
		return fmt.Errorf("classifier.confidence_threshold must be within [0,1], got %v", th)
	}
	if _, err := classifier.ParseResample(c.Classifier.Resample); err != nil {
		return fmt.Errorf("classifier.resample: %w", err)
	}
	ink := c.Classifier.InkCheck
	if ink.MinForeground > ink.MaxForeground {
		return fmt.Errorf("classifier.ink_check: min_foreground %v exceeds max_foreground %v",
			ink.MinForeground, ink.MaxForeground)
	}
	if c.History.Enabled && c.History.Driver != history.DriverSQLite && c.History.Driver != history.DriverPostgres {
		return fmt.Errorf("history.driver must be %q or %q, got %q",
			history.DriverSQLite, history.DriverPostgres, c.History.Driver)
	}
	if c.Classifier.MaxImagePixels <= 0 {
		return fmt.Errorf("classifier.max_image_pixels must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Model.Path == "" || c.Model.LabelsPath == "" {
		return fmt.Errorf("model.path and model.labels_path are required")
	}
	return nil
}

// ClassifierOptions converts the configuration into classifier options. The loader
// and logger are supplied by the caller.
func (c *Config) ClassifierOptions() (classifier.Options, error) {
	filter, err := classifier.ParseResample(c.Classifier.Resample)
	if err != nil {
		return classifier.Options{}, err
	}
	ink := c.Classifier.InkCheck
	return classifier.Options{
		ModelPath:    c.Model.Path,
		LabelsPath:   c.Model.LabelsPath,
		MappingPath:  c.Model.MappingPath,
		Threshold:    c.Classifier.ConfidenceThreshold,
		Resample:     filter,
		ApplySoftmax: c.Classifier.ApplySoftmax,
		MaxPixels:    c.Classifier.MaxImagePixels,
		InkCheck: classifier.InkCheck{
			Enabled:       ink.Enabled,
			DarkLevel:     ink.DarkLevel,
			MinForeground: ink.MinForeground,
			MaxForeground: ink.MaxForeground,
			MinStdDev:     ink.MinStdDev,
		},
	}, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# mathsym configuration
# Every key can be overridden from the environment, e.g.
#   MATHSYM_CLASSIFIER_CONFIDENCE_THRESHOLD=0.85
# classifier.confidence_threshold must match the threshold the model was evaluated with.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
