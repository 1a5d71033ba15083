package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "hvexport/internal/errors"
)

const (
	// EnvPrefix namespaces every environment variable, e.g. HVX_PIPELINE_WORKERS.
	EnvPrefix = "HVX"
	// ConfigFileEnv names the variable holding the optional YAML config path.
	ConfigFileEnv = "HVX_CONFIG_FILE"
)

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format    string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output    string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath  string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
	AddSource bool   `yaml:"add_source" envconfig:"ADD_SOURCE"`
}

// PipelineConfig controls the worker pool.
type PipelineConfig struct {
	// Workers is the pool size; 0 means one per CPU.
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
	// TaskTimeout bounds a single file conversion; 0 disables the timeout.
	TaskTimeout time.Duration `yaml:"task_timeout" envconfig:"TASK_TIMEOUT" validate:"gte=0"`
	Shuffle     bool          `yaml:"shuffle" envconfig:"SHUFFLE"`
	// Seed makes the shuffle reproducible; 0 picks a random seed.
	Seed       uint64 `yaml:"seed" envconfig:"SEED"`
	KeepInputs bool   `yaml:"keep_inputs" envconfig:"KEEP_INPUTS"`
}

// OutputConfig selects the sink and chart layout.
type OutputConfig struct {
	Format           string `yaml:"format" envconfig:"FORMAT" validate:"oneof=xlsx csv"`
	ChartSeriesLimit int    `yaml:"chart_series_limit" envconfig:"CHART_SERIES_LIMIT" validate:"gte=1,lte=255"`
	ChartSpacing     int    `yaml:"chart_spacing" envconfig:"CHART_SPACING" validate:"gte=1"`
	ChartWidth       uint   `yaml:"chart_width" envconfig:"CHART_WIDTH" validate:"gte=1"`
	ChartHeight      uint   `yaml:"chart_height" envconfig:"CHART_HEIGHT" validate:"gte=1"`
}

// MetricsConfig contains observability configuration
type MetricsConfig struct {
	Exporter      string `yaml:"exporter" envconfig:"EXPORTER" validate:"oneof=prometheus none"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	// StatusAddr enables the status server when non-empty, e.g. ":9091".
	StatusAddr string `yaml:"status_addr" envconfig:"STATUS_ADDR" validate:"omitempty,hostname_port"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/hvexport.log",
		},
		Pipeline: PipelineConfig{
			Workers:     0,
			TaskTimeout: 10 * time.Minute,
			Shuffle:     true,
			KeepInputs:  true,
		},
		Output: OutputConfig{
			Format:           "xlsx",
			ChartSeriesLimit: 250,
			ChartSpacing:     60,
			ChartWidth:       1800,
			ChartHeight:      900,
		},
		Metrics: MetricsConfig{
			Exporter:      "none",
			TraceExporter: "none",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (or the
// one named by HVX_CONFIG_FILE when path is empty), then HVX_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).WithContext("path", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

var validate = validator.New()

// Validate checks every field constraint and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewConfigError("config validation failed", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return apperrors.NewConfigError("config validation failed: "+strings.Join(msgs, "; "), err)
}
