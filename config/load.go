// Package config holds solver parameters and the file/environment configuration used by the CLIs.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the environment variable prefix, e.g. BONDLIB_SOLVER_MAX_ITERATIONS.
const EnvPrefix = "BONDLIB"

// Config is the full tool configuration.
type Config struct {
	Solver  Solver        `yaml:"solver" envconfig:"SOLVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout stderr file"`
	// FilePath is used when Output is "file".
	FilePath  string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_if=Output file"`
	AddSource bool   `yaml:"add_source" envconfig:"ADD_SOURCE"`
}

// OutputConfig controls the curve grid written by the CLIs.
type OutputConfig struct {
	MaxMaturity float64 `yaml:"max_maturity" envconfig:"MAX_MATURITY" validate:"gt=0"`
	Points      int     `yaml:"points" envconfig:"POINTS" validate:"gte=2"`
	Decimals    int32   `yaml:"decimals" envconfig:"DECIMALS" validate:"gte=0,lte=12"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Solver: DefaultSolver,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Output: OutputConfig{
			MaxMaturity: 30,
			Points:      100,
			Decimals:    6,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (skipped when path is
// empty), then BONDLIB_* environment variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	return NewValidator().Struct(c)
}

// NewValidator returns a validator that reports yaml field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"yaml", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}
