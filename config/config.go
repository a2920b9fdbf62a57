// Package config handles configuration loading and validation.
package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/nvr-ai/voc-reval/reval"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults mirrored by the CLI flags.
const (
	DefaultVOCDir   = "datasets/voc/VOCdevkit"
	DefaultYear     = 2007
	DefaultImageSet = "test"
	DefaultClasses  = "data/voc.names"
	DefaultWorkers  = 1
	DefaultLogLevel = "info"
)

// Config holds all run configuration.
//
// Precedence, lowest first: defaults, YAML file, .env file, environment, CLI flags.
type Config struct {
	// Results directory: per-class detections in, PR artifacts out.
	OutputDir string `envconfig:"REVAL_OUTPUT_DIR" yaml:"output_dir" validate:"required"`

	// Dataset configuration
	VOCDir   string `envconfig:"REVAL_VOC_DIR"   yaml:"voc_dir"   validate:"required"`
	Year     int    `envconfig:"REVAL_YEAR"      yaml:"year"      validate:"min=1900,max=9999"`
	ImageSet string `envconfig:"REVAL_IMAGE_SET" yaml:"image_set" validate:"required"`
	Classes  string `envconfig:"REVAL_CLASSES"   yaml:"classes"   validate:"required"`

	// Evaluation
	GIoU    bool `envconfig:"REVAL_GIOU_METRIC" yaml:"giou_metric"`
	Workers int  `envconfig:"REVAL_WORKERS"     yaml:"workers"     validate:"min=1,max=256"`

	// Output
	Summary  bool   `envconfig:"REVAL_SUMMARY"   yaml:"summary"`
	LogLevel string `envconfig:"REVAL_LOG_LEVEL" yaml:"log_level" validate:"oneof=trace debug info warn warning error"`
	LogFile  string `envconfig:"REVAL_LOG_FILE"  yaml:"log_file"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		VOCDir:   DefaultVOCDir,
		Year:     DefaultYear,
		ImageSet: DefaultImageSet,
		Classes:  DefaultClasses,
		Workers:  DefaultWorkers,
		Summary:  true,
		LogLevel: DefaultLogLevel,
	}
}

// Load builds a configuration from defaults, an optional YAML file, an optional .env
// file and the environment. A missing .env file is not an error; a missing YAML file is.
func Load(configPath, envFile string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, errors.Wrapf(err, "load config file %s", configPath)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "load env file %s", envFile)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, errors.Wrap(err, "load config from environment")
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(reval.ErrConfiguration, err.Error())
	}
	return nil
}

// Options converts the configuration into sweep options.
func (c *Config) Options() reval.Options {
	return reval.Options{
		OutputDir: c.OutputDir,
		ClassFile: c.Classes,
		DevkitDir: c.VOCDir,
		Year:      c.Year,
		ImageSet:  c.ImageSet,
		UseGIoU:   c.GIoU,
		Workers:   c.Workers,
	}
}
