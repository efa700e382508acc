// Package config loads crimescope settings from defaults, a YAML file, the
// environment and a .env file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/training"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. CRIMESCOPE_DATA_PATH.
const EnvPrefix = "CRIMESCOPE"

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "crimescope.yaml"

// Config holds every setting.
type Config struct {
	DataPath         string  `mapstructure:"data_path" yaml:"data_path"`
	ModelPath        string  `mapstructure:"model_path" yaml:"model_path"`
	PreprocessorPath string  `mapstructure:"preprocessor_path" yaml:"preprocessor_path"`
	RandomState      int64   `mapstructure:"random_state" yaml:"random_state"`
	TestSize         float64 `mapstructure:"test_size" yaml:"test_size"`
	CVFolds          int     `mapstructure:"cv_folds" yaml:"cv_folds"`
	Workers          int     `mapstructure:"workers" yaml:"workers"`
	LogLevel         string  `mapstructure:"log_level" yaml:"log_level"`
	LogFormat        string  `mapstructure:"log_format" yaml:"log_format"`
	ListenAddr       string  `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DataPath:         dataset.DefaultPath,
		ModelPath:        training.DefaultModelPath,
		PreprocessorPath: training.DefaultPreprocessorPath,
		RandomState:      42,
		TestSize:         0.44,
		CVFolds:          5,
		Workers:          0,
		LogLevel:         "info",
		LogFormat:        "console",
		ListenAddr:       ":8501",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("data_path", d.DataPath)
	v.SetDefault("model_path", d.ModelPath)
	v.SetDefault("preprocessor_path", d.PreprocessorPath)
	v.SetDefault("random_state", d.RandomState)
	v.SetDefault("test_size", d.TestSize)
	v.SetDefault("cv_folds", d.CVFolds)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("listen_addr", d.ListenAddr)
}

// Load resolves the configuration. Precedence: env > config file > defaults;
// command-line flags are applied by the caller on top. An empty cfgFile looks
// for crimescope.yaml in the working directory and tolerates its absence. A
// .env file in the working directory is loaded first when present; variables
// already set in the environment win over it.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultFile, filepath.Ext(DefaultFile)))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return errors.NewValidationError("test_size", "must be in (0, 1)", c.TestSize)
	}
	if c.CVFolds < 2 {
		return errors.NewValidationError("cv_folds", "must be at least 2", c.CVFolds)
	}
	if c.Workers < 0 {
		return errors.NewValidationError("workers", "must not be negative", c.Workers)
	}
	return nil
}

// RunConfig maps the settings onto a training run.
func (c *Config) RunConfig() training.RunConfig {
	return training.RunConfig{
		DataPath:         c.DataPath,
		ModelPath:        c.ModelPath,
		PreprocessorPath: c.PreprocessorPath,
		RandomState:      c.RandomState,
		TestSize:         c.TestSize,
		CVFolds:          c.CVFolds,
		Workers:          c.Workers,
	}
}

// WriteDefault writes the default configuration as YAML to path. An existing
// file is kept unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.Newf("config file %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "mkdir %s", dir)
		}
	}
	b, err := yaml.Marshal(Default())
	if err != nil {
		return errors.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}
