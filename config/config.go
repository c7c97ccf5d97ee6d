// Package config loads the frontend settings from an optional YAML file and
// the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
)

// DefaultPath is read when CONFIG_PATH is not set.
const DefaultPath = "./jtalk.yaml"

// Config is the root configuration.
type Config struct {
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Estimator  EstimatorConfig  `yaml:"estimator"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// DictionaryConfig says where the base and user dictionaries come from.
type DictionaryConfig struct {
	Dir      string `yaml:"dir"       env:"OPEN_JTALK_DICT_DIR"`
	URL      string `yaml:"url"       env:"JTALK_DICT_URL"`
	CacheDir string `yaml:"cache_dir" env:"JTALK_DICT_CACHE_DIR"`
	Builtin  string `yaml:"builtin"   env:"JTALK_BUILTIN_DICT"   env-default:"ipa"`
	UserDict string `yaml:"user_dict" env:"JTALK_USER_DICT"`
}

// EstimatorConfig configures the remote accent model. An empty URL leaves
// accents rule-based.
type EstimatorConfig struct {
	URL     string        `yaml:"url"     env:"JTALK_ESTIMATOR_URL"`
	RPS     float64       `yaml:"rps"     env:"JTALK_ESTIMATOR_RPS"     env-default:"20"`
	Timeout time.Duration `yaml:"timeout" env:"JTALK_ESTIMATOR_TIMEOUT" env-default:"5s"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"JTALK_ADDR"             env-default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"JTALK_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxTextLength   int           `yaml:"max_text_length"  env:"JTALK_MAX_TEXT_LENGTH"  env-default:"4096"`
}

// LogConfig holds logging settings. DumpDir, when set, receives a JSON dump
// of every frontend result.
type LogConfig struct {
	Level   string `yaml:"level"    env:"LOG_LEVEL"      env-default:"info"`
	Format  string `yaml:"format"   env:"LOG_FORMAT"     env-default:"console"`
	DumpDir string `yaml:"dump_dir" env:"JTALK_DUMP_DIR"`
}

// Load reads the configuration. Priority: ENV > YAML > env-default tags.
// The YAML path comes from CONFIG_PATH (fallback DefaultPath); a missing
// file is an error only when CONFIG_PATH names it explicitly.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"ipa", "uni"}, c.Dictionary.Builtin) {
		return fmt.Errorf("dictionary.builtin must be ipa or uni (got %q)", c.Dictionary.Builtin)
	}
	if c.Estimator.RPS < 0 {
		return fmt.Errorf("estimator.rps must be >= 0 (got %v)", c.Estimator.RPS)
	}
	if c.Estimator.Timeout <= 0 {
		return fmt.Errorf("estimator.timeout must be > 0 (got %v)", c.Estimator.Timeout)
	}
	if c.Server.MaxTextLength <= 0 {
		return fmt.Errorf("server.max_text_length must be > 0 (got %d)", c.Server.MaxTextLength)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if !slices.Contains([]string{"console", "json"}, c.Log.Format) {
		return fmt.Errorf("log.format must be console or json (got %q)", c.Log.Format)
	}
	return nil
}
