// Package config loads egraphx settings: built-in defaults, then an optional
// YAML file, then EGRAPHX_* environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/egraphx/extractors"
	"github.com/katalvlaran/egraphx/greedy"
	"github.com/katalvlaran/egraphx/ilp"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "EGRAPHX_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the full settings tree.
type Config struct {
	Extractor string         `koanf:"extractor"`
	ILP       ILPConfig      `koanf:"ilp"`
	Greedy    GreedyConfig   `koanf:"greedy"`
	BottomUp  BottomUpConfig `koanf:"bottomup"`
	Log       LogConfig      `koanf:"log"`
}

// ILPConfig tunes the integer-program strategies.
type ILPConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Backend string        `koanf:"backend"`
}

// GreedyConfig tunes the greedy DAG strategy.
type GreedyConfig struct {
	MaxRounds int    `koanf:"max_rounds"`
	Baseline  string `koanf:"baseline"`
}

// BottomUpConfig tunes the sweep strategy.
type BottomUpConfig struct {
	Workers int `koanf:"workers"`
}

// LogConfig selects the log level and encoder.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads defaults, the YAML file at path (skipped when path is empty),
// and the environment, then validates the result.
//
// Environment variables drop the EGRAPHX_ prefix, are lowercased and split on
// the first underscore:
//
//	EGRAPHX_EXTRACTOR         -> extractor
//	EGRAPHX_ILP_TIMEOUT       -> ilp.timeout
//	EGRAPHX_GREEDY_MAX_ROUNDS -> greedy.max_rounds
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1) Defaults.
	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2) File.
	if path != "" {
		content, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3) Environment.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: built-in defaults: %v", err))
	}

	return cfg
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return content, nil
}

// envKey maps EGRAPHX_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}

	return parts[0] + "." + parts[1]
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c.Extractor == "" {
		return fmt.Errorf("%w: extractor is empty", ErrInvalid)
	}
	if c.ILP.Timeout < 0 {
		return fmt.Errorf("%w: ilp.timeout %v is negative", ErrInvalid, c.ILP.Timeout)
	}
	if _, err := ilp.ParseBackend(c.ILP.Backend); err != nil {
		return fmt.Errorf("%w: ilp.backend: %v", ErrInvalid, err)
	}
	if c.Greedy.MaxRounds < 0 {
		return fmt.Errorf("%w: greedy.max_rounds %d is negative", ErrInvalid, c.Greedy.MaxRounds)
	}
	if _, err := greedy.ParseBaseline(c.Greedy.Baseline); err != nil {
		return fmt.Errorf("%w: greedy.baseline: %v", ErrInvalid, err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("%w: log.format %q (want json or console)", ErrInvalid, c.Log.Format)
	}

	return nil
}

// Settings converts the strategy sections for extractors.New.
// c must have passed Validate.
func (c *Config) Settings() extractors.Settings {
	backend, _ := ilp.ParseBackend(c.ILP.Backend)
	baseline, _ := greedy.ParseBaseline(c.Greedy.Baseline)

	return extractors.Settings{
		ILPTimeout:      c.ILP.Timeout,
		ILPBackend:      backend,
		GreedyMaxRounds: c.Greedy.MaxRounds,
		GreedyBaseline:  baseline,
		BottomUpWorkers: c.BottomUp.Workers,
	}
}
