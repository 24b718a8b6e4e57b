// Package config provides configuration management for refineloopd.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultHTTPPort is the default HTTP port for refineloopd.
	DefaultHTTPPort = 37779

	// DefaultTimeoutSec is startSession's default per-command timeout.
	DefaultTimeoutSec = 120

	// DefaultEmaAlpha is startSession's default EMA smoothing factor.
	DefaultEmaAlpha = 0.9

	// configEnvVar, when set, names the config file path to load instead
	// of the default refineloop.yaml in the working directory.
	configEnvVar = "REFINELOOP_CONFIG"

	defaultConfigFile = "refineloop.yaml"
)

// Config holds the process-wide EngineConfig: defaults for every
// startSession parameter, loaded once from YAML and never mutated
// afterward. startSession parameters always override the value loaded
// here for that field.
type Config struct {
	DataDir            string  `yaml:"dataDir"`
	TokenizerModel     string  `yaml:"tokenizerModel"`
	OTelEndpoint       string  `yaml:"otelEndpoint"`
	HTTPPort           int     `yaml:"httpPort"`
	DefaultTimeoutSec  int     `yaml:"defaultTimeoutSec"`
	DefaultMaxSteps    int     `yaml:"defaultMaxSteps"`
	DefaultMinSteps    int     `yaml:"defaultMinSteps"`
	DefaultPatience    int     `yaml:"defaultPatienceNoImprove"`
	DefaultPassThresh  float64 `yaml:"defaultPassThreshold"`
	DefaultEmaAlpha    float64 `yaml:"defaultEmaAlpha"`
	WeightBuild        float64 `yaml:"weightBuild"`
	WeightTest         float64 `yaml:"weightTest"`
	WeightLint         float64 `yaml:"weightLint"`
	WeightPerf         float64 `yaml:"weightPerf"`
	FuzzyWindow        int     `yaml:"fuzzyWindow"`
	FuzzyThreshold     float64 `yaml:"fuzzyThreshold"`
	TokenAuthEnabled   bool    `yaml:"tokenAuthEnabled"`
	TracingEnabled     bool    `yaml:"tracingEnabled"`
	MaxCandidateTokens int     `yaml:"maxCandidateTokens"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// DataDir returns the data directory path (~/.refineloopd).
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".refineloopd")
}

// ConfigPath returns the YAML config file path: $REFINELOOP_CONFIG if
// set, otherwise ./refineloop.yaml in the working directory.
func ConfigPath() string {
	if p := os.Getenv(configEnvVar); p != "" {
		return p
	}
	return defaultConfigFile
}

// EnsureDataDir creates the data directory if it doesn't exist, owner-only.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0700)
}

// EnsureConfig writes a default refineloop.yaml at ConfigPath if none
// exists yet, so a fresh checkout runs with sane values out of the box.
func EnsureConfig() error {
	path := ConfigPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll ensures all required directories and files exist.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureConfig()
}

// Default returns a Config with spec.md §6's default startSession
// values and a local-only HTTP surface.
func Default() *Config {
	return &Config{
		HTTPPort:           DefaultHTTPPort,
		DataDir:            DataDir(),
		TokenizerModel:     "cl100k_base",
		DefaultTimeoutSec:  DefaultTimeoutSec,
		DefaultMaxSteps:    12,
		DefaultMinSteps:    1,
		DefaultPatience:    3,
		DefaultPassThresh:  0.95,
		DefaultEmaAlpha:    DefaultEmaAlpha,
		WeightBuild:        0.3,
		WeightTest:         0.5,
		WeightLint:         0.1,
		WeightPerf:         0.1,
		FuzzyWindow:        5,
		FuzzyThreshold:     0.70,
		TokenAuthEnabled:   false,
		TracingEnabled:     false,
		MaxCandidateTokens: 20000,
	}
}

// Load loads configuration from ConfigPath, merging with defaults. A
// missing or unparseable file yields the defaults rather than an
// error, so a fresh install runs out of the box; a present but
// partial file only overrides the fields it sets (zero-value fields
// in the YAML are treated as "not set").
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, nil
	}
	mergeNonZero(cfg, &raw.Config)
	if raw.TokenAuthEnabled != nil {
		cfg.TokenAuthEnabled = *raw.TokenAuthEnabled
	}
	if raw.TracingEnabled != nil {
		cfg.TracingEnabled = *raw.TracingEnabled
	}
	return cfg, nil
}

// rawConfig mirrors Config but unmarshals the two boolean fields as
// pointers, so an absent key in the YAML file can be told apart from
// an explicit `false`.
type rawConfig struct {
	Config           `yaml:",inline"`
	TokenAuthEnabled *bool `yaml:"tokenAuthEnabled"`
	TracingEnabled   *bool `yaml:"tracingEnabled"`
}

// mergeNonZero copies every non-zero-valued field of override onto
// cfg, leaving cfg's defaults in place for fields the file omitted.
func mergeNonZero(cfg, override *Config) {
	if override.DataDir != "" {
		cfg.DataDir = override.DataDir
	}
	if override.TokenizerModel != "" {
		cfg.TokenizerModel = override.TokenizerModel
	}
	if override.OTelEndpoint != "" {
		cfg.OTelEndpoint = override.OTelEndpoint
	}
	if override.HTTPPort != 0 {
		cfg.HTTPPort = override.HTTPPort
	}
	if override.DefaultTimeoutSec != 0 {
		cfg.DefaultTimeoutSec = override.DefaultTimeoutSec
	}
	if override.DefaultMaxSteps != 0 {
		cfg.DefaultMaxSteps = override.DefaultMaxSteps
	}
	if override.DefaultMinSteps != 0 {
		cfg.DefaultMinSteps = override.DefaultMinSteps
	}
	if override.DefaultPatience != 0 {
		cfg.DefaultPatience = override.DefaultPatience
	}
	if override.DefaultPassThresh != 0 {
		cfg.DefaultPassThresh = override.DefaultPassThresh
	}
	if override.DefaultEmaAlpha != 0 {
		cfg.DefaultEmaAlpha = override.DefaultEmaAlpha
	}
	if override.WeightBuild != 0 {
		cfg.WeightBuild = override.WeightBuild
	}
	if override.WeightTest != 0 {
		cfg.WeightTest = override.WeightTest
	}
	if override.WeightLint != 0 {
		cfg.WeightLint = override.WeightLint
	}
	if override.WeightPerf != 0 {
		cfg.WeightPerf = override.WeightPerf
	}
	if override.FuzzyWindow != 0 {
		cfg.FuzzyWindow = override.FuzzyWindow
	}
	if override.FuzzyThreshold != 0 {
		cfg.FuzzyThreshold = override.FuzzyThreshold
	}
	if override.MaxCandidateTokens != 0 {
		cfg.MaxCandidateTokens = override.MaxCandidateTokens
	}
}

// Get returns the global configuration, loading it once and caching it.
func Get() *Config {
	configOnce.Do(func() {
		var err error
		globalConfig, err = Load()
		if err != nil {
			globalConfig = Default()
		}
	})
	return globalConfig
}
