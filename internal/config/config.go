// Package config provides configuration management for the orchestration
// engine: engine tunables, provider credentials, and the mode registry seed,
// loaded from a YAML file and environment variables via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EngineConfig controls the engine's scheduling and provider wiring.
type EngineConfig struct {
	// MaxWorkers is the maximum number of tasks executing concurrently.
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers"`

	// DefaultMode is the mode name used when Submit is called without one.
	DefaultMode string `mapstructure:"default_mode" yaml:"default_mode"`

	// ModesFile optionally points at a YAML file of mode overrides, loaded
	// via modes.LoadOverrides on top of the builtin four modes.
	ModesFile string `mapstructure:"modes_file" yaml:"modes_file"`

	Cloud CloudConfig `mapstructure:"cloud" yaml:"cloud"`
	Local LocalConfig `mapstructure:"local" yaml:"local"`
}

// CloudConfig configures the cloud provider adapter.
type CloudConfig struct {
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs" yaml:"timeout_secs"`
}

// LocalConfig configures the local (Ollama-compatible) provider adapter.
type LocalConfig struct {
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSecs int    `mapstructure:"timeout_secs" yaml:"timeout_secs"`
}

// Default returns the engine's built-in defaults, applied before any config
// file or environment variable is read.
func Default() *EngineConfig {
	return &EngineConfig{
		MaxWorkers:  4,
		DefaultMode: "QUALITY",
		Cloud: CloudConfig{
			TimeoutSecs: 120,
		},
		Local: LocalConfig{
			BaseURL:     "http://localhost:11434/v1",
			TimeoutSecs: 120,
		},
	}
}

// Load reads engine configuration from cfgFile (if non-empty), ".orcengine/"
// and "$HOME/.orcengine/" otherwise, overlaid with ORC_ENGINE_-prefixed
// environment variables.
func Load(cfgFile string) (*EngineConfig, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("max_workers", def.MaxWorkers)
	v.SetDefault("default_mode", def.DefaultMode)
	v.SetDefault("modes_file", def.ModesFile)
	v.SetDefault("cloud.api_key", def.Cloud.APIKey)
	v.SetDefault("cloud.base_url", def.Cloud.BaseURL)
	v.SetDefault("cloud.timeout_secs", def.Cloud.TimeoutSecs)
	v.SetDefault("local.base_url", def.Local.BaseURL)
	v.SetDefault("local.timeout_secs", def.Local.TimeoutSecs)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".orcengine")
		v.AddConfigPath("$HOME/.orcengine")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("ORC_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is not an error: engine defaults plus
	// environment variables are a complete configuration on their own,
	// matching the teacher's best-effort initConfig.
	_ = v.ReadInConfig()

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
