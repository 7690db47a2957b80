// Package config loads clint configuration from file, environment,
// and defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full clint configuration.
type Config struct {
	AI      AIConfig      `yaml:"ai" mapstructure:"ai"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Checks  ChecksConfig  `yaml:"checks" mapstructure:"checks"`
}

// AIConfig controls the model-backed analysis layer.
type AIConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	APIKey  string `yaml:"apiKey" mapstructure:"apiKey"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// HistoryConfig controls the local analysis history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// ChecksConfig tunes the rule checks. MfgOverrides replaces built-in
// manufacturing constraints by name, e.g. min_trace_width_mm: 0.2 for
// a fab with looser capabilities.
type ChecksConfig struct {
	MfgOverrides map[string]float64 `yaml:"mfgOverrides" mapstructure:"mfgOverrides"`
}

// DefaultConfig returns the built-in defaults. History lives under the
// user config directory.
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			Enabled: false,
			Model:   "gpt-4o",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

func defaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "clint-history.db"
	}
	return filepath.Join(dir, "clint", "history.db")
}

// Load reads configuration from an optional explicit file, or from
// clint.yaml in the working and user config directories, merged over
// the defaults. CLINT_* environment variables override file values,
// e.g. CLINT_AI_APIKEY.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("ai.enabled", def.AI.Enabled)
	v.SetDefault("ai.apiKey", def.AI.APIKey)
	v.SetDefault("ai.model", def.AI.Model)
	v.SetDefault("history.enabled", def.History.Enabled)
	v.SetDefault("history.path", def.History.Path)
	v.SetDefault("output.format", def.Output.Format)

	v.SetEnvPrefix("CLINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("clint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "clint"))
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// OPENAI_API_KEY works as a fallback for the common case.
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &cfg, nil
}
