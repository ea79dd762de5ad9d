// Package config loads runtime configuration for the orchestration server
// from environment variables and an optional YAML file, layered with
// viper: defaults, then config file, then environment, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries every environment-driven knob the orchestration substrate
// needs: LLM client settings, filesystem roots, server/runtime timeouts,
// and the router's intent-confidence threshold.
type Config struct {
	LLMAPIKey  string `mapstructure:"llm_api_key"`
	LLMModel   string `mapstructure:"llm_model"`
	LLMBaseURL string `mapstructure:"llm_base_url"`

	AllowedBaseDir  string `mapstructure:"allowed_base_dir"`
	ProjectsBaseDir string `mapstructure:"projects_base_dir"`

	ServerAddr string `mapstructure:"server_addr"`

	LLMTimeout        time.Duration `mapstructure:"llm_timeout"`
	SubtaskTimeout    time.Duration `mapstructure:"subtask_timeout"`
	NetworkPlanMaxIter int          `mapstructure:"network_plan_max_iter"`

	IntentThreshold float64 `mapstructure:"intent_threshold"`

	TrackerCacheSize int `mapstructure:"tracker_cache_size"`
}

// Option customizes Load before it reads any source.
type Option func(*viper.Viper)

// WithConfigFile points the loader at an explicit YAML file path.
func WithConfigFile(path string) Option {
	return func(v *viper.Viper) {
		if path != "" {
			v.SetConfigFile(path)
		}
	}
}

// Load builds a Config from defaults, an optional YAML file
// (./taskctl.yaml by default), and environment variables, in that order
// of increasing precedence.
func Load(opts ...Option) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("taskctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	for _, opt := range opts {
		opt(v)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"llm_api_key", "llm_model", "llm_base_url",
		"allowed_base_dir", "projects_base_dir", "server_addr",
		"llm_timeout", "subtask_timeout", "network_plan_max_iter",
		"intent_threshold", "tracker_cache_size",
	} {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}
	_ = v.BindEnv("llm_api_key", "LLM_API_KEY")
	_ = v.BindEnv("llm_model", "LLM_MODEL")
	_ = v.BindEnv("allowed_base_dir", "ALLOWED_BASE_DIR")
	_ = v.BindEnv("projects_base_dir", "PROJECTS_BASE_DIR")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.AllowedBaseDir == "" {
		return Config{}, fmt.Errorf("config: ALLOWED_BASE_DIR is required")
	}
	if cfg.ProjectsBaseDir == "" {
		return Config{}, fmt.Errorf("config: PROJECTS_BASE_DIR is required")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm_model", "gpt-4o-mini")
	v.SetDefault("llm_base_url", "https://api.openai.com/v1")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("llm_timeout", 120*time.Second)
	v.SetDefault("subtask_timeout", 30*time.Second)
	v.SetDefault("network_plan_max_iter", 3)
	v.SetDefault("intent_threshold", 0.1)
	v.SetDefault("tracker_cache_size", 256)
}
