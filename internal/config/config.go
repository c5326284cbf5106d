package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Leads      LeadsConfig      `yaml:"leads" mapstructure:"leads"`
	Research   ResearchConfig   `yaml:"research" mapstructure:"research"`
	Flow       FlowConfig       `yaml:"flow" mapstructure:"flow"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the session-state backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// LeadsConfig holds the lead-generation endpoint settings.
type LeadsConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ResearchConfig selects and paces the research providers.
type ResearchConfig struct {
	// Providers lists enabled provider names; empty means all configured.
	Providers []string `yaml:"providers" mapstructure:"providers"`
	// RatePerSecond caps each provider's request rate.
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	// TimeoutSecs bounds one full research fan-out.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FlowConfig tunes the question-flow timing.
type FlowConfig struct {
	DebounceMillis     int `yaml:"debounce_millis" mapstructure:"debounce_millis"`
	SessionTimeoutMins int `yaml:"session_timeout_mins" mapstructure:"session_timeout_mins"`
}

// DebounceWindow returns the debounce as a duration.
func (f FlowConfig) DebounceWindow() time.Duration {
	return time.Duration(f.DebounceMillis) * time.Millisecond
}

// SessionTimeout returns the session expiry as a duration.
func (f FlowConfig) SessionTimeout() time.Duration {
	return time.Duration(f.SessionTimeoutMins) * time.Minute
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	// ExperimentalBindStruct matches viper >= 1.21 default behavior: Unmarshal
	// sees LIGHTNING_* env vars even for keys without defaults or file entries.
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LIGHTNING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "lightning.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/models")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("research.rate_per_second", 2.0)
	v.SetDefault("research.timeout_secs", 120)
	v.SetDefault("flow.debounce_millis", 1000)
	v.SetDefault("flow.session_timeout_mins", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration can support the given mode.
// Modes: "serve" (HTTP server) and "chat" (interactive terminal session).
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite driver")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not one of postgres, sqlite, memory", c.Store.Driver))
	}

	if c.Perplexity.Key == "" && c.Gemini.Key == "" && c.OpenAI.Key == "" {
		problems = append(problems, "at least one research provider key is required (perplexity.key, gemini.key, or openai.key)")
	}

	if mode == "serve" {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
