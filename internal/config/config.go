// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath  = "config.toml"
	DefaultHTTPAddr    = ":8080"
	DefaultOCRRegion   = "us"
	DefaultLLMBaseURL  = "https://api.openai.com/v1"
	DefaultLLMModel    = "gpt-4o-mini"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultOCREndpoint = "https://ocr.%s.cloudvision.example.com/v1/recognize"
)

type Config struct {
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
	Slack  SlackConfig  `toml:"slack"`
	OCR    OCRConfig    `toml:"ocr"`
	LLM    LLMConfig    `toml:"llm"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr" validate:"required"`
}

type SlackConfig struct {
	SigningSecret string `toml:"signing_secret" validate:"required"`
	BotToken      string `toml:"bot_token" validate:"required"`
}

type OCRConfig struct {
	Endpoint string `toml:"endpoint" validate:"required,url"`
	APIKey   string `toml:"api_key" validate:"required"`
	Secret   string `toml:"secret" validate:"required"`
	Region   string `toml:"region"`
}

type LLMConfig struct {
	BaseURL string `toml:"base_url" validate:"required,url"`
	APIKey  string `toml:"api_key" validate:"required"`
	Model   string `toml:"model" validate:"required"`
}

// Load reads the TOML config at path, applies defaults and environment
// overrides, and returns the result. A missing file is not an error;
// defaults plus environment overrides are used as-is.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		OCR: OCRConfig{
			Region: DefaultOCRRegion,
		},
		LLM: LLMConfig{
			BaseURL: DefaultLLMBaseURL,
			Model:   DefaultLLMModel,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	applyEnvOverrides(&cfg)

	if cfg.OCR.Endpoint == "" {
		cfg.OCR.Endpoint = fmt.Sprintf(DefaultOCREndpoint, cfg.OCR.Region)
	}

	return cfg, nil
}

// Validate checks that all required settings are present.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets secrets come from the environment so they never
// have to live in the config file.
func applyEnvOverrides(cfg *Config) {
	envMap := map[string]*string{
		"SLACK_SIGNING_SECRET": &cfg.Slack.SigningSecret,
		"SLACK_BOT_TOKEN":      &cfg.Slack.BotToken,
		"OCR_ENDPOINT":         &cfg.OCR.Endpoint,
		"OCR_API_KEY":          &cfg.OCR.APIKey,
		"OCR_SECRET":           &cfg.OCR.Secret,
		"OCR_REGION":           &cfg.OCR.Region,
		"LLM_BASE_URL":         &cfg.LLM.BaseURL,
		"LLM_API_KEY":          &cfg.LLM.APIKey,
		"LLM_MODEL":            &cfg.LLM.Model,
		"LISTEN_ADDR":          &cfg.Server.Addr,
	}

	for env, ptr := range envMap {
		if val := os.Getenv(env); val != "" {
			*ptr = val
		}
	}
}
