package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	envConfigPath        = "CHATHUB_CONFIG"
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envTelegramAllowFrom = "TELEGRAM_ALLOW_FROM"
	envGeminiAPIKey      = "GEMINI_API_KEY"
)

const (
	DefaultReplyDelayMillis      = 800
	DefaultWeatherDelayMillis    = 1000
	DefaultDictionaryBaseURL     = "https://api.dictionaryapi.dev/api/v2/entries/en"
	DefaultGeminiModel           = "gemini-2.0-flash"
	DefaultRequestTimeoutSeconds = 30
	DefaultGatewayHost           = "127.0.0.1"
	DefaultGatewayPort           = 18790
	DefaultStorageBackend        = "file"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Chat     ChatConfig     `json:"chat"`
	Storage  StorageConfig  `json:"storage"`
	Plugins  PluginsConfig  `json:"plugins"`
	Channels ChannelsConfig `json:"channels"`
	Gateway  GatewayConfig  `json:"gateway"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
	// File redirects log output away from stderr, which the terminal UI owns.
	File string `json:"file,omitempty"`
}

// ChatConfig tunes the conversation orchestrator.
type ChatConfig struct {
	// ReplyDelayMillis is the fixed pause before every assistant reply.
	// Negative values disable the pause.
	ReplyDelayMillis int `json:"reply_delay_ms"`
}

// StorageConfig selects the durable key/value backend.
type StorageConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// PluginsConfig stores per-plugin settings for the built-in set.
type PluginsConfig struct {
	Weather    WeatherPluginConfig    `json:"weather"`
	Dictionary DictionaryPluginConfig `json:"dictionary"`
	Gemini     GeminiPluginConfig     `json:"gemini"`
}

// WeatherPluginConfig configures the simulated weather lookup.
type WeatherPluginConfig struct {
	SimulatedDelayMillis int `json:"simulated_delay_ms"`
}

// DictionaryPluginConfig configures the dictionary API client.
type DictionaryPluginConfig struct {
	BaseURL               string `json:"base_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// GeminiPluginConfig configures the Gemini generateContent client.
type GeminiPluginConfig struct {
	BaseURL               string `json:"base_url"`
	Model                 string `json:"model"`
	APIKeyEnv             string `json:"api_key_env"`
	DefaultAPIKey         string `json:"default_api_key,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// ChannelsConfig stores transport adapter settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

// TelegramConfig configures Telegram channel integration.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allow_from"`
}

// GatewayConfig configures HTTP gateway bind settings.
type GatewayConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// Default returns the configuration used when no config.json is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig resolves config.json, unmarshals it, and applies environment overrides.
//
// A missing config file is not an error: defaults are used instead.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		if errors.Is(err, errConfigNotFound) {
			cfg := Default()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Chat.ReplyDelayMillis == 0 {
		cfg.Chat.ReplyDelayMillis = DefaultReplyDelayMillis
	}
	if strings.TrimSpace(cfg.Storage.Backend) == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Plugins.Weather.SimulatedDelayMillis == 0 {
		cfg.Plugins.Weather.SimulatedDelayMillis = DefaultWeatherDelayMillis
	}
	if strings.TrimSpace(cfg.Plugins.Dictionary.BaseURL) == "" {
		cfg.Plugins.Dictionary.BaseURL = DefaultDictionaryBaseURL
	}
	if cfg.Plugins.Dictionary.RequestTimeoutSeconds <= 0 {
		cfg.Plugins.Dictionary.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if strings.TrimSpace(cfg.Plugins.Gemini.Model) == "" {
		cfg.Plugins.Gemini.Model = DefaultGeminiModel
	}
	if cfg.Plugins.Gemini.RequestTimeoutSeconds <= 0 {
		cfg.Plugins.Gemini.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if strings.TrimSpace(cfg.Gateway.Host) == "" {
		cfg.Gateway.Host = DefaultGatewayHost
	}
	if cfg.Gateway.Port <= 0 {
		cfg.Gateway.Port = DefaultGatewayPort
	}
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Channels.Telegram.Token = token
	}

	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllowFrom)); rawAllowFrom != "" {
		cfg.Channels.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}

	keyEnv := strings.TrimSpace(cfg.Plugins.Gemini.APIKeyEnv)
	if keyEnv == "" {
		keyEnv = envGeminiAPIKey
	}
	if key := strings.TrimSpace(os.Getenv(keyEnv)); key != "" {
		cfg.Plugins.Gemini.DefaultAPIKey = key
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

var errConfigNotFound = errors.New("config.json not found")

// findConfigPath resolves the active config file location.
//
// Precedence is CHATHUB_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", errConfigNotFound
}
