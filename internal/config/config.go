package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	// ConfigEnvVar overrides the default config file location.
	ConfigEnvVar = "ORGANIZER_CONFIG"

	defaultConfigPath = "~/.config/fs-organizer/config.toml"

	// MaxBatchSize caps how many items go to the oracle in one request.
	MaxBatchSize = 100
)

// Config holds all configuration for the application.
type Config struct {
	LLMBaseURL     string `toml:"llm_base_url"`
	LLMModelName   string `toml:"llm_model"`
	LLMAPIKey      string `toml:"llm_api_key"`
	LLMTimeoutSecs int    `toml:"llm_timeout_seconds"`
	LLMMaxRetries  int    `toml:"llm_max_retries"`

	BatchSize          int `toml:"batch_size"`
	Workers            int `toml:"workers"`
	MaxDepth           int `toml:"max_depth"`
	ExtractTimeoutSecs int `toml:"extract_timeout_seconds"`
	PreviewChars       int `toml:"preview_chars"`

	APIPort   string `toml:"api_port"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // Empty picks text on a terminal, json otherwise
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLMBaseURL:         "http://localhost:8080",
		LLMModelName:       "Llama-3.1-8B-Instruct",
		LLMAPIKey:          "dummy-key",
		LLMTimeoutSecs:     60,
		LLMMaxRetries:      3,
		BatchSize:          10,
		Workers:            10,
		MaxDepth:           1,
		ExtractTimeoutSecs: 5,
		PreviewChars:       500,
		APIPort:            "9000",
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, an optional TOML file, a .env
// file, and the process environment, in increasing order of precedence.
// An empty path falls back to ORGANIZER_CONFIG and then the default location.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigEnvVar)
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	loadDotEnv()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	resolved, err := ExpandPath(path)
	if err != nil {
		return err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", resolved, err)
	}
	return nil
}

// loadDotEnv loads the nearest .env file, checking the current directory
// first and then walking up a few parents. Variables already set win.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}

func (c *Config) applyEnv() error {
	c.LLMBaseURL = getEnv("LLM_BASE_URL", c.LLMBaseURL)
	c.LLMModelName = getEnv("LLM_MODEL", c.LLMModelName)
	c.LLMAPIKey = getEnv("LLM_API_KEY", c.LLMAPIKey)
	c.APIPort = getEnv("API_PORT", c.APIPort)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	ints := []struct {
		key    string
		target *int
	}{
		{"LLM_TIMEOUT_SECONDS", &c.LLMTimeoutSecs},
		{"LLM_MAX_RETRIES", &c.LLMMaxRetries},
		{"BATCH_SIZE", &c.BatchSize},
		{"WORKERS", &c.Workers},
		{"MAX_DEPTH", &c.MaxDepth},
		{"EXTRACT_TIMEOUT_SECONDS", &c.ExtractTimeoutSecs},
		{"PREVIEW_CHARS", &c.PreviewChars},
	}
	for _, entry := range ints {
		raw := os.Getenv(entry.key)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be a valid integer: %w", entry.key, err)
		}
		*entry.target = value
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLMBaseURL) == "" {
		return fmt.Errorf("LLM_BASE_URL is required")
	}
	if strings.TrimSpace(c.LLMModelName) == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("BATCH_SIZE must be between 1 and %d, got %d", MaxBatchSize, c.BatchSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be greater than 0")
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("MAX_DEPTH must be greater than 0")
	}
	if c.LLMTimeoutSecs < 1 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must not be negative")
	}
	if c.ExtractTimeoutSecs < 1 {
		return fmt.Errorf("EXTRACT_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.PreviewChars < 1 {
		return fmt.Errorf("PREVIEW_CHARS must be greater than 0")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	switch c.LogFormat {
	case "", "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}
	return nil
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
