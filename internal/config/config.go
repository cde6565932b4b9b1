// ABOUTME: Configuration loader for the samar-blogs client
// ABOUTME: Merges flag, environment, .env, config.yaml and defaults in priority order

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ProductionAPIURL is the hosted backend used when BLOG_ENV=production
	ProductionAPIURL = "https://capstone-week-6-day-7-backend.onrender.com"
	// DevelopmentAPIURL is the local backend used otherwise
	DevelopmentAPIURL = "http://localhost:5000"

	appName        = "samar-blogs"
	configFileName = "config.yaml"
)

type Config struct {
	APIURL         string
	Environment    string // production or development (default: development)
	ConfigDir      string
	RateLimit      float64 // requests per second, 0 disables client-side throttling
	RateBurst      int
	TimeoutSeconds int
}

// fileConfig mirrors config.yaml in the config directory
type fileConfig struct {
	APIURL         string  `yaml:"api_url"`
	Environment    string  `yaml:"environment"`
	RateLimit      float64 `yaml:"rate_limit"`
	RateBurst      int     `yaml:"rate_burst"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// IsProduction reports whether the production backend defaults apply
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// DefaultDir returns the default config directory following XDG base directory rules
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// Load builds the configuration. dir and apiURL come from command-line
// flags and win over everything else when non-empty.
func Load(dir, apiURL string) (*Config, error) {
	// .env never overrides variables already present in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if dir == "" {
		dir = getEnv("BLOG_CONFIG_DIR", DefaultDir())
	}

	file, err := readFile(dir)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ConfigDir:      dir,
		Environment:    getEnv("BLOG_ENV", firstNonEmpty(file.Environment, "development")),
		RateLimit:      getEnvFloat("BLOG_RATE_LIMIT", file.RateLimit),
		RateBurst:      getEnvInt("BLOG_RATE_BURST", orDefault(file.RateBurst, 1)),
		TimeoutSeconds: getEnvInt("BLOG_TIMEOUT", orDefault(file.TimeoutSeconds, 30)),
	}

	cfg.APIURL = firstNonEmpty(
		apiURL,
		os.Getenv("BLOG_API_URL"),
		os.Getenv("NEXT_PUBLIC_API_URL"),
		file.APIURL,
	)
	if cfg.APIURL == "" {
		if cfg.IsProduction() {
			cfg.APIURL = ProductionAPIURL
		} else {
			cfg.APIURL = DevelopmentAPIURL
		}
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if err := ValidateURL(cfg.APIURL); err != nil {
		return nil, err
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("BLOG_RATE_LIMIT must not be negative, got %v", cfg.RateLimit)
	}
	if cfg.RateBurst < 1 {
		return nil, fmt.Errorf("BLOG_RATE_BURST must be at least 1, got %d", cfg.RateBurst)
	}
	if cfg.TimeoutSeconds < 1 || cfg.TimeoutSeconds > 600 {
		return nil, fmt.Errorf("BLOG_TIMEOUT must be between 1 and 600, got %d", cfg.TimeoutSeconds)
	}

	return cfg, nil
}

// ValidateURL rejects backend URLs that would produce malformed requests
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid API URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid API URL %q: missing host", raw)
	}
	return nil
}

func readFile(dir string) (fileConfig, error) {
	var fc fileConfig
	if dir == "" {
		return fc, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	if os.IsNotExist(err) {
		return fc, nil
	}
	if err != nil {
		return fc, fmt.Errorf("reading %s: %w", configFileName, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parsing %s: %w", configFileName, err)
	}
	return fc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
