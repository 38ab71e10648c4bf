package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-wkhtmltox/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring config files.
type envConfig struct {
	ConfigPath  string        // WKHTMLTOX_CONFIG: config file name or path
	Backend     string        // WKHTMLTOX_BACKEND: native or chromium
	Library     string        // WKHTMLTOX_LIBRARY: libwkhtmltox path
	Browser     string        // WKHTMLTOX_BROWSER: Chrome/Chromium binary
	Timeout     time.Duration // WKHTMLTOX_TIMEOUT: job timeout
	Workers     int           // WKHTMLTOX_WORKERS: input preparation workers
	PageSize    string        // WKHTMLTOX_PAGE_SIZE: A4, Letter, ...
	Orientation string        // WKHTMLTOX_ORIENTATION: portrait, landscape
	ImageFormat string        // WKHTMLTOX_IMAGE_FORMAT: png, jpg, bmp, svg
}

// knownEnvVars lists valid WKHTMLTOX_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"WKHTMLTOX_CONFIG":       true,
	"WKHTMLTOX_BACKEND":      true,
	"WKHTMLTOX_LIBRARY":      true,
	"WKHTMLTOX_BROWSER":      true,
	"WKHTMLTOX_TIMEOUT":      true,
	"WKHTMLTOX_WORKERS":      true,
	"WKHTMLTOX_PAGE_SIZE":    true,
	"WKHTMLTOX_ORIENTATION":  true,
	"WKHTMLTOX_IMAGE_FORMAT": true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers and durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("WKHTMLTOX_CONFIG"),
		Backend:     os.Getenv("WKHTMLTOX_BACKEND"),
		Library:     os.Getenv("WKHTMLTOX_LIBRARY"),
		Browser:     os.Getenv("WKHTMLTOX_BROWSER"),
		PageSize:    os.Getenv("WKHTMLTOX_PAGE_SIZE"),
		Orientation: os.Getenv("WKHTMLTOX_ORIENTATION"),
		ImageFormat: strings.ToLower(os.Getenv("WKHTMLTOX_IMAGE_FORMAT")),
	}

	if timeout := os.Getenv("WKHTMLTOX_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("WKHTMLTOX_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized WKHTMLTOX_* variables.
func warnUnknownEnvVars(log *zap.Logger) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "WKHTMLTOX_") {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				log.Warn("unknown environment variable (typo?)", zap.String("name", name))
			}
		}
	}
}

// applyEnvConfig applies set environment variables over the config file.
// Flags are merged afterwards and win.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Backend != "" {
		cfg.Backend.Name = env.Backend
	}
	if env.Library != "" {
		cfg.Backend.Library = env.Library
	}
	if env.Browser != "" {
		cfg.Backend.Browser = env.Browser
	}
	if env.Timeout > 0 {
		cfg.Timeout = env.Timeout.String()
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
	if env.PageSize != "" {
		cfg.PDF.PageSize = env.PageSize
	}
	if env.Orientation != "" {
		cfg.PDF.Orientation = env.Orientation
	}
	if env.ImageFormat != "" {
		cfg.Image.Format = env.ImageFormat
	}
}
