// Package config loads CLI configuration files (YAML or TOML).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxTitleLength    = 200
	MaxSettingLength  = 2048 // setting names and values
	MaxSettingsCount  = 200  // per scope
	MaxPageSizeLength = 40   // "Letter" or "210mmx297mm"
)

// Backend names.
const (
	BackendNative   = "native"
	BackendChromium = "chromium"
)

// Config holds all configuration for the CLI.
type Config struct {
	Backend BackendConfig `yaml:"backend" toml:"backend"`
	PDF     PDFConfig     `yaml:"pdf" toml:"pdf"`
	Image   ImageConfig   `yaml:"image" toml:"image"`
	Timeout string        `yaml:"timeout" toml:"timeout"` // Go duration, "" = no timeout
	Workers int           `yaml:"workers" toml:"workers"` // 0 = auto
}

// BackendConfig selects and locates the rendering backend.
type BackendConfig struct {
	Name     string `yaml:"name" toml:"name"`         // "native" (default) or "chromium"
	Library  string `yaml:"library" toml:"library"`   // libwkhtmltox path, "" = search
	Browser  string `yaml:"browser" toml:"browser"`   // Chromium binary, "" = rod default
	Graphics bool   `yaml:"graphics" toml:"graphics"` // let wkhtmltox use the X server
}

// Setting is one raw engine setting. A list keeps the order they are applied.
type Setting struct {
	Name  string `yaml:"name" toml:"name"`
	Value string `yaml:"value" toml:"value"`
}

// PDFConfig defines PDF job options.
type PDFConfig struct {
	PageSize     string    `yaml:"pageSize" toml:"pageSize"`
	Orientation  string    `yaml:"orientation" toml:"orientation"`
	Margin       string    `yaml:"margin" toml:"margin"` // 1 to 4 sizes, e.g. "10mm 5mm"
	Title        string    `yaml:"title" toml:"title"`
	DPI          uint      `yaml:"dpi" toml:"dpi"`
	ImageQuality uint      `yaml:"imageQuality" toml:"imageQuality"`
	OutlineDepth uint      `yaml:"outlineDepth" toml:"outlineDepth"` // 0 = no outline
	Global       []Setting `yaml:"global" toml:"global"`
	Object       []Setting `yaml:"object" toml:"object"`
}

// ImageConfig defines image job options.
type ImageConfig struct {
	Format      string    `yaml:"format" toml:"format"`
	Transparent bool      `yaml:"transparent" toml:"transparent"`
	Quality     uint      `yaml:"quality" toml:"quality"`
	Global      []Setting `yaml:"global" toml:"global"`
}

// Validate checks values and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	switch c.Backend.Name {
	case "", BackendNative, BackendChromium:
	default:
		return fmt.Errorf("%w: backend.name %q (must be native or chromium)", ErrInvalidValue, c.Backend.Name)
	}
	if err := validateFieldLength("backend.library", c.Backend.Library, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("backend.browser", c.Backend.Browser, MaxPathLength); err != nil {
		return err
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: timeout %q (must be a positive duration, e.g. 30s)", ErrInvalidValue, c.Timeout)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidValue, c.Workers)
	}

	// PDF fields
	if err := validateFieldLength("pdf.pageSize", c.PDF.PageSize, MaxPageSizeLength); err != nil {
		return err
	}
	if c.PDF.PageSize != "" {
		if _, err := wkhtmltox.ParsePageSize(c.PDF.PageSize); err != nil {
			return fmt.Errorf("pdf.pageSize: %w", err)
		}
	}
	if c.PDF.Orientation != "" {
		if _, err := wkhtmltox.ParseOrientation(c.PDF.Orientation); err != nil {
			return fmt.Errorf("pdf.orientation: %w", err)
		}
	}
	if c.PDF.Margin != "" {
		if _, err := wkhtmltox.ParseMargin(c.PDF.Margin); err != nil {
			return fmt.Errorf("pdf.margin: %w", err)
		}
	}
	if err := validateFieldLength("pdf.title", c.PDF.Title, MaxTitleLength); err != nil {
		return err
	}
	if c.PDF.ImageQuality > 100 {
		return fmt.Errorf("%w: pdf.imageQuality must be between 0 and 100, got %d", ErrInvalidValue, c.PDF.ImageQuality)
	}
	if err := validateSettings("pdf.global", c.PDF.Global); err != nil {
		return err
	}
	if err := validateSettings("pdf.object", c.PDF.Object); err != nil {
		return err
	}

	// Image fields
	switch c.Image.Format {
	case "", "jpg", "png", "bmp", "svg":
	default:
		return fmt.Errorf("%w: image.format %q (must be jpg, png, bmp or svg)", ErrInvalidValue, c.Image.Format)
	}
	if c.Image.Quality > 100 {
		return fmt.Errorf("%w: image.quality must be between 0 and 100, got %d", ErrInvalidValue, c.Image.Quality)
	}
	return validateSettings("image.global", c.Image.Global)
}

// TimeoutDuration returns the parsed timeout, 0 when unset.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func validateSettings(scope string, settings []Setting) error {
	if len(settings) > MaxSettingsCount {
		return fmt.Errorf("%w: %s has %d settings (max %d)", ErrInvalidValue, scope, len(settings), MaxSettingsCount)
	}
	for i, s := range settings {
		field := fmt.Sprintf("%s[%d]", scope, i)
		if s.Name == "" {
			return fmt.Errorf("%w: %s.name is required", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field+".name", s.Name, MaxSettingLength); err != nil {
			return err
		}
		if err := validateFieldLength(field+".value", s.Value, MaxSettingLength); err != nil {
			return err
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{Name: BackendNative},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(configPath, data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if cfg.Backend.Name == "" {
		cfg.Backend.Name = BackendNative
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configExtensions are tried in order when resolving a config name.
var configExtensions = []string{".yaml", ".yml", ".toml"}

// SearchPaths lists, in order, where LoadConfig looks for a config name:
// the current directory, then ~/.config/go-wkhtmltox/.
func SearchPaths(name string) []string {
	paths := make([]string, 0, len(configExtensions)*2) // 2 locations
	for _, ext := range configExtensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range configExtensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-wkhtmltox", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file among SearchPaths(name).
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
