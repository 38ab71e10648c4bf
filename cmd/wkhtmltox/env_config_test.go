package main

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-wkhtmltox/internal/config"
)

func TestLoadEnvConfig(t *testing.T) {
	newTestEnv(t)
	t.Setenv("WKHTMLTOX_CONFIG", "work")
	t.Setenv("WKHTMLTOX_BACKEND", "chromium")
	t.Setenv("WKHTMLTOX_LIBRARY", "/opt/lib/libwkhtmltox.so")
	t.Setenv("WKHTMLTOX_BROWSER", "/usr/bin/chromium")
	t.Setenv("WKHTMLTOX_TIMEOUT", "45s")
	t.Setenv("WKHTMLTOX_WORKERS", "3")
	t.Setenv("WKHTMLTOX_PAGE_SIZE", "Letter")
	t.Setenv("WKHTMLTOX_ORIENTATION", "landscape")
	t.Setenv("WKHTMLTOX_IMAGE_FORMAT", "JPG")

	got := loadEnvConfig()
	want := envConfig{
		ConfigPath:  "work",
		Backend:     "chromium",
		Library:     "/opt/lib/libwkhtmltox.so",
		Browser:     "/usr/bin/chromium",
		Timeout:     45 * time.Second,
		Workers:     3,
		PageSize:    "Letter",
		Orientation: "landscape",
		ImageFormat: "jpg",
	}
	if *got != want {
		t.Errorf("loadEnvConfig() = %+v, want %+v", *got, want)
	}
}

func TestLoadEnvConfig_IgnoresInvalidNumbers(t *testing.T) {
	tests := []struct {
		name    string
		timeout string
		workers string
	}{
		{"garbage", "soon", "many"},
		{"negative", "-5s", "-2"},
		{"zero", "0s", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestEnv(t)
			t.Setenv("WKHTMLTOX_TIMEOUT", tt.timeout)
			t.Setenv("WKHTMLTOX_WORKERS", tt.workers)

			got := loadEnvConfig()
			if got.Timeout != 0 || got.Workers != 0 {
				t.Errorf("loadEnvConfig() = %+v, want zero timeout and workers", got)
			}
		})
	}
}

func TestApplyEnvConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PDF.PageSize = "A5"
	cfg.PDF.Title = "kept"

	applyEnvConfig(&envConfig{
		Backend:     "chromium",
		Timeout:     2 * time.Minute,
		PageSize:    "Letter",
		ImageFormat: "bmp",
	}, cfg)

	if cfg.Backend.Name != "chromium" {
		t.Errorf("Backend.Name = %q, want chromium", cfg.Backend.Name)
	}
	if cfg.Timeout != "2m0s" {
		t.Errorf("Timeout = %q, want 2m0s", cfg.Timeout)
	}
	if cfg.PDF.PageSize != "Letter" {
		t.Errorf("PageSize = %q, want Letter", cfg.PDF.PageSize)
	}
	if cfg.PDF.Title != "kept" {
		t.Errorf("Title = %q, unset env must not clear it", cfg.PDF.Title)
	}
	if cfg.Image.Format != "bmp" {
		t.Errorf("Image.Format = %q, want bmp", cfg.Image.Format)
	}
}

func TestWarnUnknownEnvVars(t *testing.T) {
	newTestEnv(t)
	t.Setenv("WKHTMLTOX_PAGESIZE", "A4")

	core, logs := observer.New(zap.WarnLevel)
	warnUnknownEnvVars(zap.New(core))

	entries := logs.FilterField(zap.String("name", "WKHTMLTOX_PAGESIZE")).All()
	if len(entries) != 1 {
		t.Fatalf("got %d warnings for the typo, want 1 (all: %v)", len(entries), logs.All())
	}
	for _, e := range logs.All() {
		name := e.ContextMap()["name"].(string)
		if knownEnvVars[name] {
			t.Errorf("warned about known variable %s", name)
		}
	}
}
