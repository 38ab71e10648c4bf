package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/config"
	"github.com/alnah/go-wkhtmltox/internal/fileutil"
	"github.com/alnah/go-wkhtmltox/internal/pdfcheck"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage          = errors.New("invalid usage")
	ErrNoInput        = errors.New("no input specified")
	ErrEmptyInput     = errors.New("input is empty")
	ErrInputNotFound  = errors.New("input not found")
	ErrReadInput      = errors.New("failed to read input")
	ErrInvalidSetting = errors.New("setting must be key=value")
	ErrVerify         = errors.New("output verification failed")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// defaultImageFormat is used when neither --format nor the output name picks one.
const defaultImageFormat = "png"

// runConvert orchestrates one pdf or image conversion.
func runConvert(ctx context.Context, kind wkhtmltox.Kind, args []string, flags *convertFlags, env *Environment, log *zap.Logger) error {
	if len(args) == 0 {
		return ErrNoInput
	}
	if kind == wkhtmltox.KindImage && len(args) > 1 {
		return fmt.Errorf("%w: image takes exactly one input, got %d", ErrUsage, len(args))
	}

	cfg, err := resolveConfig(kind, flags)
	if err != nil {
		return err
	}
	if kind == wkhtmltox.KindImage && cfg.Image.Format == "" {
		cfg.Image.Format = formatFromPath(flags.output)
	}

	if d := cfg.TimeoutDuration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	inputs, err := prepareInputs(ctx, args, cfg.PDF.Title, cfg.Workers, env.Stdin)
	if err != nil {
		return err
	}

	engine, err := env.NewEngine(kind, cfg)
	if err != nil {
		return err
	}
	// A job past the timeout cannot be interrupted: leave its thread behind
	// rather than wait for it, process exit reclaims it.
	defer func() {
		if err := engine.Close(ctx); err != nil {
			log.Warn("failed to close engine", zap.Error(err))
		}
	}()

	res, err := engine.Run(ctx, Job{Kind: kind, Inputs: inputs, Config: cfg})
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		log.Warn("engine warning", zap.String("job", res.JobID), zap.String("message", w))
	}

	if kind == wkhtmltox.KindPDF && flags.pdf.verify {
		info, err := pdfcheck.Verify(res.Data)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrVerify, err)
		}
		log.Info("verified output", zap.String("job", res.JobID), zap.Int("pages", info.Pages))
	}

	ext := ".pdf"
	if kind == wkhtmltox.KindImage {
		ext = "." + cfg.Image.Format
	}
	outPath := resolveOutputPath(flags.output, inputs[0], ext)
	if err := writeOutput(outPath, res.Data, env.Stdout); err != nil {
		return err
	}

	if !flags.common.quiet && outPath != dashArg {
		fmt.Fprintf(env.Stderr, "%s -> %s (%d bytes)\n", inputs[0].Name, outPath, len(res.Data))
	}
	return nil
}

// resolveConfig loads the config file, then applies env vars and flags.
// Priority: CLI flags > env vars > config file > defaults.
func resolveConfig(kind wkhtmltox.Kind, flags *convertFlags) (*config.Config, error) {
	envCfg := loadEnvConfig()

	name := flags.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(kind, flags, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// formatFromPath picks an image format from an output name.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpg"
	case ".bmp":
		return "bmp"
	case ".svg":
		return "svg"
	}
	return defaultImageFormat
}

// resolveOutputPath determines where to write the result.
// An explicit file wins; a directory (existing or ending in a separator)
// receives the derived name; otherwise the name is derived from the first input.
func resolveOutputPath(flagOutput string, first Input, ext string) string {
	derived := "out" + ext
	if !first.URL && first.Name != "stdin" {
		derived = fileutil.ReplaceExt(first.Name, ext)
	}

	if flagOutput == "" {
		return derived
	}
	if flagOutput == dashArg {
		return flagOutput
	}
	if strings.HasSuffix(flagOutput, "/") || isDir(flagOutput) {
		return filepath.Join(flagOutput, filepath.Base(derived))
	}
	return flagOutput
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// writeOutput writes data to path, or to stdout for "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == dashArg {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: stdout: %v", wkhtmltox.ErrWriteOutput, err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %w", wkhtmltox.ErrWriteOutput, err)
		}
	}
	if err := os.WriteFile(path, data, filePermissions); err != nil { // #nosec G306 -- outputs are meant to be shared
		return fmt.Errorf("%w: %w", wkhtmltox.ErrWriteOutput, err)
	}
	return nil
}
