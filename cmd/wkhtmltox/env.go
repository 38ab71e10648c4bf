package main

import (
	"io"
	"os"

	"github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/config"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewEngine starts the engine of kind. Replaced in tests.
	NewEngine func(kind wkhtmltox.Kind, cfg *config.Config) (Engine, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		NewEngine: newWorkerEngine,
	}
}
