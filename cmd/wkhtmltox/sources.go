package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/fileutil"
	"github.com/alnah/go-wkhtmltox/internal/markdown"
)

// maxStdinSize bounds HTML read from stdin.
const maxStdinSize = 64 << 20

// dashArg names stdin as an input and stdout as an output.
const dashArg = "-"

// Input is one command-line input, ready for the engine: a page reference
// (URL or local HTML file) or inline HTML.
type Input struct {
	Name   string // as given on the command line
	Ref    string // page reference, for non-inline inputs
	HTML   string // document, for inline inputs
	Inline bool
	URL    bool
}

func (in Input) source() wkhtmltox.Source {
	if in.Inline {
		return wkhtmltox.HTMLSource(in.HTML)
	}
	return wkhtmltox.PageSource(in.Ref)
}

// prepareInputs resolves args concurrently, keeping their order. Markdown is
// rendered here so the engine thread only converts.
func prepareInputs(ctx context.Context, args []string, title string, workers int, stdin io.Reader) ([]Input, error) {
	if n := countStdin(args); n > 1 {
		return nil, fmt.Errorf("%w: stdin (-) can be read only once, got %d", ErrUsage, n)
	}

	inputs := make([]Input, len(args))
	md := markdown.NewConverter()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(wkhtmltox.ResolveWorkers(workers))
	for i, arg := range args {
		g.Go(func() error {
			in, err := prepareInput(ctx, arg, title, md, stdin)
			if err != nil {
				return err
			}
			inputs[i] = in
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

func prepareInput(ctx context.Context, arg, title string, md *markdown.Converter, stdin io.Reader) (Input, error) {
	switch {
	case arg == dashArg:
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinSize+1))
		if err != nil {
			return Input{}, fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
		}
		if len(data) > maxStdinSize {
			return Input{}, fmt.Errorf("%w: stdin exceeds %d bytes", ErrReadInput, maxStdinSize)
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			return Input{}, fmt.Errorf("%w: stdin", ErrEmptyInput)
		}
		return Input{Name: "stdin", HTML: string(data), Inline: true}, nil

	case fileutil.IsURL(arg):
		return Input{Name: arg, Ref: arg, URL: true}, nil

	case isMarkdown(arg):
		data, err := os.ReadFile(arg) // #nosec G304 -- input path is user-provided
		if err != nil {
			if os.IsNotExist(err) {
				return Input{}, fmt.Errorf("%w: %s", ErrInputNotFound, arg)
			}
			return Input{}, fmt.Errorf("%w: %s: %v", ErrReadInput, arg, err)
		}
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		}
		html, err := md.ToHTML(ctx, string(data), title)
		if err != nil {
			return Input{}, fmt.Errorf("%s: %w", arg, err)
		}
		return Input{Name: arg, HTML: html, Inline: true}, nil

	default:
		if !fileutil.FileExists(arg) {
			return Input{}, fmt.Errorf("%w: %s", ErrInputNotFound, arg)
		}
		return Input{Name: arg, Ref: arg}, nil
	}
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func countStdin(args []string) int {
	n := 0
	for _, a := range args {
		if a == dashArg {
			n++
		}
	}
	return n
}
