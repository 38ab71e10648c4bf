package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func TestPrepareInputs_KeepsOrder(t *testing.T) {
	files := make(map[string]string)
	var args []string
	for i := range 12 {
		name := fmt.Sprintf("page%02d.html", i)
		files[name] = "<p>" + name + "</p>"
		args = append(args, name)
	}
	dir := setupTestDir(t, files)
	for i := range args {
		args[i] = filepath.Join(dir, args[i])
	}

	got, err := prepareInputs(context.Background(), args, "", 3, strings.NewReader(""))
	if err != nil {
		t.Fatalf("prepareInputs() error = %v", err)
	}
	for i, in := range got {
		if in.Name != args[i] || in.Ref != args[i] {
			t.Errorf("inputs[%d] = %+v, want %s", i, in, args[i])
		}
	}
}

func TestPrepareInput(t *testing.T) {
	dir := setupTestDir(t, map[string]string{
		"guide.markdown": "# Guide",
		"page.htm":       "<p>x</p>",
	})

	tests := []struct {
		name   string
		arg    string
		title  string
		stdin  string
		check  func(t *testing.T, in Input)
		wantIs error
	}{
		{
			name:  "stdin",
			arg:   "-",
			stdin: "<h1>piped</h1>",
			check: func(t *testing.T, in Input) {
				if !in.Inline || in.Name != "stdin" || in.HTML != "<h1>piped</h1>" {
					t.Errorf("got %+v", in)
				}
			},
		},
		{
			name: "url",
			arg:  "http://localhost:8080/report",
			check: func(t *testing.T, in Input) {
				if !in.URL || in.Inline || in.Ref != "http://localhost:8080/report" {
					t.Errorf("got %+v", in)
				}
			},
		},
		{
			name: "markdown with derived title",
			arg:  filepath.Join(dir, "guide.markdown"),
			check: func(t *testing.T, in Input) {
				if !in.Inline || !strings.Contains(in.HTML, "<title>guide</title>") {
					t.Errorf("got %+v", in)
				}
			},
		},
		{
			name:  "markdown with explicit title",
			arg:   filepath.Join(dir, "guide.markdown"),
			title: "Q3 <Report>",
			check: func(t *testing.T, in Input) {
				if !strings.Contains(in.HTML, "<title>Q3 &lt;Report&gt;</title>") {
					t.Errorf("title not escaped: %q", in.HTML)
				}
			},
		},
		{
			name: "html file",
			arg:  filepath.Join(dir, "page.htm"),
			check: func(t *testing.T, in Input) {
				if in.Inline || in.URL || in.Ref != filepath.Join(dir, "page.htm") {
					t.Errorf("got %+v", in)
				}
			},
		},
		{
			name:   "missing file",
			arg:    filepath.Join(dir, "nope.html"),
			wantIs: ErrInputNotFound,
		},
		{
			name:   "blank stdin",
			arg:    "-",
			stdin:  "\n\t ",
			wantIs: ErrEmptyInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := prepareInputs(context.Background(), []string{tt.arg}, tt.title, 1, strings.NewReader(tt.stdin))
			if tt.wantIs != nil {
				if !errors.Is(err, tt.wantIs) {
					t.Fatalf("error = %v, want %v", err, tt.wantIs)
				}
				return
			}
			if err != nil {
				t.Fatalf("prepareInputs() error = %v", err)
			}
			tt.check(t, got[0])
		})
	}
}

func TestPrepareInputs_StdinOnce(t *testing.T) {
	_, err := prepareInputs(context.Background(), []string{"-", "x.html", "-"}, "", 0, strings.NewReader("<p>x</p>"))
	if !errors.Is(err, ErrUsage) {
		t.Errorf("error = %v, want %v", err, ErrUsage)
	}
}

func TestInput_Source(t *testing.T) {
	if got := (Input{Inline: true, HTML: "<p>x</p>"}).source().String(); got != "<inline html>" {
		t.Errorf("inline source = %q", got)
	}
	if got := (Input{Ref: "a.html"}).source().String(); got != "a.html" {
		t.Errorf("page source = %q", got)
	}
}
