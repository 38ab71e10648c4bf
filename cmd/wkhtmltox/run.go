package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-wkhtmltox"
)

// runMain dispatches the command in args and returns the exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "pdf":
		return runConvertCmd(wkhtmltox.KindPDF, rest, env)
	case "image":
		return runConvertCmd(wkhtmltox.KindImage, rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "wkhtmltox %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// runConvertCmd runs the pdf or image command.
func runConvertCmd(kind wkhtmltox.Kind, args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(kind, args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	log := newLogger(env.Stderr, flags.common.verbose, flags.common.quiet)
	defer func() { _ = log.Sync() }()
	wkhtmltox.SetLogger(log)
	defer wkhtmltox.SetLogger(nil)
	warnUnknownEnvVars(log)

	ctx, stop := notifyContext(context.Background())
	defer stop()

	if err := runConvert(ctx, kind, positional, flags, env, log); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, flags.common.config))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
