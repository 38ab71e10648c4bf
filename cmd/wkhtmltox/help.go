package main

import (
	"fmt"
	"io"

	"github.com/alnah/go-wkhtmltox"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wkhtmltox <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  pdf        Convert HTML, Markdown or URLs to one PDF")
	fmt.Fprintln(w, "  image      Render HTML, Markdown or a URL to an image")
	fmt.Fprintln(w, "  doctor     Check the engine setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'wkhtmltox help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the pdf or image command.
func printConvertUsage(w io.Writer, kind wkhtmltox.Kind) {
	if kind == wkhtmltox.KindImage {
		fmt.Fprintln(w, "Usage: wkhtmltox image <input> [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Render one input to an image.")
	} else {
		fmt.Fprintln(w, "Usage: wkhtmltox pdf <input>... [flags]")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Convert inputs to a single PDF, one object per input.")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Inputs:")
	fmt.Fprintln(w, "  https://...               Page loaded by the engine")
	fmt.Fprintln(w, "  page.html                 Local HTML file (must exist)")
	fmt.Fprintln(w, "  doc.md                    Markdown, rendered to HTML first")
	fmt.Fprintln(w, "  -                         HTML read from stdin")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory (- = stdout)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (.yaml, .yml, .toml)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Job timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -w, --workers <n>         Input preparation workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Backend:")
	fmt.Fprintln(w, "      --backend <s>         native (default) or chromium")
	fmt.Fprintln(w, "      --lib <path>          libwkhtmltox path (native)")
	fmt.Fprintln(w, "      --browser <path>      Chrome/Chromium binary (chromium)")
	fmt.Fprintln(w, "      --graphics            Let wkhtmltox use the X server")
	fmt.Fprintln(w)
	if kind == wkhtmltox.KindImage {
		fmt.Fprintln(w, "Image:")
		fmt.Fprintln(w, "      --format <s>          png, jpg, bmp, svg (default from output name)")
		fmt.Fprintln(w, "      --transparent         Transparent background")
		fmt.Fprintln(w, "      --quality <n>         JPEG quality (1-100)")
	} else {
		fmt.Fprintln(w, "Page:")
		fmt.Fprintln(w, "  -p, --page-size <s>       A4, Letter, ... or WxH (e.g. 100mmx150mm)")
		fmt.Fprintln(w, "      --orientation <s>     portrait, landscape")
		fmt.Fprintln(w, "      --margin <s>          1 to 4 sizes in CSS order (e.g. \"10mm 5mm\")")
		fmt.Fprintln(w, "      --title <s>           Document title")
		fmt.Fprintln(w, "      --dpi <n>             Rendering resolution")
		fmt.Fprintln(w, "      --image-quality <n>   JPEG quality of embedded images")
		fmt.Fprintln(w, "      --outline-depth <n>   PDF outline depth (0 = none)")
		fmt.Fprintln(w, "      --object-set k=v      Raw object setting (repeatable)")
		fmt.Fprintln(w, "      --verify              Parse the PDF and check it has pages")
	}
	fmt.Fprintln(w, "      --set k=v             Raw global setting (repeatable)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log every engine call")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "pdf":
		printConvertUsage(env.Stdout, wkhtmltox.KindPDF)
	case "image":
		printConvertUsage(env.Stdout, wkhtmltox.KindImage)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: wkhtmltox doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check libwkhtmltox, Chromium, thread checks and the temp directory.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: wkhtmltox version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: wkhtmltox help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
