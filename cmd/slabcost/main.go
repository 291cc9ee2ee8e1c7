// SlabCost — parametric cabinet and slat panel costing
//
// Computes the pieces, material purchase and hardware of cabinet boxes and
// their components from formula-driven definitions, and lays out slat panels
// (ripado / muxarabi) against stock sheets.
//
// Build:
//   go build -o slabcost ./cmd/slabcost
//
// Usage:
//   slabcost serve   [-config config.json]
//   slabcost compute [-config config.json] -request quote.json [-json]
//   slabcost layout  [-config config.json] -spec panel.json [-json]
//   slabcost import  (-materials file | -hardware file) [-out catalog.json] [-merge]

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: slabcost <command> [flags]

commands:
  serve     run the HTTP API
  compute   quote a box and its components from a JSON request
  layout    lay out a slat panel from a JSON spec
  import    import materials or hardware from CSV/Excel into a catalog

run "slabcost <command> -h" for the flags of a command
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "serve":
		err = runServe(ctx, args[1:], stderr)
	case "compute":
		err = runCompute(args[1:], stdin, stdout, stderr)
	case "layout":
		err = runLayout(args[1:], stdin, stdout, stderr)
	case "import":
		err = runImport(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "slabcost %s: %v\n", args[0], err)
		return 1
	}
	return 0
}
