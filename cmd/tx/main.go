// Command tx is the interactive session manager and launcher: it indexes
// provider transcripts, builds deterministic pipeline invocations, and
// executes or inspects them (spec.md §6 CLI surface).
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/bedecarroll/tx/internal/txerr"
)

func main() {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("tx"),
		kong.Description("Session manager and launcher for CLI AI provider tools."),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tx: failed to build CLI parser:", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "tx:", err)
		os.Exit(1)
	}

	app, err := newApp(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, txerr.Chain(err))
		os.Exit(txerr.ExitCode(err))
	}
	defer app.Close()

	if err := kctx.Run(app); err != nil {
		fmt.Fprintln(os.Stderr, txerr.Chain(err))
		os.Exit(txerr.ExitCode(err))
	}
}
