package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etnz/payments"
	"github.com/etnz/payments/renderer"
	"github.com/google/subcommands"
)

type reportCmd struct {
	inputFlags
	currency string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display a report of the accounts after applying an event file" }
func (*reportCmd) Usage() string {
	return `pay report [-f <format>] [-path <jsonpath>] [-currency <code>] <file>

  Applies every event of <file> and displays the accounts, their totals and a
  summary of rejected events by reason.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.SetFlags(f)
	f.StringVar(&c.currency, "currency", "", "ISO 4217 code of the currency used to display amounts (e.g. USD)")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "report expects exactly one event file")
		return subcommands.ExitUsageError
	}
	in, err := c.input(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	currency, err := renderer.LookupCurrency(c.currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	log, _, err := newRun()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	status := subcommands.ExitSuccess
	var rejected payments.Rejections
	p, err := processFile(ctx, log, in, &rejected)
	if err != nil {
		// what was applied before the failure is still reported.
		fmt.Fprintf(os.Stderr, "Error processing events: %v\n", err)
		status = subcommands.ExitFailure
	}

	stats := p.Stats()
	printMarkdown(renderer.SnapshotMarkdown(p.Store().Snapshot(), renderer.Options{
		Title:      fmt.Sprintf("Accounts after %s", filepath.Base(in.Path)),
		Currency:   currency,
		Stats:      &stats,
		Rejections: rejected.ByKind(),
	}))
	return status
}
