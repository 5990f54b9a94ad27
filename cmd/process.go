package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/payments"
	"github.com/etnz/payments/renderer"
	"github.com/google/subcommands"
)

type processCmd struct {
	inputFlags
	output string
}

func (*processCmd) Name() string     { return "process" }
func (*processCmd) Synopsis() string { return "apply an event file and print the resulting accounts" }
func (*processCmd) Usage() string {
	return `pay process [-f <format>] [-path <jsonpath>] [-o csv|jsonl|markdown] <file>

  Applies every event of <file>, in order, and prints the final state of all
  client accounts to stdout, ordered by client id.

  Rejected events are logged as warnings to stderr and do not stop the run.
`
}

func (c *processCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.SetFlags(f)
	f.StringVar(&c.output, "o", "csv", "Output format (csv, jsonl, markdown)")
}

func (c *processCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "process expects exactly one event file")
		return subcommands.ExitUsageError
	}
	in, err := c.input(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	output, err := payments.ParseFormat(c.output)
	if err != nil || output == "" || output == payments.FormatJSON {
		fmt.Fprintf(os.Stderr, "Error: invalid output format %q\n", c.output)
		return subcommands.ExitUsageError
	}
	log, _, err := newRun()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	status := subcommands.ExitSuccess
	p, err := processFile(ctx, log, in)
	if err != nil {
		// what was applied before the failure is still printed.
		fmt.Fprintf(os.Stderr, "Error processing events: %v\n", err)
		status = subcommands.ExitFailure
	}

	stats := p.Stats()
	if err := writeSnapshot(stdout, output, p.Store().Snapshot(), &stats); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing accounts: %v\n", err)
		return subcommands.ExitFailure
	}
	return status
}

// writeSnapshot writes s to w in the given output format.
func writeSnapshot(w io.Writer, format payments.Format, s payments.Snapshot, stats *payments.Stats) error {
	switch format {
	case payments.FormatCSV:
		return payments.EncodeCSV(w, s)
	case payments.FormatJSONL:
		return payments.EncodeJSONL(w, s)
	case payments.FormatMarkdown:
		_, err := io.WriteString(w, renderer.SnapshotMarkdown(s, renderer.Options{Stats: stats}))
		return err
	default:
		return fmt.Errorf("%q is not an output format", format)
	}
}
