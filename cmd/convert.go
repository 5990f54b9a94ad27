package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/payments"
	"github.com/google/subcommands"
)

type convertCmd struct {
	inputFlags
}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "convert an event file into canonical JSON lines" }
func (*convertCmd) Usage() string {
	return `pay convert [-f <format>] [-path <jsonpath>] <file>

  Decodes the events of <file> and writes them to stdout as JSON lines, the
  format consumed from the message queue. Events are not applied: invalid
  records are reported and skipped, valid ones are written even if they would
  be rejected.
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.SetFlags(f)
}

func (c *convertCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "convert expects exactly one event file")
		return subcommands.ExitUsageError
	}
	in, err := c.input(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	log, _, err := newRun()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if in.Format == "" {
		in.Format = payments.FormatOf(in.Path)
	}

	file, err := os.Open(in.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening events file: %v\n", err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	events, err := payments.Decode(file, in.Format, in.JSONPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	written, skipped := 0, 0
	for e, err := range events {
		var de *payments.DecodeError
		if errors.As(err, &de) {
			log.WithField("line", de.Line).WithError(de.Err).Warn("invalid record skipped")
			skipped++
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading events: %v\n", err)
			return subcommands.ExitFailure
		}
		if err := payments.EncodeEvent(stdout, e); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing event: %v\n", err)
			return subcommands.ExitFailure
		}
		written++
		if ctx.Err() != nil {
			break
		}
	}
	log.WithField("written", written).WithField("skipped", skipped).Info("events converted")
	return subcommands.ExitSuccess
}
