// Command pay applies client transactions to accounts.
//
// Unknown subcommands are delegated to pay-<subcommand> binaries found in PATH.
package main

import (
	"context"
	"flag"
	"maps"
	"os"
	"path"

	"github.com/etnz/payments/cmd"
	"github.com/etnz/payments/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	completion().Complete("pay")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()

	if sub := flag.Arg(0); sub != "" && !registered(commander, sub) {
		if found, code := cmd.RunExtension(sub, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

// registered reports whether name is a subcommand of c.
func registered(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		if cmd.Name() == name {
			found = true
		}
	})
	return found
}

// topics predicts the documentation topics.
func topics() predict.Set {
	all, _ := docs.GetAllTopics()
	return append(predict.Set{"readme", "*"}, all...)
}

// completion describes the command line for shell completion.
func completion() *complete.Command {
	events := predict.Or(predict.Files("*.csv"), predict.Files("*.json"), predict.Files("*.jsonl"))
	inputs := predict.Set{"csv", "jsonl", "json"}
	input := map[string]complete.Predictor{
		"f":    inputs,
		"path": predict.Something,
	}
	with := func(flags map[string]complete.Predictor, extra map[string]complete.Predictor) map[string]complete.Predictor {
		all := maps.Clone(flags)
		maps.Copy(all, extra)
		return all
	}

	return &complete.Command{
		Sub: map[string]*complete.Command{
			"process": {Flags: with(input, map[string]complete.Predictor{"o": predict.Set{"csv", "jsonl", "markdown"}}), Args: events},
			"report":  {Flags: with(input, map[string]complete.Predictor{"currency": predict.Set{"USD", "EUR", "GBP", "JPY"}}), Args: events},
			"convert": {Flags: input, Args: events},
			"export":  {Flags: input, Args: events},
			"consume": {Flags: map[string]complete.Predictor{"export": predict.Nothing, "stats": predict.Something, "prefetch": predict.Something}},
			"topic":   {Flags: map[string]complete.Predictor{"raw": predict.Nothing}, Args: topics()},
		},
		Flags: map[string]complete.Predictor{
			"log-level":       predict.Set{"debug", "info", "warn", "error"},
			"log-format":      predict.Set{"text", "json"},
			"dispute-window":  predict.Something,
			"amqp-url":        predict.Something,
			"amqp-queue":      predict.Something,
			"database-url":    predict.Something,
			"database-driver": predict.Set{"postgres", "mysql"},
		},
	}
}
