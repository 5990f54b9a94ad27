package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"iter"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/payments"
	"github.com/etnz/payments/feed"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type consumeCmd struct {
	export   bool
	stats    time.Duration
	prefetch int
}

func (*consumeCmd) Name() string     { return "consume" }
func (*consumeCmd) Synopsis() string { return "apply events from a RabbitMQ queue until interrupted" }
func (*consumeCmd) Usage() string {
	return `pay [-amqp-url <url>] [-amqp-queue <queue>] consume [-export] [-stats <interval>]

  Consumes JSON events from the queue and applies them in delivery order. A
  message is acknowledged once its event has been applied or rejected.

  On SIGINT or SIGTERM, prints the accounts as CSV to stdout, and exports them
  when -export is set.
`
}

func (c *consumeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.export, "export", false, "Export accounts and rejected events to the database (see -database-url)")
	f.DurationVar(&c.stats, "stats", 30*time.Second, "Interval between progress logs, 0 to disable")
	f.IntVar(&c.prefetch, "prefetch", 64, "Maximum number of unacknowledged messages")
}

func (c *consumeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log, runID, err := newRun()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *database
	sink := payments.NewLogSink(log)
	var sinks payments.Sink = sink
	if c.export {
		if db, err = openDatabase(ctx, log, runID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		defer db.Close()
		sinks = payments.MultiSink(sink, db.sink())
	}

	consumer, err := feed.Dial(feed.Config{URL: *amqpURL, Queue: *amqpQueue, Prefetch: c.prefetch}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer consumer.Close()

	events, err := consumer.Events(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	p := payments.NewProcessor(newStore(), sinks)
	if err := consume(ctx, log, p, events, c.stats, db); err != nil {
		// the accounts are still printed and exported.
		fmt.Fprintf(os.Stderr, "Error consuming events: %v\n", err)
		status = subcommands.ExitFailure
	}

	// the run context is done, give the database its own deadline.
	saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	snap := p.Store().Snapshot()
	if err := payments.EncodeCSV(stdout, snap); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing accounts: %v\n", err)
		return subcommands.ExitFailure
	}
	if db != nil {
		if _, err := db.save(saveCtx, snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return status
}

// consume applies events until the stream ends or ctx is done, logging the
// store size every interval and flushing rejections to db if any.
func consume(ctx context.Context, log logrus.FieldLogger, p *payments.Processor, events iter.Seq2[payments.Event, error], interval time.Duration, db *database) error {
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		defer close(done)
		err := p.Run(gctx, events)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-ticker.C:
					stats := p.Store().Stats()
					log.WithFields(logrus.Fields{
						"accounts": stats.Accounts,
						"records":  stats.Records,
						"archived": stats.Archived,
					}).Info("progress")
					if db != nil {
						if err := db.flush(gctx); err != nil {
							log.WithError(err).Warn("failed to flush rejections")
						}
					}
				}
			}
		})
	}

	return g.Wait()
}
