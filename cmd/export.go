package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/payments"
	"github.com/etnz/payments/postgres"
	"github.com/google/subcommands"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type exportCmd struct {
	inputFlags
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "apply an event file and export the accounts to a database" }
func (*exportCmd) Usage() string {
	return `pay [-database-url <dsn>] [-database-driver postgres|mysql] export [-f <format>] [-path <jsonpath>] <file>

  Applies every event of <file>, then stores the final accounts in the
  account_snapshots table under a new run id. With PostgreSQL, rejected events
  are also recorded in the rejected_events table.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.SetFlags(f)
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "export expects exactly one event file")
		return subcommands.ExitUsageError
	}
	in, err := c.input(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	log, runID, err := newRun()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	db, err := openDatabase(ctx, log, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	p, err := processFile(ctx, log, in, db.sink())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error processing events: %v\n", err)
		return subcommands.ExitFailure
	}

	n, err := db.save(ctx, p.Store().Snapshot())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Exported %d accounts for run %s\n", n, runID)
	return subcommands.ExitSuccess
}

// database is where runs are exported.
type database struct {
	runID    string
	exporter *postgres.Exporter
	journal  *postgres.Journal // nil unless the driver is postgres
	pool     *pgxpool.Pool
}

// openDatabase connects to the database configured by the global flags.
func openDatabase(ctx context.Context, log logrus.FieldLogger, runID string) (*database, error) {
	if *databaseURL == "" {
		return nil, errors.New("no database configured, use -database-url or " + EnvDatabaseURL)
	}
	gdb, err := postgres.Open(*databaseDriver, *databaseURL)
	if err != nil {
		return nil, err
	}
	exporter, err := postgres.NewExporter(gdb, log)
	if err != nil {
		return nil, err
	}
	db := &database{runID: runID, exporter: exporter}

	if *databaseDriver != postgres.DriverPostgres {
		log.WithField("driver", *databaseDriver).Warn("rejected events are only journaled with postgres")
		return db, nil
	}
	db.pool, err = pgxpool.New(ctx, *databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	db.journal, err = postgres.NewJournal(ctx, db.pool, runID, log)
	if err != nil {
		db.pool.Close()
		return nil, err
	}
	return db, nil
}

// sink returns the sink journaling rejections, if any.
func (db *database) sink() payments.Sink {
	if db.journal == nil {
		return payments.Discard
	}
	return db.journal
}

// flush writes pending rejections.
func (db *database) flush(ctx context.Context) error {
	if db.journal == nil {
		return nil
	}
	_, err := db.journal.Flush(ctx)
	return err
}

// save exports the snapshot and the pending rejections.
func (db *database) save(ctx context.Context, s payments.Snapshot) (int, error) {
	if err := db.flush(ctx); err != nil {
		return 0, err
	}
	return db.exporter.Export(ctx, db.runID, s)
}

func (db *database) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
