package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/abrezinsky/evote/internal/config"
	"github.com/abrezinsky/evote/internal/legacy"
	"github.com/abrezinsky/evote/internal/logger"
	"github.com/abrezinsky/evote/internal/repository"
)

const usage = `evote-import - Copy a legacy MongoDB deployment into the evote database

Usage:
  evote-import [options]

Options:
  -mongo string        MongoDB URI (default "mongodb://localhost:27017", env MONGO_URI)
  -mongodb string      MongoDB database (default "test", env MONGO_DB)
  -collections list    Comma-separated subset of users,candidates,elections,votes,feedbacks
  -dry-run             Convert documents without writing them
  -dbtype string       Target sqlite or postgres (env DB_TYPE)
  -db string           Target SQLite path (default "evote.db", env DB_PATH)
  -database-url str    Target PostgreSQL connection string (env DATABASE_URL)
  -loglevel string     debug, info, warn, error (env LOG_LEVEL)
  -logformat string    text or json (env LOG_FORMAT)

Rows that already exist are skipped, so the import can be run again.
`

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-help" || os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(0)
	}

	cfg, err := config.LoadImport(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	appLog := logger.NewWithOptions(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
	})

	if err := run(cfg, appLog); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.ImportConfig, appLog logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.Open(repository.Dialect(cfg.DBType), cfg.DSN())
	if err != nil {
		return fmt.Errorf("open %s database: %w", cfg.DBType, err)
	}
	defer repo.Close()

	source, err := legacy.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer source.Close(context.Background())

	appLog.Info("Importing legacy data", "mongodb", cfg.MongoDB, "target", cfg.DBType, "dry_run", cfg.DryRun)

	importer := legacy.New(source, repo, appLog, legacy.WithDryRun(cfg.DryRun))
	report, err := importer.Run(ctx, cfg.Collections...)
	printReport(os.Stdout, report)
	return err
}

func printReport(out io.Writer, report *legacy.Report) {
	if report == nil {
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLECTION\tREAD\tIMPORTED\tSKIPPED\tFAILED")
	for _, c := range report.Collections {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", c.Collection, c.Read, c.Imported, c.Skipped, c.Failed)
	}
	t := report.Totals()
	fmt.Fprintf(tw, "total\t%d\t%d\t%d\t%d\n", t.Read, t.Imported, t.Skipped, t.Failed)
	tw.Flush()

	for _, e := range report.Errors {
		fmt.Fprintf(out, "  %s %s: %s\n", e.Collection, e.Document, e.Message)
	}
}
