package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alexanderramin/phasetrack/internal/cli"
	"github.com/alexanderramin/phasetrack/internal/config"
	"github.com/alexanderramin/phasetrack/internal/db"
	"github.com/alexanderramin/phasetrack/internal/progress"
	"github.com/alexanderramin/phasetrack/internal/repository"
	"github.com/alexanderramin/phasetrack/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	var observers []service.UseCaseObserver
	if cfg.Logging.UseCases {
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr))
	}

	app := &cli.App{
		Progress: service.NewProgressService(
			progress.NewEngine(),
			repository.NewSQLiteSnapshotRepo(database),
			repository.NewSQLiteTaskEventRepo(database),
			db.NewSQLiteUnitOfWork(database),
			observers...,
		),
		Config: cfg,
		// Prompts and the dashboard need both ends of the terminal.
		Interactive: isTerminal(os.Stdin) && isTerminal(os.Stdout),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
