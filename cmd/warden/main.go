package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robalyx/warden/internal/setup"
	"github.com/urfave/cli/v3"
)

// LogDir specifies where CLI log files are stored.
const LogDir = "logs/warden_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "warden",
		Usage: "Record, search and manage moderation infractions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "Use an in-memory store instead of PostgreSQL (data is discarded on exit)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Value: LogDir,
				Usage: "Base directory for log files",
			},
		},
		Commands: []*cli.Command{
			dbCommand(),
			infractionCommand(),
			banCommand(),
			exportCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, os.Args)
}

// appAction is an action that needs the initialized application.
type appAction func(ctx context.Context, c *cli.Command, app *setup.App) error

// withApp initializes the application around an action and cleans it up afterwards.
func withApp(fn appAction) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		app, err := setup.InitializeApp(ctx, setup.Options{
			Component: c.Root().Name,
			LogDir:    c.String("log-dir"),
			Memory:    c.Bool("memory"),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer app.Cleanup()

		return fn(ctx, c, app)
	}
}
