package main

import (
	"context"
	"fmt"

	"github.com/robalyx/warden/internal/export"
	"github.com/robalyx/warden/internal/setup"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export infractions to SQLite and CSV files",
		Flags: append(criteriaFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "exports",
				Usage:   "Output directory for export files",
			},
			&cli.StringSliceFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Formats to write: sqlite, csv (default both)",
			},
			&cli.StringFlag{
				Name:    "salt",
				Aliases: []string{"s"},
				Usage:   "Salt for hashing subject IDs (leave empty to export raw IDs)",
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Description of this export",
			},
			&cli.StringFlag{
				Name:    "hash-type",
				Aliases: []string{"t"},
				Value:   string(export.HashTypeSHA256),
				Usage:   "Hash algorithm to use (argon2id or sha256)",
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"c"},
				Value:   4,
				Usage:   "Number of concurrent hash operations",
			},
			&cli.UintFlag{
				Name:    "iterations",
				Aliases: []string{"i"},
				Value:   1,
				Usage:   "Number of hash iterations",
			},
			&cli.UintFlag{
				Name:    "hash-memory",
				Aliases: []string{"m"},
				Value:   64,
				Usage:   "Memory in MiB for Argon2id hashing",
			},
		),
		Action: withApp(func(ctx context.Context, c *cli.Command, app *setup.App) error {
			criteria, err := parseCriteria(c)
			if err != nil {
				return err
			}

			formats := make([]export.Format, 0, len(c.StringSlice("format")))
			for _, f := range c.StringSlice("format") {
				formats = append(formats, export.Format(f))
			}

			exporter := export.New(app.Infractions, c.String("output"), &export.Config{
				Description: c.String("description"),
				Salt:        c.String("salt"),
				HashType:    export.HashType(c.String("hash-type")),
				Iterations:  uint32(c.Uint("iterations")),  //nolint:gosec // small flag value
				Memory:      uint32(c.Uint("hash-memory")), //nolint:gosec // small flag value
				Concurrency: int(c.Int("concurrency")),
			}, app.Logger, formats...)

			count, err := exporter.Export(ctx, criteria)
			if err != nil {
				return err
			}

			app.Logger.Info("Export completed",
				zap.String("output", c.String("output")),
				zap.Int("records", count))

			return printResult(c, map[string]any{"records": count}, func() string {
				return fmt.Sprintf("Exported %d infractions to %s", count, c.String("output"))
			})
		}),
	}
}
