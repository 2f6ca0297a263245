package main

import (
	"context"
	"fmt"

	"github.com/robalyx/warden/internal/setup"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/urfave/cli/v3"
)

func banCommand() *cli.Command {
	return &cli.Command{
		Name:  "ban",
		Usage: "Track guild bans",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Record a ban",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "guild", Required: true},
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
					moderatorFlag(),
					&cli.StringFlag{Name: "reason", Aliases: []string{"r"}},
				},
				Action: withApp(func(ctx context.Context, c *cli.Command, app *setup.App) error {
					guildID, err := requiredID(c, "guild")
					if err != nil {
						return err
					}
					userID, err := requiredID(c, "user")
					if err != nil {
						return err
					}
					moderatorID, err := requiredID(c, "moderator")
					if err != nil {
						return err
					}

					if err := app.Bans.Ban(ctx, guildID, userID, moderatorID, utils.NormalizeReason(c.String("reason"))); err != nil {
						return err
					}

					return printResult(c, map[string]any{"banned": true}, func() string {
						return fmt.Sprintf("Banned %s in %s", userID, guildID)
					})
				}),
			},
			{
				Name:  "remove",
				Usage: "Lift a user's active ban in a guild",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "guild", Required: true},
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
				},
				Action: withApp(func(ctx context.Context, c *cli.Command, app *setup.App) error {
					guildID, err := requiredID(c, "guild")
					if err != nil {
						return err
					}
					userID, err := requiredID(c, "user")
					if err != nil {
						return err
					}

					lifted, err := app.Bans.Unban(ctx, guildID, userID)
					if err != nil {
						return err
					}

					return printResult(c, map[string]any{"unbanned": lifted}, func() string {
						if !lifted {
							return fmt.Sprintf("%s has no active ban in %s", userID, guildID)
						}
						return fmt.Sprintf("Unbanned %s in %s", userID, guildID)
					})
				}),
			},
			{
				Name:  "list",
				Usage: "List every ban recorded for a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
				},
				Action: withApp(func(ctx context.Context, c *cli.Command, app *setup.App) error {
					userID, err := requiredID(c, "user")
					if err != nil {
						return err
					}

					if c.Bool("json") {
						bans, err := app.Bans.ListBans(ctx, userID)
						if err != nil {
							return err
						}
						return printJSON(bans)
					}

					text, err := app.Bans.FormatBans(ctx, userID)
					if err != nil {
						return err
					}
					if text == "" {
						text = "No bans recorded"
					}
					return printResult(c, nil, func() string { return text })
				}),
			},
		},
	}
}
