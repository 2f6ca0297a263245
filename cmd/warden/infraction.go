package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/setup"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/urfave/cli/v3"
)

var ErrInfractionNotFound = errors.New("infraction not found")

func infractionCommand() *cli.Command {
	return &cli.Command{
		Name:  "infraction",
		Usage: "Create and manage infractions",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Issue a new infraction",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "guild", Required: true, Usage: "Guild the infraction is issued in"},
					&cli.StringFlag{Name: "subject", Required: true, Usage: "User the infraction is issued against"},
					&cli.StringFlag{Name: "moderator", Aliases: []string{"m"}, Required: true, Usage: "Moderator issuing the infraction"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: enum.InfractionTypeWarning.String(), Usage: "Notice, Warning, Mute or Ban"},
					&cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Usage: "Reason shown to the subject"},
					&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: "How long a Mute or Ban lasts (omit for permanent)"},
					&cli.BoolFlag{Name: "dedup", Usage: "Skip if the subject already has an active infraction of this type in the guild"},
				},
				Action: withApp(createInfraction),
			},
			{
				Name:      "read",
				Usage:     "Show a single infraction",
				ArgsUsage: "ID",
				Action:    withApp(readInfraction),
			},
			{
				Name:  "search",
				Usage: "Search infractions",
				Flags: append(criteriaFlags(),
					&cli.StringSliceFlag{Name: "sort", Aliases: []string{"s"}, Usage: "Sort by NAME[:asc|desc] (repeatable)"},
					&cli.IntFlag{Name: "offset", Usage: "Index of the first record to return"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Page size (defaults to paging.default_page_size)"},
					&cli.BoolFlag{Name: "all", Usage: "Return every match without paging"},
					&cli.BoolFlag{Name: "ids", Usage: "Only print matching IDs"},
				),
				Action: withApp(searchInfractions),
			},
			{
				Name:      "rescind",
				Usage:     "Rescind an infraction",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{moderatorFlag()},
				Action:    withApp(rescindInfraction),
			},
			{
				Name:      "delete",
				Usage:     "Delete an infraction",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{moderatorFlag()},
				Action:    withApp(deleteInfraction),
			},
			{
				Name:   "clear",
				Usage:  "Rescind every active infraction matching the filters",
				Flags:  append(criteriaFlags(), moderatorFlag()),
				Action: withApp(clearInfractions),
			},
		},
	}
}

func moderatorFlag() cli.Flag {
	return &cli.StringFlag{Name: "moderator", Aliases: []string{"m"}, Required: true, Usage: "Moderator performing the action"}
}

func createInfraction(ctx context.Context, c *cli.Command, app *setup.App) error {
	guildID, err := requiredID(c, "guild")
	if err != nil {
		return err
	}
	subjectID, err := requiredID(c, "subject")
	if err != nil {
		return err
	}
	moderatorID, err := requiredID(c, "moderator")
	if err != nil {
		return err
	}

	infractionType, err := enum.InfractionTypeString(c.String("type"))
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidInfractionType, err)
	}

	data := &types.InfractionCreationData{
		GuildID:     guildID,
		SubjectID:   subjectID,
		CreatedByID: moderatorID,
		Type:        infractionType,
		Reason:      utils.NormalizeReason(c.String("reason")),
	}
	if c.IsSet("duration") {
		data.Duration = utils.Ptr(c.Duration("duration"))
	}

	var dedup *types.InfractionSearchCriteria
	if c.Bool("dedup") {
		dedup = &types.InfractionSearchCriteria{
			GuildID:     &guildID,
			SubjectID:   &subjectID,
			Types:       []enum.InfractionType{infractionType},
			IsRescinded: utils.Ptr(false),
			IsDeleted:   utils.Ptr(false),
		}
	}

	id, created, err := app.Infractions.TryCreate(ctx, data, dedup)
	if err != nil {
		return err
	}

	return printResult(c, map[string]any{"id": id, "created": created}, func() string {
		if !created {
			return "Skipped: an active infraction of this type already exists"
		}
		return fmt.Sprintf("Created infraction %d", id)
	})
}

func readInfraction(ctx context.Context, c *cli.Command, app *setup.App) error {
	id, err := infractionID(c)
	if err != nil {
		return err
	}

	summary, err := app.Infractions.Read(ctx, id)
	if err != nil {
		return err
	}
	if summary == nil {
		return fmt.Errorf("%w: %d", ErrInfractionNotFound, id)
	}

	return printSummaries(c, []*types.InfractionSummary{summary})
}

func searchInfractions(ctx context.Context, c *cli.Command, app *setup.App) error {
	criteria, err := parseCriteria(c)
	if err != nil {
		return err
	}

	if c.Bool("ids") {
		ids, err := app.Infractions.SearchIDs(ctx, criteria)
		if err != nil {
			return err
		}
		slices.Sort(ids)
		return printResult(c, ids, func() string { return formatIDs(ids) })
	}

	sorting, err := parseSorting(c.StringSlice("sort"))
	if err != nil {
		return err
	}

	if c.Bool("all") {
		summaries, err := app.Infractions.SearchSummaries(ctx, criteria, sorting)
		if err != nil {
			return err
		}
		return printSummaries(c, summaries)
	}

	paging := query.PagingCriteria{
		FirstRecordIndex: int(c.Int("offset")),
		PageSize:         app.Config.Store.Paging.DefaultPageSize,
	}
	if c.IsSet("limit") {
		paging.PageSize = int(c.Int("limit"))
	}

	page, err := app.Infractions.SearchSummariesPaged(ctx, criteria, sorting, paging)
	if err != nil {
		return err
	}

	return printPage(c, paging, page)
}

func rescindInfraction(ctx context.Context, c *cli.Command, app *setup.App) error {
	return appendAction(ctx, c, app, "rescinded", app.Infractions.TryRescind)
}

func deleteInfraction(ctx context.Context, c *cli.Command, app *setup.App) error {
	return appendAction(ctx, c, app, "deleted", app.Infractions.TryDelete)
}

func clearInfractions(ctx context.Context, c *cli.Command, app *setup.App) error {
	criteria, err := parseCriteria(c)
	if err != nil {
		return err
	}
	moderatorID, err := requiredID(c, "moderator")
	if err != nil {
		return err
	}

	count, err := app.Infractions.RescindMatching(ctx, criteria, moderatorID)
	if err != nil {
		return err
	}

	return printResult(c, map[string]any{"rescinded": count}, func() string {
		return fmt.Sprintf("Rescinded %d infractions", count)
	})
}
