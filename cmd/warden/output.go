package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/setup"
	"github.com/urfave/cli/v3"
)

// appendAction runs a rescind or delete and reports whether it took effect.
func appendAction(
	ctx context.Context, c *cli.Command, app *setup.App, verb string,
	fn func(ctx context.Context, id int64, actor snowflake.ID) (bool, error),
) error {
	id, err := infractionID(c)
	if err != nil {
		return err
	}
	moderatorID, err := requiredID(c, "moderator")
	if err != nil {
		return err
	}

	ok, err := fn(ctx, id, moderatorID)
	if err != nil {
		return err
	}

	return printResult(c, map[string]any{"id": id, verb: ok}, func() string {
		if !ok {
			return fmt.Sprintf("Infraction %d was not %s (missing or already %s)", id, verb, verb)
		}
		return fmt.Sprintf("Infraction %d %s", id, verb)
	})
}

// printResult writes v as JSON with --json, otherwise the text returned by text.
func printResult(c *cli.Command, v any, text func() string) error {
	if c.Bool("json") {
		return printJSON(v)
	}
	_, err := fmt.Fprintln(os.Stdout, text())
	return err
}

func printJSON(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func printSummaries(c *cli.Command, summaries []*types.InfractionSummary) error {
	if c.Bool("json") {
		return printJSON(summaries)
	}
	return writeTable(summaries)
}

func printPage(c *cli.Command, paging query.PagingCriteria, page *query.RecordsPage[*types.InfractionSummary]) error {
	if c.Bool("json") {
		return printJSON(page)
	}

	if err := writeTable(page.Records); err != nil {
		return err
	}

	first := min(int64(paging.FirstRecordIndex+1), page.FilteredRecordCount)
	last := int64(paging.FirstRecordIndex + len(page.Records))
	_, err := fmt.Fprintf(os.Stdout, "\nShowing %d-%d of %d matching (%d total)\n",
		first, last, page.FilteredRecordCount, page.TotalRecordCount)
	return err
}

func writeTable(summaries []*types.InfractionSummary) error {
	now := time.Now()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGUILD\tSUBJECT\tTYPE\tCREATED\tBY\tEXPIRES\tSTATUS\tREASON")
	for _, s := range summaries {
		expires := "never"
		if at := s.ExpiresAt(); at != nil {
			expires = at.Format(time.RFC3339)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.GuildID, s.SubjectID, s.Type,
			s.CreateAction.Created.Format(time.RFC3339), s.CreateAction.CreatedByID,
			expires, status(s, now), firstLine(s.Reason))
	}
	return w.Flush()
}

func status(s *types.InfractionSummary, now time.Time) string {
	switch {
	case s.IsDeleted():
		return "deleted"
	case s.IsRescinded():
		return "rescinded"
	case s.IsActive(now):
		return "active"
	default:
		return "expired"
	}
}

func firstLine(s string) string {
	line, _, found := strings.Cut(s, "\n")
	if found {
		return line + " ..."
	}
	return line
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, "\n")
}
