package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/urfave/cli/v3"
)

var ErrMissingID = errors.New("infraction ID argument required")

// criteriaFlags are the search filters shared by every command selecting infractions.
func criteriaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "guild", Usage: "Only infractions issued in this guild"},
		&cli.StringFlag{Name: "subject", Usage: "Only infractions issued against this user"},
		&cli.StringFlag{Name: "created-by", Usage: "Only infractions created by this moderator"},
		&cli.StringSliceFlag{Name: "type", Usage: "Only these infraction types (repeatable)"},
		&cli.StringFlag{Name: "created-from", Usage: "Created at or after this RFC 3339 time"},
		&cli.StringFlag{Name: "created-to", Usage: "Created at or before this RFC 3339 time"},
		&cli.StringFlag{Name: "expires-from", Usage: "Expiring at or after this RFC 3339 time"},
		&cli.StringFlag{Name: "expires-to", Usage: "Expiring at or before this RFC 3339 time"},
		&cli.StringFlag{Name: "rescinded", Usage: "Filter on rescinded state (true or false)"},
		&cli.StringFlag{Name: "deleted", Usage: "Filter on deleted state (true or false)"},
	}
}

// parseCriteria builds search criteria from the flags that were set.
func parseCriteria(c *cli.Command) (*types.InfractionSearchCriteria, error) {
	var (
		criteria types.InfractionSearchCriteria
		err      error
	)

	if criteria.GuildID, err = optionalID(c, "guild"); err != nil {
		return nil, err
	}
	if criteria.SubjectID, err = optionalID(c, "subject"); err != nil {
		return nil, err
	}
	if criteria.CreatedByID, err = optionalID(c, "created-by"); err != nil {
		return nil, err
	}

	for _, name := range c.StringSlice("type") {
		t, err := enum.InfractionTypeString(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrInvalidInfractionType, err)
		}
		criteria.Types = append(criteria.Types, t)
	}

	if criteria.CreatedRange, err = optionalRange(c, "created-from", "created-to"); err != nil {
		return nil, err
	}
	if criteria.ExpiresRange, err = optionalRange(c, "expires-from", "expires-to"); err != nil {
		return nil, err
	}

	if criteria.IsRescinded, err = optionalBool(c, "rescinded"); err != nil {
		return nil, err
	}
	if criteria.IsDeleted, err = optionalBool(c, "deleted"); err != nil {
		return nil, err
	}

	return &criteria, nil
}

// parseSorting reads entries like "created:desc". The direction defaults to ascending.
func parseSorting(values []string) ([]query.SortingCriteria, error) {
	sorting := make([]query.SortingCriteria, 0, len(values))
	for _, value := range values {
		name, dir, _ := strings.Cut(value, ":")
		if name == "" {
			return nil, fmt.Errorf("%w: %q", query.ErrUnknownSortProperty, value)
		}

		direction := query.SortDirectionAscending
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			direction = query.SortDirectionDescending
		default:
			d, err := query.SortDirectionString(dir)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", query.ErrInvalidSortDirection, value)
			}
			direction = d
		}

		sorting = append(sorting, query.SortingCriteria{PropertyName: name, Direction: direction})
	}
	return sorting, nil
}

// requiredID parses a snowflake flag that must be present.
func requiredID(c *cli.Command, name string) (snowflake.ID, error) {
	id, err := snowflake.Parse(c.String(name))
	if err != nil {
		return 0, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return id, nil
}

// infractionID parses the first positional argument.
func infractionID(c *cli.Command) (int64, error) {
	if c.Args().Len() != 1 {
		return 0, ErrMissingID
	}

	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid infraction ID: %w", err)
	}
	return id, nil
}

func optionalID(c *cli.Command, name string) (*snowflake.ID, error) {
	if !c.IsSet(name) {
		return nil, nil //nolint:nilnil // unset flag
	}
	id, err := requiredID(c, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalBool(c *cli.Command, name string) (*bool, error) {
	if !c.IsSet(name) {
		return nil, nil //nolint:nilnil // unset flag
	}
	v, err := strconv.ParseBool(c.String(name))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return utils.Ptr(v), nil
}

func optionalRange(c *cli.Command, fromName, toName string) (*types.DateTimeRange, error) {
	if !c.IsSet(fromName) && !c.IsSet(toName) {
		return nil, nil //nolint:nilnil // unset flags
	}

	var r types.DateTimeRange
	for name, dst := range map[string]**time.Time{fromName: &r.From, toName: &r.To} {
		if !c.IsSet(name) {
			continue
		}
		t, err := time.Parse(time.RFC3339, c.String(name))
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", name, err)
		}
		*dst = &t
	}
	return &r, nil
}
