package types

import (
	"fmt"
	"slices"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/types/enum"
)

var ErrInvalidTimeRange = fmt.Errorf("%w: time range starts after it ends", query.ErrInvalidInput)

// DateTimeRange is an inclusive time range. Either bound may be absent.
type DateTimeRange struct {
	From *time.Time
	To   *time.Time
}

// Validate checks that From does not come after To when both are present.
func (r *DateTimeRange) Validate() error {
	if r == nil || r.From == nil || r.To == nil {
		return nil
	}
	if r.From.After(*r.To) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidTimeRange, r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t lies inside the range.
func (r *DateTimeRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// InfractionSearchCriteria is a set of optional filters combined with AND.
// A nil field or an empty Types slice places no constraint on the result.
type InfractionSearchCriteria struct {
	GuildID      *snowflake.ID
	SubjectID    *snowflake.ID
	CreatedByID  *snowflake.ID
	Types        []enum.InfractionType
	CreatedRange *DateTimeRange
	ExpiresRange *DateTimeRange
	IsRescinded  *bool
	IsDeleted    *bool
}

// Validate checks the criteria before any store access. Nil criteria are valid.
func (c *InfractionSearchCriteria) Validate() error {
	if c == nil {
		return nil
	}

	for _, id := range []*snowflake.ID{c.GuildID, c.SubjectID, c.CreatedByID} {
		if id == nil {
			continue
		}
		if _, err := StorageID(*id); err != nil {
			return err
		}
	}

	for _, t := range c.Types {
		if !t.IsAInfractionType() {
			return fmt.Errorf("%w: %d", ErrInvalidInfractionType, t)
		}
	}

	if err := c.CreatedRange.Validate(); err != nil {
		return fmt.Errorf("created range: %w", err)
	}
	if err := c.ExpiresRange.Validate(); err != nil {
		return fmt.Errorf("expires range: %w", err)
	}

	return nil
}

// SummaryFilters returns the in-memory filter chain for the criteria.
// Each step is active only when its criteria field is present.
func (c *InfractionSearchCriteria) SummaryFilters() []query.Filter[query.Slice[*InfractionSummary]] {
	if c == nil {
		return nil
	}

	created := func(s *InfractionSummary) time.Time { return s.CreateAction.Created }

	return []query.Filter[query.Slice[*InfractionSummary]]{
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			return s.GuildID == *c.GuildID
		}), c.GuildID != nil),
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			return slices.Contains(c.Types, s.Type)
		}), len(c.Types) > 0),
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			return s.SubjectID == *c.SubjectID
		}), c.SubjectID != nil),
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			return !created(s).Before(*c.CreatedRange.From)
		}), c.CreatedRange != nil && c.CreatedRange.From != nil),
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			return !created(s).After(*c.CreatedRange.To)
		}), c.CreatedRange != nil && c.CreatedRange.To != nil),
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			return s.CreateAction.CreatedByID == *c.CreatedByID
		}), c.CreatedByID != nil),
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			return s.IsRescinded() == *c.IsRescinded
		}), c.IsRescinded != nil),
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			return s.IsDeleted() == *c.IsDeleted
		}), c.IsDeleted != nil),
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			expires := s.ExpiresAt()
			return expires != nil && !expires.Before(*c.ExpiresRange.From)
		}), c.ExpiresRange != nil && c.ExpiresRange.From != nil),
		query.FilterBy(query.Match(func(s *InfractionSummary) bool {
			expires := s.ExpiresAt()
			return expires != nil && !expires.After(*c.ExpiresRange.To)
		}), c.ExpiresRange != nil && c.ExpiresRange.To != nil),
	}
}

// Matches reports whether a single summary satisfies every present filter.
func (c *InfractionSearchCriteria) Matches(s *InfractionSummary) bool {
	return len(query.Chain(query.Slice[*InfractionSummary]{s}, c.SummaryFilters()...)) == 1
}

// InfractionSortProperty is a sortable summary property, expressed both as a SQL
// column expression and as a comparator over summaries.
type InfractionSortProperty struct {
	Column  string
	Compare query.Comparator[*InfractionSummary]
}

// Sortable infraction property names.
const (
	SortByID          = "id"
	SortByGuildID     = "guild_id"
	SortBySubjectID   = "subject_id"
	SortByType        = "type"
	SortByReason      = "reason"
	SortByDuration    = "duration"
	SortByCreated     = "created"
	SortByCreatedByID = "created_by_id"
	SortByExpires     = "expires"
	SortByRescinded   = "rescinded"
	SortByDeleted     = "deleted"
)

// ExpiresColumn computes the expiration timestamp of an infraction in SQL.
// Durations are stored in nanoseconds.
const ExpiresColumn = "create_action.created + (infraction.duration / 1000) * interval '1 microsecond'"

// InfractionSortProperties is the closed registry of sortable summary properties.
var InfractionSortProperties = query.Registry[InfractionSortProperty]{ //nolint:gochecknoglobals // -
	SortByID: {
		Column:  "infraction.id",
		Compare: query.By(func(s *InfractionSummary) int64 { return s.ID }),
	},
	SortByGuildID: {
		Column:  "infraction.guild_id",
		Compare: query.By(func(s *InfractionSummary) uint64 { return uint64(s.GuildID) }),
	},
	SortBySubjectID: {
		Column:  "infraction.subject_id",
		Compare: query.By(func(s *InfractionSummary) uint64 { return uint64(s.SubjectID) }),
	},
	SortByType: {
		Column:  "infraction.type",
		Compare: query.By(func(s *InfractionSummary) enum.InfractionType { return s.Type }),
	},
	SortByReason: {
		Column:  "infraction.reason",
		Compare: query.By(func(s *InfractionSummary) string { return s.Reason }),
	},
	SortByDuration: {
		Column:  "infraction.duration",
		Compare: query.ByOptional(func(s *InfractionSummary) *time.Duration { return s.Duration }),
	},
	SortByCreated: {
		Column:  "create_action.created",
		Compare: query.ByTime(func(s *InfractionSummary) time.Time { return s.CreateAction.Created }),
	},
	SortByCreatedByID: {
		Column:  "create_action.created_by_id",
		Compare: query.By(func(s *InfractionSummary) uint64 { return uint64(s.CreateAction.CreatedByID) }),
	},
	SortByExpires: {
		Column:  ExpiresColumn,
		Compare: query.ByOptionalTime(func(s *InfractionSummary) *time.Time { return s.ExpiresAt() }),
	},
	SortByRescinded: {
		Column: "rescind_action.created",
		Compare: query.ByOptionalTime(func(s *InfractionSummary) *time.Time {
			if s.RescindAction == nil {
				return nil
			}
			return &s.RescindAction.Created
		}),
	},
	SortByDeleted: {
		Column: "delete_action.created",
		Compare: query.ByOptionalTime(func(s *InfractionSummary) *time.Time {
			if s.DeleteAction == nil {
				return nil
			}
			return &s.DeleteAction.Created
		}),
	},
}

// IDTieBreak is appended to every paged sort so pages are deterministic.
var IDTieBreak = query.SortKey[InfractionSortProperty]{ //nolint:gochecknoglobals // -
	Key:       InfractionSortProperties[SortByID],
	Direction: query.SortDirectionAscending,
}
