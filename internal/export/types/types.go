package types

import (
	"strconv"
	"time"

	dbTypes "github.com/robalyx/warden/internal/database/types"
)

// Record is one exported infraction row. Subject is either the subject's
// Discord ID or its salted hash.
type Record struct {
	ID          int64
	GuildID     string
	Subject     string
	Type        string
	Reason      string
	Duration    *time.Duration
	Created     time.Time
	CreatedByID string
	ExpiresAt   *time.Time
	RescindedAt *time.Time
	DeletedAt   *time.Time
}

// NewRecord flattens a summary into an export row.
func NewRecord(s *dbTypes.InfractionSummary) *Record {
	record := &Record{
		ID:          s.ID,
		GuildID:     s.GuildID.String(),
		Subject:     s.SubjectID.String(),
		Type:        s.Type.String(),
		Reason:      s.Reason,
		Duration:    s.Duration,
		Created:     s.CreateAction.Created,
		CreatedByID: s.CreateAction.CreatedByID.String(),
		ExpiresAt:   s.ExpiresAt(),
	}
	if s.RescindAction != nil {
		record.RescindedAt = &s.RescindAction.Created
	}
	if s.DeleteAction != nil {
		record.DeletedAt = &s.DeleteAction.Created
	}
	return record
}

// DurationSeconds renders the duration in whole seconds, empty when absent.
func (r *Record) DurationSeconds() string {
	if r.Duration == nil {
		return ""
	}
	return strconv.FormatInt(int64(r.Duration.Seconds()), 10)
}

// FormatTime renders an optional timestamp as RFC 3339, empty when absent.
func FormatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
