package types

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/types/enum"
)

// ModerationActionBrief is the read-only projection of a moderation action.
type ModerationActionBrief struct {
	ID          int64        `json:"id"`
	Created     time.Time    `json:"created"`
	CreatedByID snowflake.ID `json:"createdById"`
}

// InfractionSummary is the read-only projection returned by every read and search.
// It is never used as the basis for a write.
type InfractionSummary struct {
	ID            int64                  `json:"id"`
	GuildID       snowflake.ID           `json:"guildId"`
	SubjectID     snowflake.ID           `json:"subjectId"`
	Type          enum.InfractionType    `json:"type"`
	Reason        string                 `json:"reason"`
	Duration      *time.Duration         `json:"duration,omitempty"`
	CreateAction  ModerationActionBrief  `json:"createAction"`
	RescindAction *ModerationActionBrief `json:"rescindAction,omitempty"`
	DeleteAction  *ModerationActionBrief `json:"deleteAction,omitempty"`
}

// NewInfractionSummary projects an infraction loaded together with its actions.
func NewInfractionSummary(i *Infraction) *InfractionSummary {
	summary := &InfractionSummary{
		ID:            i.ID,
		GuildID:       DiscordID(i.GuildID),
		SubjectID:     DiscordID(i.SubjectID),
		Type:          i.Type,
		Reason:        i.Reason,
		Duration:      i.Duration,
		RescindAction: briefOf(i.RescindAction),
		DeleteAction:  briefOf(i.DeleteAction),
	}
	if brief := briefOf(i.CreateAction); brief != nil {
		summary.CreateAction = *brief
	}
	return summary
}

func briefOf(action *ModerationAction) *ModerationActionBrief {
	if action == nil || action.ID == 0 {
		return nil
	}
	return &ModerationActionBrief{
		ID:          action.ID,
		Created:     action.Created,
		CreatedByID: DiscordID(action.CreatedByID),
	}
}

// ExpiresAt returns when the infraction expires, or nil if it never does.
func (s *InfractionSummary) ExpiresAt() *time.Time {
	if s.Duration == nil {
		return nil
	}
	expires := s.CreateAction.Created.Add(*s.Duration)
	return &expires
}

// IsRescinded reports whether a rescind action is attached.
func (s *InfractionSummary) IsRescinded() bool {
	return s.RescindAction != nil
}

// IsDeleted reports whether a delete action is attached.
func (s *InfractionSummary) IsDeleted() bool {
	return s.DeleteAction != nil
}

// IsActive reports whether the infraction is neither rescinded, deleted nor expired at now.
func (s *InfractionSummary) IsActive(now time.Time) bool {
	if s.IsRescinded() || s.IsDeleted() {
		return false
	}
	expires := s.ExpiresAt()
	return expires == nil || expires.After(now)
}
