package types

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/warden/internal/database/query"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/uptrace/bun"
)

var (
	ErrNilCreationData       = fmt.Errorf("%w: creation data is required", query.ErrInvalidInput)
	ErrInvalidInfractionType = fmt.Errorf("%w: unknown infraction type", query.ErrInvalidInput)
	ErrInvalidDuration       = fmt.Errorf("%w: duration must be positive", query.ErrInvalidInput)
	ErrIdentifierOutOfRange  = fmt.Errorf("%w: identifier does not fit in storage range", query.ErrInvalidInput)
	ErrInfractionNotFound    = errors.New("infraction not found")
	ErrActionNotAppendable   = errors.New("moderation action type cannot be appended")
)

// Infraction is a moderation action issued against a user within a guild.
// Once created it is only ever changed by attaching a rescind or delete action.
type Infraction struct {
	bun.BaseModel `bun:"table:infractions,alias:infraction"`

	ID              int64               `bun:",pk,autoincrement"` // Assigned by the store
	GuildID         int64               `bun:",notnull"`          // Guild the infraction was issued in
	SubjectID       int64               `bun:",notnull"`          // User the infraction was issued against
	Type            enum.InfractionType `bun:",notnull"`          // Kind of infraction
	Reason          string              `bun:",notnull"`          // Free-text reason given by the moderator
	Duration        *time.Duration      `bun:",nullzero"`         // Only set for infractions that expire
	CreateActionID  int64               `bun:",notnull"`          // Action that created the infraction
	RescindActionID *int64              `bun:",nullzero"`         // Set once when the infraction is rescinded
	DeleteActionID  *int64              `bun:",nullzero"`         // Set once when the infraction is deleted

	CreateAction  *ModerationAction `bun:"rel:belongs-to,join:create_action_id=id" json:"-"`
	RescindAction *ModerationAction `bun:"rel:belongs-to,join:rescind_action_id=id" json:"-"`
	DeleteAction  *ModerationAction `bun:"rel:belongs-to,join:delete_action_id=id" json:"-"`
}

// ModerationAction is an immutable log entry of a lifecycle event of an infraction.
type ModerationAction struct {
	bun.BaseModel `bun:"table:moderation_actions,alias:moderation_action"`

	ID           int64                     `bun:",pk,autoincrement"`
	Type         enum.ModerationActionType `bun:",notnull"`
	Created      time.Time                 `bun:",notnull"`
	CreatedByID  int64                     `bun:",notnull"`  // Discord ID of the moderator
	InfractionID *int64                    `bun:",nullzero"` // Backfilled after the infraction insert
}

// InfractionCreationData describes a new infraction as it arrives from the moderation layer.
type InfractionCreationData struct {
	GuildID     snowflake.ID
	SubjectID   snowflake.ID
	CreatedByID snowflake.ID
	Type        enum.InfractionType
	Reason      string
	Duration    *time.Duration
}

// Validate checks the creation data before any store access.
func (d *InfractionCreationData) Validate() error {
	if d == nil {
		return ErrNilCreationData
	}

	if !d.Type.IsAInfractionType() {
		return fmt.Errorf("%w: %d", ErrInvalidInfractionType, d.Type)
	}

	if d.Duration != nil && *d.Duration <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, *d.Duration)
	}

	for _, id := range []snowflake.ID{d.GuildID, d.SubjectID, d.CreatedByID} {
		if _, err := StorageID(id); err != nil {
			return err
		}
	}

	return nil
}

// ToEntity builds the infraction and its Created action. The action's infraction
// reference stays nil until the infraction has been assigned an identifier.
func (d *InfractionCreationData) ToEntity(now time.Time) *Infraction {
	return &Infraction{
		GuildID:   int64(d.GuildID),   //nolint:gosec // range checked by Validate
		SubjectID: int64(d.SubjectID), //nolint:gosec // range checked by Validate
		Type:      d.Type,
		Reason:    d.Reason,
		Duration:  d.Duration,
		CreateAction: &ModerationAction{
			Type:        enum.ModerationActionTypeInfractionCreated,
			Created:     now,
			CreatedByID: int64(d.CreatedByID), //nolint:gosec // range checked by Validate
		},
	}
}

// StorageID converts a Discord snowflake to the signed integer stored in the database.
func StorageID(id snowflake.ID) (int64, error) {
	if uint64(id) > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrIdentifierOutOfRange, uint64(id))
	}
	return int64(id), nil
}

// DiscordID converts a stored identifier back to a Discord snowflake.
func DiscordID(id int64) snowflake.ID {
	return snowflake.ID(uint64(id)) //nolint:gosec // stored ids are never negative
}
