package types

import (
	"time"
)

// GuildBan is a ban tracked for a user in a guild. Unbanning keeps the record
// and only marks it inactive.
type GuildBan struct {
	ID        int64     `bun:",pk,autoincrement"` // Unique numeric identifier
	GuildID   int64     `bun:",notnull"`          // Guild the user was banned from
	UserID    int64     `bun:",notnull"`          // Discord ID of the banned user
	CreatorID int64     `bun:",notnull"`          // Discord ID of the moderator who issued the ban
	Reason    string    `bun:",type:text"`        // Reason given for the ban
	Active    bool      `bun:",notnull"`          // Whether the ban is still in effect
	CreatedAt time.Time `bun:",notnull"`          // When the ban was issued
	UpdatedAt time.Time `bun:",notnull"`          // When the record was last updated
}
