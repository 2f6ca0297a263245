package enum

// InfractionType represents the kind of moderation action issued against a user.
//
//go:generate go tool enumer -type=InfractionType -trimprefix=InfractionType
type InfractionType int

const (
	// InfractionTypeNotice records a note about a user without any penalty.
	InfractionTypeNotice InfractionType = iota
	// InfractionTypeWarning is a formal warning.
	InfractionTypeWarning
	// InfractionTypeMute silences the user, usually for a limited duration.
	InfractionTypeMute
	// InfractionTypeBan removes the user from the guild.
	InfractionTypeBan
)

// Expires reports whether infractions of this type are meaningful with a duration.
func (i InfractionType) Expires() bool {
	return i == InfractionTypeMute || i == InfractionTypeBan
}

// ModerationActionType represents a lifecycle event recorded against an infraction.
//
//go:generate go tool enumer -type=ModerationActionType -trimprefix=ModerationActionType
type ModerationActionType int

const (
	ModerationActionTypeInfractionCreated ModerationActionType = iota
	ModerationActionTypeInfractionRescinded
	ModerationActionTypeInfractionDeleted
)
