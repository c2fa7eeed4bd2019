package domain

import "time"

// DiffAction enumerates archive mutations reported to the audit log.
type DiffAction string

const (
	DiffActionDelete DiffAction = "delete"
)

// Member is a platform user resolved within a guild.
type Member struct {
	UserID      UserID
	GuildID     GuildID
	Username    string
	DisplayName string
	Roles       []RoleID
	ManageGuild bool
}

// AuditCorrelation is the platform audit trail's view of a deletion.
type AuditCorrelation struct {
	ExecutorID *UserID
	TargetID   UserID
	Timestamp  time.Time
}

// DiffState is one side of a diff record.
type DiffState struct {
	Content string `json:"content"`
}

// MessageRef identifies the message a diff record is about.
type MessageRef struct {
	ID        MessageID `json:"id"`
	ChannelID ChannelID `json:"channel_id"`
	AuthorID  UserID    `json:"author_id"`
}

// DiffRecord is handed to the audit log after an archive mutation.
type DiffRecord struct {
	ID         string     `json:"id"`
	Action     DiffAction `json:"action"`
	Before     DiffState  `json:"before"`
	After      DiffState  `json:"after"`
	ExecutorID *UserID    `json:"executor_id,omitempty"`
	Executor   *Member    `json:"executor,omitempty"`
	Target     MessageRef `json:"target"`
	TicketID   TicketID   `json:"ticket_id"`
	GuildID    GuildID    `json:"guild_id"`
	OccurredAt time.Time  `json:"occurred_at"`
}
