package events

import (
	"time"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMessageDeleted EventType = "message_deleted"
)

// Event represents a platform event routed to the archive pipelines.
type Event struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	GuildID   domain.GuildID   `json:"guild_id,omitempty"`
	ChannelID domain.ChannelID `json:"channel_id"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   interface{}      `json:"payload"`
}

// MessageDeletedPayload describes a live message that disappeared from a channel.
type MessageDeletedPayload struct {
	MessageID domain.MessageID `json:"message_id"`
	AuthorID  domain.UserID    `json:"author_id"`
	// CleanContent is the live copy of the message, empty when the platform
	// no longer had it cached.
	CleanContent string `json:"clean_content,omitempty"`
	Ephemeral    bool   `json:"ephemeral,omitempty"`
}
