package dto

import "github.com/spec-kit/ticket-archiver/internal/domain"

// MessageDeletedRequest is the ingress payload for a deleted live message.
type MessageDeletedRequest struct {
	GuildID      domain.GuildID   `json:"guild_id"`
	ChannelID    domain.ChannelID `json:"channel_id"`
	MessageID    domain.MessageID `json:"message_id"`
	AuthorID     domain.UserID    `json:"author_id"`
	CleanContent string           `json:"clean_content"`
	Ephemeral    bool             `json:"ephemeral"`
}

// EventAccepted acknowledges a queued event.
type EventAccepted struct {
	EventID string `json:"event_id"`
}
