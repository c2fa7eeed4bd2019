package domain

import (
	"sort"
	"time"
)

// ArchivedMessage is the durable record of one message seen in a ticket channel.
// Content holds the stored form, either a plaintext payload or an encrypted envelope.
type ArchivedMessage struct {
	ID        MessageID
	TicketID  TicketID
	AuthorID  UserID
	Author    *User
	Sequence  int64
	Content   string
	Payload   *MessagePayload
	Deleted   bool
	Edited    bool
	External  bool
	CreatedAt time.Time
}

// MessagePayload is the decoded body of an archived message.
type MessagePayload struct {
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
	Embeds      int          `json:"embeds,omitempty"`
}

// Attachment stores metadata for an archived message attachment.
type Attachment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// SortMessages orders messages by creation time, breaking ties on the original sequence.
func SortMessages(messages []ArchivedMessage) {
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}
		return messages[i].Sequence < messages[j].Sequence
	})
}

// WithoutExternal drops messages relayed from outside the ticket channel.
func WithoutExternal(messages []ArchivedMessage) []ArchivedMessage {
	kept := make([]ArchivedMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.External {
			continue
		}
		kept = append(kept, msg)
	}
	return kept
}
