package domain

import "time"

// Ticket is the archived aggregate for one support conversation.
type Ticket struct {
	ID               TicketID
	GuildID          GuildID
	Number           int
	Category         Category
	Topic            string
	CreatedBy        *User
	ClaimedBy        *User
	ClosedBy         *User
	ClosedReason     string
	CreatedAt        time.Time
	ClosedAt         *time.Time
	Feedback         *Feedback
	PinnedMessageIDs []MessageID
	QuestionAnswers  []QuestionAnswer
	ArchivedMessages []ArchivedMessage
	Guild            Settings
}

// Category groups tickets and carries the staff roles allowed to see them.
type Category struct {
	ID          int
	Name        string
	ChannelName string
	StaffRoles  []RoleID
}

// User is an archived snapshot of a platform user.
type User struct {
	ID          UserID
	Username    string
	DisplayName string
	Bot         bool
}

// Feedback is the optional rating left after a ticket is closed.
type Feedback struct {
	Rating  int
	Comment string
}

// QuestionAnswer pairs a category question with the creator's answer.
type QuestionAnswer struct {
	Question string
	Value    string
}

// Settings holds per-guild archival settings.
type Settings struct {
	GuildID     GuildID
	Locale      string
	Archive     bool
	Footer      string
	ErrorColour string
}

// HasPinned reports whether the message id is in the ticket's pinned list.
func (t *Ticket) HasPinned(id MessageID) bool {
	for _, pinned := range t.PinnedMessageIDs {
		if pinned == id {
			return true
		}
	}
	return false
}
