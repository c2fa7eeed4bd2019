package transcript

import (
	"strings"
	"time"

	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/locale"
)

const ratingScale = 5

// Data is what the markdown template is executed against.
type Data struct {
	ChannelName        string
	GuildName          string
	Pinned             string
	CreatedAtFull      string
	CreatedAtTimestamp string
	ClosedAtFull       string
	Ticket             TicketView
}

// TicketView is a decrypted, template friendly ticket.
type TicketView struct {
	ID              domain.TicketID
	Number          int
	Topic           string
	Category        string
	CreatedBy       *domain.User
	ClaimedBy       *domain.User
	ClosedBy        *domain.User
	ClosedReason    string
	Feedback        *domain.Feedback
	QuestionAnswers []domain.QuestionAnswer
	Messages        []MessageView
}

// MessageView is one archived message as rendered.
type MessageView struct {
	ID          domain.MessageID
	Author      *domain.User
	Content     string
	Attachments []domain.Attachment
	Embeds      int
	Deleted     bool
	Edited      bool
	CreatedAt   string
}

// HTMLData extends Data with the tags only the markup template uses.
type HTMLData struct {
	Data
	GeneratedAt string
	Messages    []HTMLMessage
	RatingStars []int
	RatingEmpty []int
}

// HTMLMessage is a MessageView tagged for markup output.
type HTMLMessage struct {
	MessageView
	IsPinned    bool
	Attachments []HTMLAttachment
}

// HTMLAttachment is an attachment tagged with whether it can be shown inline.
type HTMLAttachment struct {
	domain.Attachment
	IsImage bool
}

type shaper struct {
	catalog *locale.Catalog
	locale  string
}

// shape builds the markdown view of an opened ticket. External messages are
// dropped and the rest are put in canonical order.
func (s shaper) shape(t *domain.Ticket, guildName string) Data {
	messages := domain.WithoutExternal(t.ArchivedMessages)
	domain.SortMessages(messages)

	view := TicketView{
		ID:              t.ID,
		Number:          t.Number,
		Topic:           t.Topic,
		Category:        t.Category.Name,
		CreatedBy:       t.CreatedBy,
		ClaimedBy:       t.ClaimedBy,
		ClosedBy:        t.ClosedBy,
		ClosedReason:    t.ClosedReason,
		Feedback:        t.Feedback,
		QuestionAnswers: t.QuestionAnswers,
		Messages:        make([]MessageView, 0, len(messages)),
	}
	for _, msg := range messages {
		view.Messages = append(view.Messages, s.message(msg))
	}

	pinned := make([]string, len(t.PinnedMessageIDs))
	for i, id := range t.PinnedMessageIDs {
		pinned[i] = id.String()
	}

	data := Data{
		ChannelName:        ChannelName(t.Category.ChannelName, t.CreatedBy, t.Number),
		GuildName:          guildName,
		Pinned:             strings.Join(pinned, ", "),
		CreatedAtFull:      s.catalog.Full(s.locale, t.CreatedAt),
		CreatedAtTimestamp: s.catalog.Short(s.locale, t.CreatedAt),
		Ticket:             view,
	}
	if t.ClosedAt != nil {
		data.ClosedAtFull = s.catalog.Full(s.locale, *t.ClosedAt)
	}
	return data
}

func (s shaper) message(msg domain.ArchivedMessage) MessageView {
	view := MessageView{
		ID:        msg.ID,
		Author:    msg.Author,
		Deleted:   msg.Deleted,
		Edited:    msg.Edited,
		CreatedAt: s.catalog.Short(s.locale, msg.CreatedAt),
	}
	if view.Author == nil {
		view.Author = &domain.User{ID: msg.AuthorID}
	}
	if msg.Payload != nil {
		view.Content = msg.Payload.Content
		view.Attachments = msg.Payload.Attachments
		view.Embeds = msg.Payload.Embeds
	}
	return view
}

// shapeHTML tags the markdown view for the markup template.
func (s shaper) shapeHTML(t *domain.Ticket, data Data, generatedAt time.Time) HTMLData {
	out := HTMLData{
		Data:        data,
		GeneratedAt: s.catalog.Full(s.locale, generatedAt),
		Messages:    make([]HTMLMessage, 0, len(data.Ticket.Messages)),
	}
	for _, msg := range data.Ticket.Messages {
		out.Messages = append(out.Messages, tagMessage(msg, t.HasPinned(msg.ID)))
	}
	if t.Feedback != nil && t.Feedback.Rating > 0 {
		out.RatingStars, out.RatingEmpty = ratingUnits(t.Feedback.Rating)
	}
	return out
}

func tagMessage(msg MessageView, pinned bool) HTMLMessage {
	tagged := HTMLMessage{
		MessageView: msg,
		IsPinned:    pinned,
		Attachments: make([]HTMLAttachment, 0, len(msg.Attachments)),
	}
	for _, att := range msg.Attachments {
		tagged.Attachments = append(tagged.Attachments, HTMLAttachment{
			Attachment: att,
			IsImage:    strings.HasPrefix(att.ContentType, "image/"),
		})
	}
	return tagged
}

// ratingUnits splits a rating into filled and empty units out of five.
func ratingUnits(rating int) (filled, empty []int) {
	if rating > ratingScale {
		rating = ratingScale
	}
	for i := 1; i <= ratingScale; i++ {
		if i <= rating {
			filled = append(filled, i)
		} else {
			empty = append(empty, i)
		}
	}
	return filled, empty
}
