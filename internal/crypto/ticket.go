package crypto

import (
	"fmt"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

// OpenTicket returns a copy of t with every sealed field revealed and each
// archived message decoded into its payload.
func (c *Codec) OpenTicket(t *domain.Ticket) (*domain.Ticket, error) {
	out := *t
	var err error
	if out.Topic, err = c.Reveal(t.Topic); err != nil {
		return nil, fmt.Errorf("topic: %w", err)
	}
	if out.ClosedReason, err = c.Reveal(t.ClosedReason); err != nil {
		return nil, fmt.Errorf("closed reason: %w", err)
	}
	if t.Feedback != nil {
		fb := *t.Feedback
		if fb.Comment, err = c.Reveal(fb.Comment); err != nil {
			return nil, fmt.Errorf("feedback comment: %w", err)
		}
		out.Feedback = &fb
	}

	out.QuestionAnswers = make([]domain.QuestionAnswer, len(t.QuestionAnswers))
	for i, qa := range t.QuestionAnswers {
		if qa.Value, err = c.Reveal(qa.Value); err != nil {
			return nil, fmt.Errorf("answer %d: %w", i, err)
		}
		out.QuestionAnswers[i] = qa
	}

	out.ArchivedMessages = make([]domain.ArchivedMessage, len(t.ArchivedMessages))
	for i, msg := range t.ArchivedMessages {
		if msg.Content != "" {
			payload, err := c.OpenMessage(msg.Content)
			if err != nil {
				return nil, fmt.Errorf("message %s: %w", msg.ID, err)
			}
			msg.Payload = payload
		} else if msg.Payload == nil {
			msg.Payload = &domain.MessagePayload{}
		}
		out.ArchivedMessages[i] = msg
	}
	return &out, nil
}
