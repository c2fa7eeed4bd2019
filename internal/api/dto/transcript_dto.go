package dto

import (
	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/locale"
)

// DocumentResponse is one rendered file. Body is base64 encoded in JSON.
type DocumentResponse struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// TranscriptResponse lists the documents rendered for a ticket.
type TranscriptResponse struct {
	TicketID  domain.TicketID    `json:"ticket_id"`
	Documents []DocumentResponse `json:"documents"`
}

// DenialResponse carries the localized notice shown instead of a transcript.
type DenialResponse struct {
	TicketID domain.TicketID `json:"ticket_id"`
	Notice   *locale.Notice  `json:"notice"`
}
