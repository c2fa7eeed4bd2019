package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-archiver/internal/api/dto"
	"github.com/spec-kit/ticket-archiver/internal/events"
	apperrors "github.com/spec-kit/ticket-archiver/pkg/util/errorutil"
)

// EventsHandler accepts platform events and hands them to the dispatcher.
type EventsHandler struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewEventsHandler constructs handler.
func NewEventsHandler(dispatcher events.Dispatcher, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{dispatcher: dispatcher, logger: logger, now: time.Now}
}

// MessageDeleted POST /events/message-deleted.
func (h *EventsHandler) MessageDeleted(c *fiber.Ctx) error {
	var req dto.MessageDeletedRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ChannelID == "" || req.MessageID == "" {
		return apperrors.NewValidationError("channel_id, message_id required", nil)
	}

	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventMessageDeleted,
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		Timestamp: h.now().UTC(),
		Payload: events.MessageDeletedPayload{
			MessageID:    req.MessageID,
			AuthorID:     req.AuthorID,
			CleanContent: req.CleanContent,
			Ephemeral:    req.Ephemeral,
		},
	}
	// the request context ends with the response; the handler outlives it
	h.dispatcher.PublishAsync(context.Background(), event)
	h.logger.Debug("event accepted",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)))

	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": dto.EventAccepted{EventID: event.ID}})
}
