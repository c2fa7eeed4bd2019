package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/repository"
)

// AuditHandler exposes the persisted archive audit trail.
type AuditHandler struct {
	repo repository.AuditLogRepository
}

// NewAuditHandler constructs handler.
func NewAuditHandler(repo repository.AuditLogRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// ListByTicket GET /tickets/:id/audit.
func (h *AuditHandler) ListByTicket(c *fiber.Ctx) error {
	records, err := h.repo.ListByTicket(c.UserContext(), domain.TicketID(c.Params("id")))
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.DiffRecord{}
	}
	return c.JSON(fiber.Map{"data": records})
}
