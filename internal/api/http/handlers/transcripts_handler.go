package handlers

import (
	"context"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-archiver/internal/access"
	"github.com/spec-kit/ticket-archiver/internal/api/dto"
	"github.com/spec-kit/ticket-archiver/internal/auth"
	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/transcript"
	apperrors "github.com/spec-kit/ticket-archiver/pkg/util/errorutil"
)

// TranscriptGenerator resolves requesters and renders transcripts.
type TranscriptGenerator interface {
	ResolveRequester(ctx context.Context, userID domain.UserID, guildID domain.GuildID) (access.Requester, error)
	Generate(ctx context.Context, req access.Requester, ref string) (*transcript.Result, error)
}

// TranscriptsHandler serves rendered ticket transcripts.
type TranscriptsHandler struct {
	generator TranscriptGenerator
}

// NewTranscriptsHandler constructs handler.
func NewTranscriptsHandler(generator TranscriptGenerator) *TranscriptsHandler {
	return &TranscriptsHandler{generator: generator}
}

// GetTranscript GET /transcripts/:ref.
func (h *TranscriptsHandler) GetTranscript(c *fiber.Ctx) error {
	result, err := h.generate(c)
	if err != nil {
		return err
	}
	if result.Denied() {
		return denied(c, result)
	}

	docs := result.Transcript.Documents()
	items := make([]dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, dto.DocumentResponse{
			Name:        doc.Name,
			ContentType: contentType(doc.Name),
			Body:        doc.Body,
		})
	}
	return c.JSON(fiber.Map{"data": dto.TranscriptResponse{TicketID: result.TicketID, Documents: items}})
}

// DownloadTranscript GET /transcripts/:ref/:format.
func (h *TranscriptsHandler) DownloadTranscript(c *fiber.Ctx) error {
	format := strings.ToLower(c.Params("format"))
	if format != "md" && format != "html" {
		return apperrors.NewValidationError("format must be md or html", map[string]any{"format": format})
	}

	result, err := h.generate(c)
	if err != nil {
		return err
	}
	if result.Denied() {
		return denied(c, result)
	}

	name, body := result.Transcript.FileNameMD, result.Transcript.Markdown
	if format == "html" {
		if result.Transcript.HTML == nil {
			return apperrors.NewNotFound("html transcript", map[string]any{"ticket_id": result.TicketID})
		}
		name, body = result.Transcript.FileNameHTML, result.Transcript.HTML
	}

	c.Attachment(name)
	c.Set(fiber.HeaderContentType, contentType(name))
	return c.Send(body)
}

func (h *TranscriptsHandler) generate(c *fiber.Ctx) (*transcript.Result, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.UserID == "" {
		return nil, apperrors.NewUnauthorized("user required")
	}
	ref := strings.TrimSpace(c.Params("ref"))
	if ref == "" {
		return nil, apperrors.NewValidationError("ticket reference required", nil)
	}

	ctx := c.UserContext()
	req, err := h.generator.ResolveRequester(ctx, principal.UserID, principal.GuildID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return h.generator.Generate(ctx, req, ref)
}

func denied(c *fiber.Ctx, result *transcript.Result) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"data": dto.DenialResponse{TicketID: result.TicketID, Notice: result.Denial},
	})
}

func contentType(name string) string {
	switch ext := filepath.Ext(name); ext {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".html":
		return fiber.MIMETextHTMLCharsetUTF8
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return fiber.MIMETextPlainCharsetUTF8
	}
}
