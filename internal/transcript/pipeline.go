// Package transcript renders archived tickets into downloadable documents.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-archiver/internal/access"
	"github.com/spec-kit/ticket-archiver/internal/crypto"
	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/locale"
	"github.com/spec-kit/ticket-archiver/internal/observability"
	"github.com/spec-kit/ticket-archiver/internal/platform"
	"github.com/spec-kit/ticket-archiver/internal/render"
	"github.com/spec-kit/ticket-archiver/internal/repository"
	"github.com/spec-kit/ticket-archiver/internal/workerpool"
	apperrors "github.com/spec-kit/ticket-archiver/pkg/util/errorutil"
)

// maxNumberRefLength separates per-guild ticket numbers from global ids.
const maxNumberRefLength = 16

// Deps wires the pipeline's collaborators.
type Deps struct {
	Repo           repository.ArchiveRepository
	Gateway        platform.Gateway
	Codec          *crypto.Codec
	CryptoPool     *workerpool.Pool
	TranscriptPool *workerpool.Pool
	Catalog        *locale.Catalog
	Sources        render.Sources
	SuperUsers     []domain.UserID
	Clock          func() time.Time
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// Result is either a rendered transcript or a denial notice.
type Result struct {
	TicketID   domain.TicketID
	Transcript *domain.RenderedTranscript
	Denial     *locale.Notice
}

// Denied reports whether the requester was refused.
func (r *Result) Denied() bool {
	return r.Denial != nil
}

// Pipeline generates transcripts. It is safe for concurrent use.
type Pipeline struct {
	deps     Deps
	markdown *render.Renderer
	html     *render.Renderer
	supers   map[domain.UserID]struct{}
	logger   *zap.Logger
}

// New parses the templates once. A missing or invalid markdown template is a
// configuration error; without a markup template only markdown is produced.
func New(deps Deps) (*Pipeline, error) {
	if deps.Repo == nil || deps.Codec == nil || deps.CryptoPool == nil || deps.TranscriptPool == nil || deps.Catalog == nil {
		return nil, errors.New("transcript: missing dependency")
	}
	if strings.TrimSpace(deps.Sources.Markdown) == "" {
		return nil, apperrors.NewConfigurationFatal("transcript template is empty", nil)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	p := &Pipeline{
		deps:   deps,
		supers: make(map[domain.UserID]struct{}, len(deps.SuperUsers)),
		logger: deps.Logger.With(zap.String("component", "transcript")),
	}
	for _, id := range deps.SuperUsers {
		p.supers[id] = struct{}{}
	}

	var err error
	if p.markdown, err = render.NewPlain(deps.Sources.Name, deps.Sources.Markdown, nil); err != nil {
		return nil, apperrors.NewConfigurationFatal("invalid transcript template", err)
	}
	if deps.Sources.HasHTML() {
		if p.html, err = render.NewEscaping("transcript.html", deps.Sources.HTML, nil, render.EscapeMarkup); err != nil {
			return nil, apperrors.NewConfigurationFatal("invalid markup transcript template", err)
		}
	}
	return p, nil
}

// ResolveRequester looks up the caller's membership in the guild they are
// asking from. Not being a member is not an error. When the platform cannot be
// reached the requester is returned without a membership, so only the
// ticket's creator can still be served.
func (p *Pipeline) ResolveRequester(ctx context.Context, userID domain.UserID, guildID domain.GuildID) (access.Requester, error) {
	req := access.Requester{UserID: userID, GuildID: guildID}
	_, req.Super = p.supers[userID]
	if guildID == "" || p.deps.Gateway == nil {
		return req, nil
	}
	member, err := p.deps.Gateway.FetchMember(ctx, guildID, userID)
	switch {
	case errors.Is(err, platform.ErrNotFound):
		return req, nil
	case ctx.Err() != nil:
		return req, ctx.Err()
	case err != nil:
		p.logger.Warn("member lookup failed, continuing without membership",
			zap.String("user_id", userID.String()),
			zap.String("guild_id", guildID.String()),
			zap.Error(err))
		return req, nil
	}
	req.Member = member
	return req, nil
}

// ParseRef turns user input into a ticket reference. Short numeric input from
// within a guild is a ticket number; anything else is a global id.
func ParseRef(guildID domain.GuildID, ref string) repository.TicketRef {
	ref = strings.TrimSpace(ref)
	if guildID != "" && len(ref) < maxNumberRefLength {
		if n, err := strconv.Atoi(ref); err == nil {
			return repository.TicketRef{GuildID: guildID, Number: n}
		}
	}
	return repository.TicketRef{ID: domain.TicketID(ref)}
}

// Generate renders the transcript for ref, or a localized notice when req may
// not view it.
func (p *Pipeline) Generate(ctx context.Context, req access.Requester, ref string) (*Result, error) {
	result, err := p.generate(ctx, req, ref)
	switch {
	case err == nil && result.Denied():
		p.deps.Metrics.RecordTranscript("denied")
	case err == nil:
		p.deps.Metrics.RecordTranscript("rendered")
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		p.deps.Metrics.RecordTranscript("not_found")
	default:
		p.deps.Metrics.RecordTranscript("error")
	}
	return result, err
}

func (p *Pipeline) generate(ctx context.Context, req access.Requester, ref string) (*Result, error) {
	tref := ParseRef(req.GuildID, ref)
	if tref.ID == "" && !tref.ByNumber() {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ref": ref})
	}

	ticket, err := p.deps.Repo.FindTicket(ctx, tref)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ref": ref})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("load ticket %s: %w", tref, err))
	}

	if !access.CanView(req, ticket) {
		p.logger.Info("transcript access denied",
			zap.String("ticket_id", ticket.ID.String()),
			zap.String("user_id", req.UserID.String()))
		return &Result{TicketID: ticket.ID, Denial: p.denial(ctx, req, ticket)}, nil
	}

	opened, err := workerpool.Do(ctx, p.deps.CryptoPool, func() (*domain.Ticket, error) {
		return p.deps.Codec.OpenTicket(ticket)
	})
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("decrypt ticket %s: %w", ticket.ID, err))
	}

	guildName := p.guildName(ctx, ticket.GuildID)
	generatedAt := p.deps.Clock()

	rendered, err := workerpool.Do(ctx, p.deps.TranscriptPool, func() (*domain.RenderedTranscript, error) {
		return p.render(opened, guildName, generatedAt)
	})
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("render ticket %s: %w", ticket.ID, err))
	}

	p.logger.Info("transcript generated",
		zap.String("ticket_id", ticket.ID.String()),
		zap.Int("messages", len(opened.ArchivedMessages)),
		zap.Bool("html", rendered.HTML != nil))
	return &Result{TicketID: ticket.ID, Transcript: rendered}, nil
}

func (p *Pipeline) render(t *domain.Ticket, guildName string, generatedAt time.Time) (*domain.RenderedTranscript, error) {
	s := shaper{catalog: p.deps.Catalog, locale: t.Guild.Locale}
	data := s.shape(t, guildName)

	out := &domain.RenderedTranscript{
		FileNameMD:   data.ChannelName + "." + p.deps.Sources.Extension,
		FileNameHTML: data.ChannelName + ".html",
	}
	var err error
	if out.Markdown, err = p.markdown.Render(data); err != nil {
		return nil, err
	}
	if p.html != nil {
		if out.HTML, err = p.html.Render(s.shapeHTML(t, data, generatedAt)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// denial is worded in the requester's guild locale and styled like the ticket's guild.
func (p *Pipeline) denial(ctx context.Context, req access.Requester, t *domain.Ticket) *locale.Notice {
	loc := t.Guild.Locale
	if req.GuildID != "" {
		settings, err := p.deps.Repo.FindSettings(ctx, req.GuildID)
		if err != nil {
			p.logger.Warn("falling back to ticket locale for notice",
				zap.String("guild_id", req.GuildID.String()), zap.Error(err))
		} else {
			loc = settings.Locale
		}
	}
	return p.deps.Catalog.NotStaff(loc, t.Guild.ErrorColour, t.Guild.Footer)
}

func (p *Pipeline) guildName(ctx context.Context, guildID domain.GuildID) string {
	if p.deps.Gateway == nil {
		return ""
	}
	name, err := p.deps.Gateway.GuildName(ctx, guildID)
	if err != nil {
		p.logger.Debug("guild name unavailable", zap.String("guild_id", guildID.String()), zap.Error(err))
		return ""
	}
	return name
}
