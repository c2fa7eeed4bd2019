// Package reconcile keeps the archive in step with messages deleted from live
// ticket channels and reports each deletion to the audit log.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-archiver/internal/audit"
	"github.com/spec-kit/ticket-archiver/internal/crypto"
	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/events"
	"github.com/spec-kit/ticket-archiver/internal/observability"
	"github.com/spec-kit/ticket-archiver/internal/platform"
	"github.com/spec-kit/ticket-archiver/internal/repository"
	"github.com/spec-kit/ticket-archiver/internal/workerpool"
)

// MessageDeleted is a live message that disappeared from a channel.
type MessageDeleted struct {
	GuildID      domain.GuildID
	ChannelID    domain.ChannelID
	MessageID    domain.MessageID
	AuthorID     domain.UserID
	CleanContent string
	Ephemeral    bool
}

// Deps wires the reconciler's collaborators.
type Deps struct {
	Repo       repository.ArchiveRepository
	Gateway    platform.Gateway
	Codec      *crypto.Codec
	CryptoPool *workerpool.Pool
	Sink       audit.Sink
	BotUserID  domain.UserID
	Clock      func() time.Time
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Reconciler handles message deletions. Failures are logged and never returned.
type Reconciler struct {
	deps   Deps
	logger *zap.Logger
}

// New creates the reconciler.
func New(deps Deps) *Reconciler {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Reconciler{deps: deps, logger: deps.Logger.With(zap.String("component", "reconcile"))}
}

// RegisterHandlers subscribes to deletion events.
func (r *Reconciler) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventMessageDeleted, r.handleMessageDeleted)
}

func (r *Reconciler) handleMessageDeleted(ctx context.Context, event events.Event) error {
	var payload events.MessageDeletedPayload
	switch p := event.Payload.(type) {
	case events.MessageDeletedPayload:
		payload = p
	case *events.MessageDeletedPayload:
		if p == nil {
			return errors.New("message deleted event without payload")
		}
		payload = *p
	default:
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	r.Reconcile(ctx, MessageDeleted{
		GuildID:      event.GuildID,
		ChannelID:    event.ChannelID,
		MessageID:    payload.MessageID,
		AuthorID:     payload.AuthorID,
		CleanContent: payload.CleanContent,
		Ephemeral:    payload.Ephemeral,
	})
	return nil
}

// Reconcile marks the archived copy of a deleted message and hands a diff record
// to the audit sink. It returns the record, or nil when the deletion was not
// relevant or could not be processed.
func (r *Reconciler) Reconcile(ctx context.Context, ev MessageDeleted) (record *domain.DiffRecord) {
	log := r.logger.With(
		zap.String("message_id", ev.MessageID.String()),
		zap.String("channel_id", ev.ChannelID.String()))

	defer func() {
		if p := recover(); p != nil {
			log.Error("reconciliation panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			r.deps.Metrics.RecordReconciliation("panic")
			record = nil
		}
	}()

	if ev.GuildID == "" || ev.Ephemeral || (r.deps.BotUserID != "" && ev.AuthorID == r.deps.BotUserID) {
		r.deps.Metrics.RecordReconciliation("skipped")
		return nil
	}

	ticket, err := r.deps.Repo.FindTicketByChannel(ctx, ev.ChannelID)
	if errors.Is(err, repository.ErrNotFound) {
		r.deps.Metrics.RecordReconciliation("skipped")
		return nil
	}
	if err != nil {
		log.Error("failed to load ticket for deleted message", zap.Error(err))
		r.deps.Metrics.RecordReconciliation("error")
		return nil
	}

	content := ev.CleanContent
	if ticket.Guild.Archive {
		content = r.archive(ctx, ev, content, log)
	}

	executorID := r.correlate(ctx, ev, log)
	var executor *domain.Member
	if executorID != nil {
		executor = r.resolveExecutor(ctx, ev.GuildID, *executorID, log)
	}

	record = &domain.DiffRecord{
		ID:         uuid.NewString(),
		Action:     domain.DiffActionDelete,
		Before:     domain.DiffState{Content: content},
		After:      domain.DiffState{Content: ""},
		ExecutorID: executorID,
		Executor:   executor,
		Target: domain.MessageRef{
			ID:        ev.MessageID,
			ChannelID: ev.ChannelID,
			AuthorID:  ev.AuthorID,
		},
		TicketID:   ticket.ID,
		GuildID:    ev.GuildID,
		OccurredAt: r.deps.Clock().UTC(),
	}
	if err := r.deps.Sink.LogDiff(ctx, *record); err != nil {
		log.Error("failed to log deletion diff", zap.String("diff_id", record.ID), zap.Error(err))
		r.deps.Metrics.RecordReconciliation("error")
		return record
	}
	r.deps.Metrics.RecordReconciliation("logged")
	return record
}

// archive flags the stored copy as deleted and, when the live content is gone,
// recovers it from the archive. Recovered content is historical and left as stored.
func (r *Reconciler) archive(ctx context.Context, ev MessageDeleted, content string, log *zap.Logger) string {
	count, err := r.deps.Repo.MarkMessageDeleted(ctx, ev.MessageID)
	if err != nil {
		log.Warn("failed to mark archived message deleted", zap.Error(err))
		return content
	}
	if count == 0 {
		// messages can be deleted before they are ever archived
		log.Warn("archived message can't be marked as deleted because it doesn't exist")
		return content
	}
	if content != "" {
		return content
	}

	archived, err := r.deps.Repo.FindArchivedMessage(ctx, ev.MessageID)
	if err != nil {
		log.Warn("failed to reload archived message", zap.Error(err))
		return content
	}
	if archived.Content == "" {
		return content
	}
	payload, err := workerpool.Do(ctx, r.deps.CryptoPool, func() (*domain.MessagePayload, error) {
		return r.deps.Codec.OpenMessage(archived.Content)
	})
	if err != nil {
		log.Warn("failed to decrypt archived message", zap.Error(err))
		return content
	}
	return payload.Content
}

// correlate returns the executor of the latest deletion in the audit trail, but
// only when that entry targeted the deleted message's author.
func (r *Reconciler) correlate(ctx context.Context, ev MessageDeleted, log *zap.Logger) *domain.UserID {
	if r.deps.Gateway == nil {
		return nil
	}
	entry, err := r.deps.Gateway.MostRecentDeletionEntry(ctx, ev.GuildID)
	if err != nil {
		log.Warn("failed to read audit trail", zap.Error(err))
		return nil
	}
	if entry == nil || entry.ExecutorID == nil {
		return nil
	}
	if entry.TargetID != ev.AuthorID {
		log.Debug("audit entry is for another author",
			zap.String("target_id", entry.TargetID.String()),
			zap.String("author_id", ev.AuthorID.String()))
		return nil
	}
	return entry.ExecutorID
}

func (r *Reconciler) resolveExecutor(ctx context.Context, guildID domain.GuildID, id domain.UserID, log *zap.Logger) *domain.Member {
	member, err := r.deps.Gateway.FetchMember(ctx, guildID, id)
	if err != nil {
		log.Error("failed to resolve deletion executor", zap.String("executor_id", id.String()), zap.Error(err))
		return nil
	}
	return member
}
