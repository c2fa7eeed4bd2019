// Package audit records archive diffs for moderators.
package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/repository"
)

// Sink accepts diff records for durable logging.
type Sink interface {
	LogDiff(ctx context.Context, record domain.DiffRecord) error
}

// Logger writes diff records to the structured log and, when a repository is
// configured, to the audit_log table.
type Logger struct {
	repo   repository.AuditLogRepository
	logger *zap.Logger
}

// NewLogger builds a sink; repo may be nil.
func NewLogger(repo repository.AuditLogRepository, logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{repo: repo, logger: logger}
}

func (l *Logger) LogDiff(ctx context.Context, record domain.DiffRecord) error {
	fields := []zap.Field{
		zap.String("diff_id", record.ID),
		zap.String("action", string(record.Action)),
		zap.String("guild_id", record.GuildID.String()),
		zap.String("ticket_id", record.TicketID.String()),
		zap.String("message_id", record.Target.ID.String()),
		zap.String("author_id", record.Target.AuthorID.String()),
		zap.Int("before_length", len(record.Before.Content)),
	}
	switch {
	case record.Executor != nil:
		fields = append(fields,
			zap.String("executor_id", record.Executor.UserID.String()),
			zap.String("executor", record.Executor.DisplayName))
	case record.ExecutorID != nil:
		fields = append(fields, zap.String("executor_id", record.ExecutorID.String()))
	}
	l.logger.Info("archived message changed", fields...)

	if l.repo == nil {
		return nil
	}
	if err := l.repo.Create(ctx, &record); err != nil {
		return fmt.Errorf("persist diff %s: %w", record.ID, err)
	}
	return nil
}
