package repository

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

// AuditLogRepository stores diff records.
type AuditLogRepository interface {
	Create(ctx context.Context, record *domain.DiffRecord) error
	ListByTicket(ctx context.Context, ticketID domain.TicketID) ([]domain.DiffRecord, error)
}

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Create(ctx context.Context, record *domain.DiffRecord) error {
	const query = `
        INSERT INTO audit_log (id, action, guild_id, ticket_id, executor_id,
            target_message_id, target_channel_id, target_author_id, before, after, occurred_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (id) DO NOTHING`
	before, err := json.Marshal(record.Before)
	if err != nil {
		return err
	}
	after, err := json.Marshal(record.After)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query,
		record.ID,
		record.Action,
		record.GuildID,
		record.TicketID,
		record.ExecutorID,
		record.Target.ID,
		record.Target.ChannelID,
		record.Target.AuthorID,
		string(before),
		string(after),
		record.OccurredAt,
	)
	return err
}

func (r *auditLogRepository) ListByTicket(ctx context.Context, ticketID domain.TicketID) ([]domain.DiffRecord, error) {
	const query = `
        SELECT id, action, guild_id, ticket_id, executor_id,
               target_message_id, target_channel_id, target_author_id, before, after, occurred_at
        FROM audit_log WHERE ticket_id=$1 ORDER BY occurred_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DiffRecord
	for rows.Next() {
		var (
			record        domain.DiffRecord
			before, after []byte
		)
		if err := rows.Scan(
			&record.ID,
			&record.Action,
			&record.GuildID,
			&record.TicketID,
			&record.ExecutorID,
			&record.Target.ID,
			&record.Target.ChannelID,
			&record.Target.AuthorID,
			&before,
			&after,
			&record.OccurredAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(before, &record.Before); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(after, &record.After); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
