package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

const messageColumns = `
        SELECT id, ticket_id, author_id, sequence, content, deleted, edited, external, created_at
        FROM archived_messages`

func (r *archiveRepository) listMessages(ctx context.Context, ticketID domain.TicketID, users userSet) ([]domain.ArchivedMessage, error) {
	rows, err := r.pool.Query(ctx, messageColumns+`
        WHERE ticket_id=$1 AND external=FALSE
        ORDER BY created_at ASC, sequence ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ArchivedMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msg.Author = users.resolve(&domain.User{ID: msg.AuthorID})
		result = append(result, *msg)
	}
	return result, rows.Err()
}

func (r *archiveRepository) FindArchivedMessage(ctx context.Context, id domain.MessageID) (*domain.ArchivedMessage, error) {
	msg, err := scanMessage(r.pool.QueryRow(ctx, messageColumns+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return msg, err
}

// MarkMessageDeleted is a single conditional update, so duplicate delete
// events are harmless. A message deleted before it was archived matches no rows.
func (r *archiveRepository) MarkMessageDeleted(ctx context.Context, id domain.MessageID) (int64, error) {
	const query = `UPDATE archived_messages SET deleted=TRUE WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanMessage(row pgx.Row) (*domain.ArchivedMessage, error) {
	var msg domain.ArchivedMessage
	if err := row.Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.AuthorID,
		&msg.Sequence,
		&msg.Content,
		&msg.Deleted,
		&msg.Edited,
		&msg.External,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}
