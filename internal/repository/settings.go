package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

func (r *archiveRepository) FindSettings(ctx context.Context, guildID domain.GuildID) (*domain.Settings, error) {
	const query = `
        SELECT id, locale, archive, footer, error_colour
        FROM guilds WHERE id=$1`
	var s domain.Settings
	err := r.pool.QueryRow(ctx, query, guildID).Scan(
		&s.GuildID,
		&s.Locale,
		&s.Archive,
		&s.Footer,
		&s.ErrorColour,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
