package repository

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

const settingsKeyPrefix = "settings:"

// KeyValueStore is the subset of the redis client the settings cache needs.
type KeyValueStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type cachedArchiveRepository struct {
	ArchiveRepository
	store  KeyValueStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedArchiveRepository caches guild settings in redis in front of inner.
// Cache failures are logged and fall through to inner.
func NewCachedArchiveRepository(inner ArchiveRepository, store KeyValueStore, ttl time.Duration, logger *zap.Logger) ArchiveRepository {
	if store == nil || ttl <= 0 {
		return inner
	}
	return &cachedArchiveRepository{ArchiveRepository: inner, store: store, ttl: ttl, logger: logger}
}

func (r *cachedArchiveRepository) FindSettings(ctx context.Context, guildID domain.GuildID) (*domain.Settings, error) {
	key := settingsKeyPrefix + guildID.String()

	raw, err := r.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s domain.Settings
		if err := json.Unmarshal(raw, &s); err == nil {
			return &s, nil
		}
		r.logger.Warn("discarding malformed cached settings", zap.String("guild_id", guildID.String()))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("settings cache read failed", zap.String("guild_id", guildID.String()), zap.Error(err))
	}

	settings, err := r.ArchiveRepository.FindSettings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(settings); err == nil {
		if err := r.store.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
			r.logger.Warn("settings cache write failed", zap.String("guild_id", guildID.String()), zap.Error(err))
		}
	}
	return settings, nil
}
