// Package platform talks to the chat platform's REST API for member lookups and
// the guild audit trail.
package platform

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

// ErrNotFound is returned when the platform has no such member or guild.
var ErrNotFound = errors.New("platform: not found")

// Gateway is the part of the chat platform the archive pipelines depend on.
type Gateway interface {
	FetchMember(ctx context.Context, guildID domain.GuildID, userID domain.UserID) (*domain.Member, error)
	// MostRecentDeletionEntry returns the newest message-delete audit entry of the
	// guild, or nil when there is none.
	MostRecentDeletionEntry(ctx context.Context, guildID domain.GuildID) (*domain.AuditCorrelation, error)
	GuildName(ctx context.Context, guildID domain.GuildID) (string, error)
}

const (
	auditActionMessageDelete = 72

	permissionAdministrator = 1 << 3
	permissionManageGuild   = 1 << 5

	snowflakeEpochMillis = 1420070400000
)

// SnowflakeTime extracts the creation time embedded in a platform id.
func SnowflakeTime(id string) (time.Time, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(n>>22) + snowflakeEpochMillis).UTC(), true
}
