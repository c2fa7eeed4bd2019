package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/ticket-archiver/internal/config"
	"github.com/spec-kit/ticket-archiver/internal/domain"
	"github.com/spec-kit/ticket-archiver/internal/observability"
)

const breakerName = "platform-api"

// StatusError is returned for unexpected HTTP responses.
type StatusError struct {
	Status int
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("platform: %s returned %d", e.Path, e.Status)
}

// Client is a rate limited, circuit broken REST client implementing Gateway.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.PlatformConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := uint32(5)
	if cfg.BreakerFailures > 0 {
		failures = uint32(cfg.BreakerFailures)
	}

	observability.BreakerState(breakerName, 0)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     time.Duration(cfg.BreakerOpenSec) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a missing member says nothing about platform health
		IsExcluded: func(err error) bool {
			return errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			observability.BreakerState(name, stateValue(to))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout()},
		limiter: rate.NewLimiter(limit, burst),
		cb:      cb,
		logger:  logger,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type apiUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

type apiMember struct {
	User  apiUser  `json:"user"`
	Nick  string   `json:"nick"`
	Roles []string `json:"roles"`
}

type apiRole struct {
	ID          string `json:"id"`
	Permissions string `json:"permissions"`
}

type apiGuild struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

type apiAuditLog struct {
	Entries []struct {
		ID         string `json:"id"`
		UserID     string `json:"user_id"`
		TargetID   string `json:"target_id"`
		ActionType int    `json:"action_type"`
	} `json:"audit_log_entries"`
}

// FetchMember resolves a guild member, including whether they can manage the guild.
func (c *Client) FetchMember(ctx context.Context, guildID domain.GuildID, userID domain.UserID) (*domain.Member, error) {
	var m apiMember
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s/members/%s", guildID, userID), nil, &m); err != nil {
		return nil, err
	}
	var guild apiGuild
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s", guildID), nil, &guild); err != nil {
		return nil, err
	}
	var roles []apiRole
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s/roles", guildID), nil, &roles); err != nil {
		return nil, err
	}

	member := &domain.Member{
		UserID:      userID,
		GuildID:     guildID,
		Username:    m.User.Username,
		DisplayName: firstNonEmpty(m.Nick, m.User.GlobalName, m.User.Username),
	}
	for _, id := range m.Roles {
		member.Roles = append(member.Roles, domain.RoleID(id))
	}

	// the @everyone role shares the guild id
	held := map[string]bool{guildID.String(): true}
	for _, id := range m.Roles {
		held[id] = true
	}
	var perms uint64
	for _, role := range roles {
		if !held[role.ID] {
			continue
		}
		bits, err := strconv.ParseUint(role.Permissions, 10, 64)
		if err != nil {
			c.logger.Warn("unparseable role permissions", zap.String("role_id", role.ID))
			continue
		}
		perms |= bits
	}
	member.ManageGuild = guild.OwnerID == userID.String() ||
		perms&permissionAdministrator != 0 ||
		perms&permissionManageGuild != 0
	return member, nil
}

func (c *Client) MostRecentDeletionEntry(ctx context.Context, guildID domain.GuildID) (*domain.AuditCorrelation, error) {
	query := url.Values{}
	query.Set("action_type", strconv.Itoa(auditActionMessageDelete))
	query.Set("limit", "1")

	var log apiAuditLog
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s/audit-logs", guildID), query, &log); err != nil {
		return nil, err
	}
	if len(log.Entries) == 0 {
		return nil, nil
	}
	entry := log.Entries[0]
	correlation := &domain.AuditCorrelation{TargetID: domain.UserID(entry.TargetID)}
	if entry.UserID != "" {
		executor := domain.UserID(entry.UserID)
		correlation.ExecutorID = &executor
	}
	if ts, ok := SnowflakeTime(entry.ID); ok {
		correlation.Timestamp = ts
	}
	return correlation, nil
}

func (c *Client) GuildName(ctx context.Context, guildID domain.GuildID) (string, error) {
	var guild apiGuild
	if err := c.get(ctx, fmt.Sprintf("/guilds/%s", guildID), nil, &guild); err != nil {
		return "", err
	}
	return guild.Name, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, path, query)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.BreakerRequest(breakerName, "rejected")
		return fmt.Errorf("platform %s: %w", path, err)
	case err != nil:
		observability.BreakerRequest(breakerName, "failure")
		return err
	}
	observability.BreakerRequest(breakerName, "success")

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode, Path: path}
	}
	return io.ReadAll(resp.Body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
