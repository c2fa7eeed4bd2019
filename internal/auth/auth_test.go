package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-archiver/pkg/util/errorutil"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken("u1", "g1", ScopeTranscripts)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "u1" || claims.GuildID != "g1" || len(claims.Scopes) != 1 {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := NewTokenManager("other", 5).ParseToken(token); err == nil {
		t.Error("token signed with another secret accepted")
	}
}

func newApp(tm *TokenManager, scope string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
		},
	})
	app.Get("/", NewAuthMiddleware(tm).Handle, RequireUser(), RequireScope(scope), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.UserID.String() + "@" + p.GuildID.String())
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	reader, _, _ := tm.GenerateToken("u1", "g1", ScopeTranscripts)
	service, _, _ := tm.GenerateToken("", "", ScopeEvents)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"valid", "Bearer " + reader, http.StatusOK, "u1@g1"},
		{"service token without user", "Bearer " + service, http.StatusForbidden, ""},
	}
	app := newApp(tm, ScopeTranscripts)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.body != "" {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tt.body {
					t.Errorf("body = %q, want %q", body, tt.body)
				}
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, _ := tm.GenerateToken("u1", "g1", ScopeTranscripts)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newApp(tm, ScopeEvents).Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for missing scope, got %d", resp.StatusCode)
	}
}
