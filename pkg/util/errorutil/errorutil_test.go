package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"not found", NewNotFound("ticket", nil), CodeNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", NewNotFound("ticket", nil)), CodeNotFound, http.StatusNotFound},
		{"configuration", NewConfigurationFatal("template missing", errors.New("enoent")), CodeConfiguration, http.StatusInternalServerError},
		{"fiber forbidden", fiber.NewError(http.StatusForbidden, "missing scope"), CodeForbidden, http.StatusForbidden},
		{"fiber route missing", fiber.ErrNotFound, CodeNotFound, http.StatusNotFound},
		{"plain error", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			if got.Code != tt.code || got.HTTPStatus != tt.status {
				t.Errorf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tt.code, tt.status)
			}
		})
	}
	if ToDomainError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("generate: %w", NewNotFound("ticket", map[string]any{"ref": "42"}))
	if !IsCode(err, CodeNotFound) {
		t.Error("expected wrapped NOT_FOUND to match")
	}
	if IsCode(err, CodeInternal) {
		t.Error("unexpected INTERNAL_ERROR match")
	}
	if IsCode(errors.New("x"), CodeNotFound) {
		t.Error("plain errors carry no code")
	}
}
