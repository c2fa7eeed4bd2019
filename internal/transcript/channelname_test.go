package transcript

import (
	"testing"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

func TestChannelName(t *testing.T) {
	creator := &domain.User{ID: "u1", Username: "alex", DisplayName: "Alex K"}
	tests := []struct {
		pattern string
		want    string
	}{
		{"ticket-{name}-{number}", "ticket-alex-42"},
		{"ticket-{ Name }-{NUM}", "ticket-alex-42"},
		{"{{username}}-{ num }", "alex-42"},
		{"{nick}-{displayname}-{Display}", "Alex K-Alex K-Alex K"},
		{"support-{number}", "support-42"},
		{"no-placeholders", "no-placeholders"},
		{"{unknown}-{num}", "{unknown}-42"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := ChannelName(tt.pattern, creator, 42); got != tt.want {
				t.Errorf("ChannelName(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestChannelName_LiteralReplacement(t *testing.T) {
	creator := &domain.User{Username: "$1cash"}
	if got := ChannelName("ticket-{name}", creator, 1); got != "ticket-$1cash" {
		t.Errorf("unexpected expansion %q", got)
	}
	if got := ChannelName("ticket-{name}-{num}", nil, 7); got != "ticket--7" {
		t.Errorf("unexpected name without creator %q", got)
	}
}
