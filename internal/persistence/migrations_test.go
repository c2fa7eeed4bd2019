package persistence

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestRunMigrations_NoPool(t *testing.T) {
	if err := RunMigrations(context.Background(), nil, t.TempDir(), zap.NewNop()); err != nil {
		t.Fatalf("expected skip without pool, got %v", err)
	}
}

func TestPing_Unconfigured(t *testing.T) {
	var pg *Postgres
	if err := pg.Ping(context.Background()); err == nil {
		t.Error("expected error for nil postgres")
	}
	if err := (&Redis{}).Ping(context.Background()); err == nil {
		t.Error("expected error for redis without client")
	}
	if (*Redis)(nil).Store() != nil {
		t.Error("expected nil store")
	}
}
