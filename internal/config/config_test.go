package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "secret")
	t.Setenv("SUPER_USER_IDS", " 1, 2 ,,3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Archive.TranscriptTemplate != "transcript.md" {
		t.Errorf("expected default template transcript.md, got %q", cfg.Archive.TranscriptTemplate)
	}
	if !cfg.Archive.HTMLEnabled {
		t.Error("expected html output enabled by default")
	}
	if got := cfg.Archive.SuperUserIDs; len(got) != 3 || got[0] != "1" || got[2] != "3" {
		t.Errorf("unexpected super users %v", got)
	}
	if cfg.Logger.Development || cfg.Logger.Format != "json" || cfg.Logger.Service != "ticket-archiver" {
		t.Errorf("unexpected logger defaults %+v", cfg.Logger)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Errorf("unexpected addr %s", cfg.App.Addr())
	}
}

func TestLoad_RequiresEncryptionKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without ENCRYPTION_KEY")
	}
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "secret")
	t.Setenv("REDIS_DB", "zero")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}
