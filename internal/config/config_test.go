package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"EXPLORER_API_URL", "EXPLORER_TIMEOUT", "EXPLORER_ROOT_ID", "EXPLORER_PAGE_LIMIT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://localhost:3000/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RootFolderID != 1 {
		t.Errorf("RootFolderID = %d", cfg.RootFolderID)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EXPLORER_API_URL", "http://files.internal/api/")
	t.Setenv("EXPLORER_TIMEOUT", "5s")
	t.Setenv("EXPLORER_ROOT_ID", "7")
	t.Setenv("EXPLORER_PAGE_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "http://files.internal/api" {
		t.Errorf("trailing slash not trimmed: %q", cfg.APIURL)
	}
	if cfg.Timeout != 5*time.Second || cfg.RootFolderID != 7 {
		t.Errorf("unexpected %+v", cfg)
	}
	if cfg.PageLimit != 50 {
		t.Errorf("bad int should fall back, got %d", cfg.PageLimit)
	}
}

func TestLoadRejectsNonPositiveLimit(t *testing.T) {
	t.Setenv("EXPLORER_PAGE_LIMIT", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero page limit")
	}
}
