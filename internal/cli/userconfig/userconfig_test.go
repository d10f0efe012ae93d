package userconfig

import (
	"testing"
)

// pointHomeAt redirects the user config into a temp directory
func pointHomeAt(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_MissingFileReturnsEmptyConfig(t *testing.T) {
	pointHomeAt(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SelectedServerAlias != "" || cfg.Theme != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestSelectedServer_RoundTrip(t *testing.T) {
	pointHomeAt(t)

	if err := SetSelectedServer("staging"); err != nil {
		t.Fatalf("failed to set selected server: %v", err)
	}

	alias, err := GetSelectedServer()
	if err != nil {
		t.Fatalf("failed to get selected server: %v", err)
	}
	if alias != "staging" {
		t.Errorf("expected 'staging', got %q", alias)
	}
}

func TestFileThemeCache(t *testing.T) {
	pointHomeAt(t)

	cache := FileThemeCache{}

	if _, ok := cache.LoadTheme(); ok {
		t.Error("expected no theme before first save")
	}

	if err := cache.SaveTheme("dark"); err != nil {
		t.Fatalf("failed to save theme: %v", err)
	}
	if theme, ok := cache.LoadTheme(); !ok || theme != "dark" {
		t.Errorf("expected 'dark', got %q (ok=%v)", theme, ok)
	}

	if err := cache.ClearTheme(); err != nil {
		t.Fatalf("failed to clear theme: %v", err)
	}
	if _, ok := cache.LoadTheme(); ok {
		t.Error("expected theme cleared")
	}

	// Clearing again stays idempotent
	if err := cache.ClearTheme(); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
}

func TestThemeCache_DoesNotDisturbServerSelection(t *testing.T) {
	pointHomeAt(t)

	if err := SetSelectedServer("production"); err != nil {
		t.Fatalf("failed to set selected server: %v", err)
	}

	cache := FileThemeCache{}
	if err := cache.SaveTheme("dark"); err != nil {
		t.Fatalf("failed to save theme: %v", err)
	}
	if err := cache.ClearTheme(); err != nil {
		t.Fatalf("failed to clear theme: %v", err)
	}

	alias, err := GetSelectedServer()
	if err != nil {
		t.Fatalf("failed to get selected server: %v", err)
	}
	if alias != "production" {
		t.Errorf("theme writes clobbered the server selection, got %q", alias)
	}
}
