package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points HOME at a temp dir and clears the NEXUS_ env vars.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{"NEXUS_API_URL", "NEXUS_TOKEN", "NEXUS_BOARD", "NEXUS_REDIS_URL", "NEXUS_LOG_LEVEL"} {
		t.Setenv(name, "")
	}
	return home
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_Default(t *testing.T) {
	isolate(t)

	cfg, err := Load(CLIFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("expected %q, got %q", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout || cfg.CacheTTL != DefaultCacheTTL {
		t.Errorf("unexpected durations %v %v", cfg.RequestTimeout, cfg.CacheTTL)
	}
	if cfg.StrictPositions {
		t.Error("expected defensive positions by default")
	}
	if cfg.RedisURL != "" {
		t.Errorf("expected cache disabled, got %q", cfg.RedisURL)
	}
	if Get() != cfg {
		t.Error("expected Get to return the loaded config")
	}
}

func TestLoad_File(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "nexus", "config.yaml"), `
api_url: https://boards.example.com/api/v1/
default_board: b1
request_timeout: 3s
strict_positions: true
rebalance_epsilon: 0.5
redis_url: redis://localhost:6379/0
cache_ttl: 1m
export_dir: ~/exports
`)

	cfg, err := Load(CLIFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIURL != "https://boards.example.com/api/v1" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.APIURL)
	}
	if cfg.DefaultBoard != "b1" || !cfg.StrictPositions || cfg.RebalanceEpsilon != 0.5 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.RequestTimeout != 3*time.Second || cfg.CacheTTL != time.Minute {
		t.Errorf("unexpected durations %v %v", cfg.RequestTimeout, cfg.CacheTTL)
	}
	if cfg.ExportDir != filepath.Join(home, "exports") {
		t.Errorf("expected expanded export dir, got %q", cfg.ExportDir)
	}
	if got := cfg.ExportPath("b1"); got != filepath.Join(home, "exports", "b1") {
		t.Errorf("unexpected export path %q", got)
	}
}

func TestLoad_TokenFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "nexus", "token"), "s3cret\n")
	writeConfig(t, filepath.Join(home, ".config", "nexus", "config.yaml"), "token_file: ~/.config/nexus/token\n")

	cfg, err := Load(CLIFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Token != "s3cret" {
		t.Errorf("expected token from file, got %q", cfg.Token)
	}

	// A token file that does not exist yet leaves the token empty.
	writeConfig(t, filepath.Join(home, ".config", "nexus", "config.yaml"), "token_file: ~/missing\n")
	cfg, err = Load(CLIFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Token != "" {
		t.Errorf("expected no token, got %q", cfg.Token)
	}
}

func TestLoad_EnvVar(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "nexus", "config.yaml"), "default_board: from-file\ntoken: file-token\n")
	t.Setenv("NEXUS_BOARD", "from-env")
	t.Setenv("NEXUS_TOKEN", "env-token")
	t.Setenv("NEXUS_LOG_LEVEL", "debug")

	cfg, err := Load(CLIFlags{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultBoard != "from-env" || cfg.Token != "env-token" || cfg.LogLevel != "debug" {
		t.Errorf("expected env to override file, got %+v", cfg)
	}
}

func TestLoad_CLIFlags(t *testing.T) {
	isolate(t)
	t.Setenv("NEXUS_API_URL", "http://env/api/v1")
	t.Setenv("NEXUS_BOARD", "from-env")

	cfg, err := Load(CLIFlags{
		APIURL: "http://flag/api/v1",
		Board:  "from-flag",
		Strict: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// CLI flags should override env vars
	if cfg.APIURL != "http://flag/api/v1" {
		t.Errorf("expected flag api url, got %q", cfg.APIURL)
	}
	if cfg.DefaultBoard != "from-flag" {
		t.Errorf("expected flag board, got %q", cfg.DefaultBoard)
	}
	if !cfg.StrictPositions {
		t.Error("expected strict positions")
	}
}

func TestLoad_ExplicitConfigPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "alt.yaml")

	if _, err := Load(CLIFlags{ConfigPath: path}); err == nil {
		t.Error("expected error for a missing explicit config")
	}

	writeConfig(t, path, "default_board: alt\n")
	cfg, err := Load(CLIFlags{ConfigPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultBoard != "alt" {
		t.Errorf("expected alt, got %q", cfg.DefaultBoard)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "api_url: [\n"},
		{"bad timeout", "request_timeout: soon\n"},
		{"bad ttl", "cache_ttl: 5 minutes\n"},
		{"unreadable token file", "token_file: ~/\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			writeConfig(t, filepath.Join(home, ".config", "nexus", "config.yaml"), tt.content)
			if _, err := Load(CLIFlags{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEnsureConfigFile(t *testing.T) {
	home := isolate(t)

	if err := EnsureConfigFile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(home, ".config", "nexus", "config.yaml")
	settings, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.APIURL != DefaultAPIURL || settings.TokenFile == "" {
		t.Errorf("unexpected defaults %+v", settings)
	}

	writeConfig(t, path, "default_board: mine\n")
	if err := EnsureConfigFile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	settings, _ = loadConfigFile(path)
	if settings.DefaultBoard != "mine" {
		t.Error("expected existing config left alone")
	}
}

func TestPickerBoards(t *testing.T) {
	cfg := &Config{DefaultBoard: "b2", Boards: []string{"b1", "b2", "", "b3"}}
	got := cfg.PickerBoards()
	expected := []string{"b2", "b1", "b3"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, got)
		}
	}

	if ids := (&Config{}).PickerBoards(); len(ids) != 0 {
		t.Errorf("expected no boards, got %v", ids)
	}
}
