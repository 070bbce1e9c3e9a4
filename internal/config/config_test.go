package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if !strings.Contains(string(data), "undo_window_seconds = 5") {
		t.Fatalf("expected undo window in written config, got:\n%s", data)
	}
}

func TestLoadOrCreateReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	content := `db_path = "tasks.db"
timezone = "UTC"
first_weekday = "mon"
undo_window_seconds = 8
completed_page_size = 20
seed_sample = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBPath != "tasks.db" || cfg.CompletedPageSize != 20 || cfg.SeedSample {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.WebPort != 8080 {
		t.Fatalf("expected unset fields to keep defaults, got port %d", cfg.WebPort)
	}
	if got := cfg.UndoWindow(); got != 8*time.Second {
		t.Fatalf("expected 8s undo window, got %s", got)
	}
	if day, _ := cfg.Weekday(); day != time.Monday {
		t.Fatalf("expected Monday, got %s", day)
	}
	if loc, _ := cfg.Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %s", loc)
	}
	if got := cfg.ResolveDBPath(path); got != filepath.Join(filepath.Dir(path), "tasks.db") {
		t.Fatalf("expected db next to config, got %s", got)
	}
}

func TestLoadOrCreateRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad toml":      "db_path = ",
		"bad weekday":   `first_weekday = "funday"`,
		"bad timezone":  `timezone = "Mars/Olympus"`,
		"negative undo": `undo_window_seconds = -1`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultConfigFileName)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadOrCreate(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestResolveDBPathKeepsAbsoluteAndMemory(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "x.db")
	if got := (Config{DBPath: abs}).ResolveDBPath("/etc/taskgroove/config.toml"); got != abs {
		t.Fatalf("expected absolute path unchanged, got %s", got)
	}
	if got := (Config{DBPath: ":memory:"}).ResolveDBPath("/etc/taskgroove/config.toml"); got != ":memory:" {
		t.Fatalf("expected :memory: unchanged, got %s", got)
	}
}
