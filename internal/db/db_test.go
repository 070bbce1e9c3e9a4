package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestOpenUpgradesLegacySlotTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	payload, err := EncodeTasks(sampleTasks())
	if err != nil {
		t.Fatalf("encode tasks: %v", err)
	}
	if _, err := legacy.Exec("CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)"); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := legacy.Exec("INSERT INTO kv (key, value) VALUES (?, ?)", tasksKey, string(payload)); err != nil {
		t.Fatalf("insert legacy slot: %v", err)
	}
	_ = legacy.Close()

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	var column string
	if err := conn.QueryRow("SELECT name FROM pragma_table_info('kv') WHERE name = 'updated_at'").Scan(&column); err != nil {
		t.Fatalf("expected updated_at column after upgrade: %v", err)
	}

	store := NewStore(conn)
	ctx := context.Background()
	tasks, found, err := store.LoadTasks(ctx)
	if err != nil || !found || len(tasks) != len(sampleTasks()) {
		t.Fatalf("expected legacy slot to load, got %d found=%v err=%v", len(tasks), found, err)
	}
	if err := store.SaveTasks(ctx, tasks[:1]); err != nil {
		t.Fatalf("save after upgrade: %v", err)
	}
	reloaded, _, err := store.LoadTasks(ctx)
	if err != nil || len(reloaded) != 1 {
		t.Fatalf("expected one task after save, got %d (%v)", len(reloaded), err)
	}
}
