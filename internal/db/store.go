package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
	"github.com/google/uuid"
)

const tasksKey = "tasks"

type Store struct {
	DB  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, now: time.Now}
}

// LoadTasks reads the tasks slot. A missing slot reports found=false with a
// nil error; an unreadable slot returns an error wrapping ErrDecode.
func (s *Store) LoadTasks(ctx context.Context) ([]model.Task, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", tasksKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	tasks, err := DecodeTasks([]byte(value))
	if err != nil {
		return nil, false, err
	}
	return tasks, true, nil
}

func (s *Store) SaveTasks(ctx context.Context, tasks []model.Task) error {
	payload, err := EncodeTasks(tasks)
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, tasksKey, string(payload))
	return err
}

// ClearTasks drops the tasks slot so the next load starts from the seed set.
func (s *Store) ClearTasks(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", tasksKey)
	return err
}

func (s *Store) AddHistory(ctx context.Context, taskID uuid.UUID, eventType, details string) error {
	_, err := s.DB.ExecContext(ctx, "INSERT INTO history (task_id, event_type, details, created_at) VALUES (?, ?, ?, ?)",
		taskID.String(), eventType, details, s.now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) ListHistory(ctx context.Context, taskID uuid.UUID) ([]model.HistoryEntry, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, event_type, details, created_at FROM history WHERE task_id = ? ORDER BY id", taskID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []model.HistoryEntry{}
	for rows.Next() {
		entry := model.HistoryEntry{TaskID: taskID}
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.EventType, &entry.Details, &createdAt); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.CreatedAt = parsed
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}
