package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/db"
	"github.com/Joseda-hg/taskgroove/internal/model"
	"github.com/Joseda-hg/taskgroove/internal/tracker"
)

var fixedNow = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func newTestServer(t *testing.T) (*Server, *tracker.Tracker, *db.Store) {
	t.Helper()
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	store := db.NewStore(conn)
	tr := tracker.New(store,
		tracker.WithClock(func() time.Time { return fixedNow }),
		tracker.WithCalendar(tracker.Calendar{Location: time.UTC, FirstWeekday: time.Sunday}),
		tracker.WithAfterFunc(func(time.Duration, func()) tracker.Timer { return idleTimer{} }),
		tracker.WithJournal(store),
		tracker.WithSeed(nil),
	)
	tr.Load(context.Background())
	return NewServer(tr, store), tr, store
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.NewDecoder(rec.Body).Decode(&value); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return value
}

func TestCreateAndFilterTasks(t *testing.T) {
	server, _, _ := newTestServer(t)
	handler := server.Handler()

	rec := do(t, handler, http.MethodPost, "/api/tasks", `{"name":"Pay rent","priority":"high","due_date":"2025-01-16T09:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[model.Task](t, rec)
	if created.Priority != model.PriorityHigh {
		t.Fatalf("expected high priority, got %s", created.Priority)
	}

	rec = do(t, handler, http.MethodGet, "/api/tasks?filter=tomorrow", "")
	tomorrow := decode[[]model.Task](t, rec)
	if len(tomorrow) != 1 || tomorrow[0].ID != created.ID {
		t.Fatalf("expected Pay rent under tomorrow, got %+v", tomorrow)
	}

	rec = do(t, handler, http.MethodGet, "/api/tasks?filter=today", "")
	if today := decode[[]model.Task](t, rec); len(today) != 0 {
		t.Fatalf("expected nothing due today, got %d", len(today))
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	server, _, _ := newTestServer(t)
	handler := server.Handler()

	cases := map[string]string{
		"empty name":   `{"name":"   "}`,
		"bad priority": `{"name":"x","priority":"urgent"}`,
		"bad json":     `{"name":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if rec := do(t, handler, http.MethodPost, "/api/tasks", body); rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}

	if rec := do(t, handler, http.MethodGet, "/api/tasks?filter=someday", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown filter, got %d", rec.Code)
	}
}

func TestRescheduleUndoFlow(t *testing.T) {
	server, tr, store := newTestServer(t)
	handler := server.Handler()

	task := tr.AddTask(context.Background(), model.NewTask("Pay rent"))
	path := "/api/tasks/" + task.ID.String()

	rec := do(t, handler, http.MethodPost, path+"/reschedule", `{"quick":"tomorrow"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decode[undoResponse](t, rec)
	if !result.Pending || result.Toast == nil || result.Toast.Message != "Scheduled for Tomorrow" {
		t.Fatalf("unexpected reschedule response %+v", result)
	}

	rec = do(t, handler, http.MethodGet, "/api/undo", "")
	if pending := decode[undoResponse](t, rec); !pending.Pending {
		t.Fatalf("expected pending undo")
	}

	rec = do(t, handler, http.MethodPost, "/api/undo", "")
	if undone := decode[map[string]bool](t, rec); !undone["undone"] {
		t.Fatalf("expected undo to succeed")
	}
	restored, _ := tr.Task(task.ID)
	if restored.DueDate != nil {
		t.Fatalf("expected due date restored to none, got %v", restored.DueDate)
	}

	rec = do(t, handler, http.MethodGet, path+"/history", "")
	history := decode[[]model.HistoryEntry](t, rec)
	if len(history) != 3 {
		t.Fatalf("expected created, rescheduled and undone entries, got %d", len(history))
	}
	stored, err := store.ListHistory(context.Background(), task.ID)
	if err != nil || len(stored) != 3 {
		t.Fatalf("expected history in store, got %d (%v)", len(stored), err)
	}
}

func TestRescheduleToSameDayOpensNoWindow(t *testing.T) {
	server, tr, _ := newTestServer(t)
	handler := server.Handler()

	task := tr.AddTask(context.Background(), model.NewTask("Undated"))
	rec := do(t, handler, http.MethodPost, "/api/tasks/"+task.ID.String()+"/reschedule", `{"quick":"today"}`)
	if result := decode[undoResponse](t, rec); result.Pending {
		t.Fatalf("expected no undo window for same-day reschedule")
	}
	if _, pending := tr.PendingUndo(); pending {
		t.Fatalf("expected tracker to have no pending undo")
	}
}

func TestTaskResourceNotFound(t *testing.T) {
	server, _, _ := newTestServer(t)
	handler := server.Handler()

	missing := "/api/tasks/7d444840-9dc0-11d1-b245-5ffdce74fad2"
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if rec := do(t, handler, method, missing, ""); rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", method, rec.Code)
		}
	}
	if rec := do(t, handler, http.MethodPost, missing+"/toggle", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("toggle: expected 404, got %d", rec.Code)
	}
	if rec := do(t, handler, http.MethodGet, "/api/tasks/not-a-uuid", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", rec.Code)
	}
}

func TestToggleUpdateDelete(t *testing.T) {
	server, tr, _ := newTestServer(t)
	handler := server.Handler()

	task := tr.AddTask(context.Background(), model.NewTask("Write report"))
	path := "/api/tasks/" + task.ID.String()

	rec := do(t, handler, http.MethodPost, path+"/toggle", "")
	if toggled := decode[model.Task](t, rec); !toggled.Completed {
		t.Fatalf("expected task to be completed")
	}

	rec = do(t, handler, http.MethodPut, path, `{"name":"Write final report","priority":"low","labels":["work","work"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[model.Task](t, rec)
	if updated.Name != "Write final report" || updated.Priority != model.PriorityLow || len(updated.Labels) != 1 {
		t.Fatalf("unexpected update %+v", updated)
	}

	if rec := do(t, handler, http.MethodDelete, path, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(tr.Tasks()) != 0 {
		t.Fatalf("expected task to be deleted")
	}
}

func TestCompletedPaging(t *testing.T) {
	server, tr, _ := newTestServer(t)
	handler := server.Handler()

	for i := 0; i < 60; i++ {
		task := model.NewTask("done")
		task.Completed = true
		tr.AddTask(context.Background(), task)
	}

	rec := do(t, handler, http.MethodGet, "/api/completed", "")
	page := decode[completedResponse](t, rec)
	if len(page.Tasks) != 50 || !page.HasMore || page.Remaining != 10 {
		t.Fatalf("unexpected first page: %d tasks, more=%v remaining=%d", len(page.Tasks), page.HasMore, page.Remaining)
	}

	rec = do(t, handler, http.MethodPost, "/api/completed/more", "")
	page = decode[completedResponse](t, rec)
	if len(page.Tasks) != 60 || page.HasMore || page.DisplayLimit != 100 {
		t.Fatalf("unexpected second page: %d tasks, more=%v limit=%d", len(page.Tasks), page.HasMore, page.DisplayLimit)
	}
}

func TestDayCalendarAgendaStats(t *testing.T) {
	server, tr, _ := newTestServer(t)
	handler := server.Handler()

	due := fixedNow.Add(2 * time.Hour)
	task := model.NewTask("Review meetings")
	task.DueDate = &due
	tr.AddTask(context.Background(), task)

	rec := do(t, handler, http.MethodGet, "/api/days/2025-01-15", "")
	var day struct {
		HasTasks bool         `json:"has_tasks"`
		Tasks    []model.Task `json:"tasks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&day); err != nil {
		t.Fatalf("decode day: %v", err)
	}
	if !day.HasTasks || len(day.Tasks) != 1 {
		t.Fatalf("expected one task on 2025-01-15, got %+v", day)
	}
	if rec := do(t, handler, http.MethodGet, "/api/days/15-01-2025", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}

	rec = do(t, handler, http.MethodGet, "/api/calendar?month=2025-01", "")
	grid := decode[[]model.CalendarDate](t, rec)
	if len(grid) != 34 {
		t.Fatalf("expected 34 grid cells for January 2025, got %d", len(grid))
	}

	rec = do(t, handler, http.MethodGet, "/api/agenda", "")
	busy := decode[[]model.DayBucket](t, rec)
	if len(busy) != 1 || len(busy[0].Tasks) != 1 {
		t.Fatalf("expected one busy agenda day, got %d", len(busy))
	}
	rec = do(t, handler, http.MethodGet, "/api/agenda?all=true", "")
	if all := decode[[]model.DayBucket](t, rec); len(all) != 609 {
		t.Fatalf("expected 609 agenda days, got %d", len(all))
	}

	rec = do(t, handler, http.MethodGet, "/api/stats", "")
	stats := decode[model.Stats](t, rec)
	if stats.Total != 1 || stats.DueToday != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := do(t, server.Handler(), http.MethodPatch, "/api/stats", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("expected Allow header, got %q", rec.Header().Get("Allow"))
	}
}
