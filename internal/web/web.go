package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
	"github.com/Joseda-hg/taskgroove/internal/tracker"
	"github.com/google/uuid"
)

var errNotFound = errors.New("task not found")

// HistoryLister is implemented by *db.Store.
type HistoryLister interface {
	ListHistory(ctx context.Context, taskID uuid.UUID) ([]model.HistoryEntry, error)
}

type Server struct {
	tracker *tracker.Tracker
	history HistoryLister
}

type taskPayload struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date"`
	Reminder    *time.Time `json:"reminder"`
	Labels      []string   `json:"labels"`
	Location    *string    `json:"location"`
}

type reschedulePayload struct {
	DueDate *time.Time `json:"due_date"`
	Quick   string     `json:"quick"`
}

type completedResponse struct {
	Tasks        []model.Task `json:"tasks"`
	HasMore      bool         `json:"has_more"`
	Remaining    int          `json:"remaining"`
	DisplayLimit int          `json:"display_limit"`
	LoadingMore  bool         `json:"loading_more"`
}

type undoResponse struct {
	Pending bool               `json:"pending"`
	Toast   *tracker.UndoToast `json:"toast,omitempty"`
}

func NewServer(tr *tracker.Tracker, history HistoryLister) *Server {
	return &Server{tracker: tr, history: history}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", s.apiTasksHandler)
	mux.HandleFunc("/api/tasks/", s.apiTaskHandler)
	mux.HandleFunc("/api/undo", s.apiUndoHandler)
	mux.HandleFunc("/api/completed", s.apiCompletedHandler)
	mux.HandleFunc("/api/completed/more", s.apiCompletedMoreHandler)
	mux.HandleFunc("/api/days/", s.apiDayHandler)
	mux.HandleFunc("/api/calendar", s.apiCalendarHandler)
	mux.HandleFunc("/api/agenda", s.apiAgendaHandler)
	mux.HandleFunc("/api/stats", s.apiStatsHandler)
	return mux
}

func (s *Server) apiTasksHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, ok := model.ParseFilter(r.URL.Query().Get("filter"))
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown filter %q", r.URL.Query().Get("filter")))
			return
		}
		writeJSON(w, http.StatusOK, s.tracker.FilteredTasks(filter))
	case http.MethodPost:
		var payload taskPayload
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := model.ValidateName(payload.Name); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		task, err := payload.toTask(model.NewTask(strings.TrimSpace(payload.Name)))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, s.tracker.AddTask(r.Context(), task))
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// apiTaskHandler serves /api/tasks/{id} and its toggle, reschedule and
// history actions.
func (s *Server) apiTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, action, err := parseTaskPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	switch action {
	case "":
		s.taskResource(w, r, id)
	case "toggle":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		if !s.tracker.ToggleCompletion(r.Context(), id) {
			writeError(w, http.StatusNotFound, errNotFound)
			return
		}
		task, _ := s.tracker.Task(id)
		writeJSON(w, http.StatusOK, task)
	case "reschedule":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		s.reschedule(w, r, id)
	case "history":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		if s.history == nil {
			writeJSON(w, http.StatusOK, []model.HistoryEntry{})
			return
		}
		history, err := s.history.ListHistory(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown action %q", action))
	}
}

func (s *Server) taskResource(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	existing, ok := s.tracker.Task(id)
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, existing)
	case http.MethodPut:
		var payload taskPayload
		if err := decodeBody(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := model.ValidateName(payload.Name); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		task, err := payload.toTask(existing)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		task.Name = strings.TrimSpace(payload.Name)
		if !s.tracker.UpdateTask(r.Context(), task) {
			writeError(w, http.StatusNotFound, errNotFound)
			return
		}
		updated, _ := s.tracker.Task(id)
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if !s.tracker.DeleteTask(r.Context(), id) {
			writeError(w, http.StatusNotFound, errNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) reschedule(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var payload reschedulePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var target time.Time
	switch {
	case payload.Quick != "":
		option, ok := tracker.ParseQuickOption(payload.Quick)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown quick option %q", payload.Quick))
			return
		}
		target = tracker.QuickDate(s.tracker.Calendar(), s.tracker.Now(), option)
	case payload.DueDate != nil:
		target = *payload.DueDate
	default:
		writeError(w, http.StatusBadRequest, errors.New("due_date or quick is required"))
		return
	}

	if _, ok := s.tracker.Task(id); !ok {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	toast, changed := s.tracker.RescheduleTask(r.Context(), id, target)
	response := undoResponse{Pending: changed}
	if changed {
		response.Toast = &toast
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) apiUndoHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		toast, pending := s.tracker.PendingUndo()
		response := undoResponse{Pending: pending}
		if pending {
			response.Toast = &toast
		}
		writeJSON(w, http.StatusOK, response)
	case http.MethodPost:
		undone := s.tracker.UndoLastReschedule(r.Context())
		writeJSON(w, http.StatusOK, map[string]bool{"undone": undone})
	case http.MethodDelete:
		s.tracker.DismissUndo()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

func (s *Server) apiCompletedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, s.completed())
}

func (s *Server) apiCompletedMoreHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	s.tracker.LoadMoreCompleted()
	writeJSON(w, http.StatusOK, s.completed())
}

func (s *Server) completed() completedResponse {
	return completedResponse{
		Tasks:        s.tracker.VisibleCompletedTasks(),
		HasMore:      s.tracker.HasMoreCompleted(),
		Remaining:    s.tracker.RemainingCompleted(),
		DisplayLimit: s.tracker.DisplayLimit(),
		LoadingMore:  s.tracker.LoadingMore(),
	}
}

func (s *Server) apiDayHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	value := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/days/"), "/")
	day, err := time.ParseInLocation("2006-01-02", value, s.tracker.Calendar().Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("date must be YYYY-MM-DD: %w", err))
		return
	}

	tasks := s.tracker.TasksForDate(day)
	writeJSON(w, http.StatusOK, struct {
		Date     string       `json:"date"`
		HasTasks bool         `json:"has_tasks"`
		Tasks    []model.Task `json:"tasks"`
	}{Date: value, HasTasks: s.tracker.HasTasksOn(day), Tasks: tasks})
}

func (s *Server) apiCalendarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	month := s.tracker.Now()
	if value := strings.TrimSpace(r.URL.Query().Get("month")); value != "" {
		parsed, err := time.ParseInLocation("2006-01", value, s.tracker.Calendar().Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("month must be YYYY-MM: %w", err))
			return
		}
		month = parsed
	}
	writeJSON(w, http.StatusOK, s.tracker.MonthGrid(month))
}

func (s *Server) apiAgendaHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	agenda := s.tracker.Agenda()
	if r.URL.Query().Get("all") != "true" {
		busy := make([]model.DayBucket, 0)
		for _, bucket := range agenda {
			if len(bucket.Tasks) > 0 {
				busy = append(busy, bucket)
			}
		}
		agenda = busy
	}
	writeJSON(w, http.StatusOK, agenda)
}

func (s *Server) apiStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Stats())
}

func (p taskPayload) toTask(base model.Task) (model.Task, error) {
	priority, err := model.ParsePriority(p.Priority)
	if err != nil {
		return model.Task{}, err
	}
	task := base
	task.Description = p.Description
	task.Priority = priority
	task.Completed = p.Completed
	task.DueDate = p.DueDate
	task.Reminder = p.Reminder
	task.Labels = p.Labels
	task.Location = p.Location
	return task, nil
}

func parseTaskPath(path string) (uuid.UUID, string, error) {
	const prefix = "/api/tasks/"
	if !strings.HasPrefix(path, prefix) {
		return uuid.Nil, "", fmt.Errorf("invalid path")
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, prefix), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return uuid.Nil, "", fmt.Errorf("missing id")
	}
	if len(parts) > 2 {
		return uuid.Nil, "", fmt.Errorf("invalid path")
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", err
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action, nil
}

func decodeBody(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}
