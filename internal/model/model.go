package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow, PriorityNone}

// Weight is the display weight of a priority. It has no effect on ordering.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	default:
		return "None"
	}
}

func ParsePriority(value string) (Priority, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "none", "0":
		return PriorityNone, nil
	case "low", "1":
		return PriorityLow, nil
	case "medium", "med", "2":
		return PriorityMedium, nil
	case "high", "3":
		return PriorityHigh, nil
	}
	return PriorityNone, errors.New("priority must be one of high, medium, low, none")
}

type Task struct {
	ID          uuid.UUID  `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	Completed   bool       `json:"completed" yaml:"completed"`
	DueDate     *time.Time `json:"due_date" yaml:"due_date"`
	Reminder    *time.Time `json:"reminder" yaml:"reminder"`
	Labels      []string   `json:"labels" yaml:"labels"`
	Location    *string    `json:"location" yaml:"location"`
}

// NewTask assigns a fresh identifier. The name is taken as given.
func NewTask(name string) Task {
	return Task{
		ID:       uuid.New(),
		Name:     name,
		Priority: PriorityNone,
		Labels:   []string{},
	}
}

// Clone returns a copy that shares no pointers or slices with t.
func (t Task) Clone() Task {
	clone := t
	if t.DueDate != nil {
		due := *t.DueDate
		clone.DueDate = &due
	}
	if t.Reminder != nil {
		reminder := *t.Reminder
		clone.Reminder = &reminder
	}
	if t.Location != nil {
		location := *t.Location
		clone.Location = &location
	}
	if t.Labels != nil {
		clone.Labels = append([]string(nil), t.Labels...)
	}
	return clone
}

var ErrEmptyName = errors.New("task name is required")

// ValidateName is the creation-form check. The tracker itself accepts any name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterToday     Filter = "today"
	FilterTomorrow  Filter = "tomorrow"
	FilterThisWeek  Filter = "this_week"
	FilterNextWeek  Filter = "next_week"
	FilterThisMonth Filter = "this_month"
	FilterNextMonth Filter = "next_month"
	FilterNoDate    Filter = "no_date"
)

var Filters = []Filter{
	FilterAll,
	FilterToday,
	FilterTomorrow,
	FilterThisWeek,
	FilterNextWeek,
	FilterThisMonth,
	FilterNextMonth,
	FilterNoDate,
}

func (f Filter) Label() string {
	switch f {
	case FilterAll:
		return "All"
	case FilterToday:
		return "Today"
	case FilterTomorrow:
		return "Tomorrow"
	case FilterThisWeek:
		return "This Week"
	case FilterNextWeek:
		return "Next Week"
	case FilterThisMonth:
		return "This Month"
	case FilterNextMonth:
		return "Next Month"
	case FilterNoDate:
		return "No Date"
	}
	return string(f)
}

// ParseFilter accepts the identifier ("this_week"), the label ("This Week")
// or a dashed form ("this-week").
func ParseFilter(value string) (Filter, bool) {
	normalized := strings.TrimSpace(strings.ToLower(value))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	if normalized == "" {
		return FilterAll, true
	}
	for _, filter := range Filters {
		if string(filter) == normalized {
			return filter, true
		}
	}
	return "", false
}

type DayBucket struct {
	Date  time.Time `json:"date"`
	Tasks []Task    `json:"tasks"`
}

type CalendarDate struct {
	Date           time.Time `json:"date"`
	InCurrentMonth bool      `json:"in_current_month"`
	IsToday        bool      `json:"is_today"`
	HasTasks       bool      `json:"has_tasks"`
}

type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	DueToday  int `json:"due_today"`
	Overdue   int `json:"overdue"`
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	EventType string    `json:"event_type"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
