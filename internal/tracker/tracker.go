// Package tracker owns the task collection and derives every view of it:
// date-bucketed filters, per-day agenda buckets, the completed-task pager
// and the reschedule undo window.
//
// A Tracker is the single writer of its collection. Mutations run under one
// mutex, persist the whole collection, and never return persistence errors
// to the caller; those are logged and the in-memory state stays
// authoritative. Reads copy a snapshot and resolve "now" on every call.
package tracker

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
	"github.com/google/uuid"
)

const AgendaMonths = 20

type Persister interface {
	LoadTasks(ctx context.Context) ([]model.Task, bool, error)
	SaveTasks(ctx context.Context, tasks []model.Task) error
}

type Journal interface {
	AddHistory(ctx context.Context, taskID uuid.UUID, eventType, details string) error
}

// Notifier receives completion signals, e.g. for a sound or a bell.
type Notifier interface {
	TaskCompleted(task model.Task)
	TaskReopened(task model.Task)
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithCalendar(cal Calendar) Option {
	return func(t *Tracker) { t.calendar = cal }
}

func WithLogger(logger *log.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

func WithUndoWindow(window time.Duration) Option {
	return func(t *Tracker) { t.undoWindow = window }
}

func WithAfterFunc(afterFunc AfterFunc) Option {
	return func(t *Tracker) { t.afterFunc = afterFunc }
}

func WithPageSize(size int) Option {
	return func(t *Tracker) { t.pager = newCompletedPager(size) }
}

func WithNotifier(notifier Notifier) Option {
	return func(t *Tracker) { t.notifier = notifier }
}

func WithJournal(journal Journal) Option {
	return func(t *Tracker) { t.journal = journal }
}

// WithSeed replaces the sample seed. A nil seed starts from an empty collection.
func WithSeed(seed SeedFunc) Option {
	return func(t *Tracker) { t.seed = seed }
}

// WithOnChange registers a callback run after every state change, including
// undo expiry on the timer goroutine. It is called without the lock held.
func WithOnChange(onChange func()) Option {
	return func(t *Tracker) { t.onChange = onChange }
}

type Tracker struct {
	mu sync.Mutex

	persister  Persister
	journal    Journal
	notifier   Notifier
	logger     *log.Logger
	now        func() time.Time
	calendar   Calendar
	undoWindow time.Duration
	afterFunc  AfterFunc
	seed       SeedFunc
	onChange   func()

	tasks   []model.Task
	loading atomic.Bool
	pager   completedPager
	pending *memento
	undoSeq uint64
}

// New builds a Tracker over persister, which may be nil for a purely
// in-memory collection. Call Load to read persisted state.
func New(persister Persister, opts ...Option) *Tracker {
	t := &Tracker{
		persister:  persister,
		logger:     log.Default(),
		now:        time.Now,
		calendar:   DefaultCalendar(),
		undoWindow: DefaultUndoWindow,
		afterFunc:  realAfterFunc,
		seed:       SampleTasks,
		pager:      newCompletedPager(DefaultPageSize),
		tasks:      []model.Task{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard, "", 0)
	}
	t.calendar.Location = t.calendar.location()
	return t
}

// Load replaces the collection with the persisted one. A missing or
// unreadable slot falls back to the seed set, which is persisted right away.
func (t *Tracker) Load(ctx context.Context) {
	t.loading.Store(true)
	defer t.loading.Store(false)

	var tasks []model.Task
	found := false
	if t.persister != nil {
		loaded, ok, err := t.persister.LoadTasks(ctx)
		if err != nil {
			t.logger.Printf("load tasks: %v; treating as no saved data", err)
		} else {
			tasks, found = loaded, ok
		}
	}

	t.mu.Lock()
	if found {
		t.tasks = tasks
	} else {
		t.tasks = []model.Task{}
		if t.seed != nil {
			t.tasks = t.seed(t.calendar, t.now())
		}
		t.persistLocked(ctx)
	}
	t.cancelUndoLocked()
	t.mu.Unlock()

	t.changed()
}

func (t *Tracker) Loading() bool {
	return t.loading.Load()
}

func (t *Tracker) Calendar() Calendar {
	return t.calendar
}

func (t *Tracker) Now() time.Time {
	return t.now()
}

// AddTask prepends task. A zero ID is replaced with a fresh one; labels are
// deduplicated. The name is stored as given.
func (t *Tracker) AddTask(ctx context.Context, task model.Task) model.Task {
	task = task.Clone()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Priority == "" {
		task.Priority = model.PriorityNone
	}
	task.Labels = normalizeLabels(task.Labels)

	t.mu.Lock()
	t.tasks = append([]model.Task{task}, t.tasks...)
	t.persistLocked(ctx)
	t.record(ctx, task.ID, "created", formatCreatedDetails(task))
	t.mu.Unlock()

	t.changed()
	return task.Clone()
}

func (t *Tracker) ToggleCompletion(ctx context.Context, id uuid.UUID) bool {
	t.mu.Lock()
	index := t.indexOf(id)
	if index < 0 {
		t.mu.Unlock()
		return false
	}
	t.tasks[index].Completed = !t.tasks[index].Completed
	toggled := t.tasks[index].Clone()
	t.persistLocked(ctx)
	event := "reopened"
	if toggled.Completed {
		event = "completed"
	}
	t.record(ctx, id, event, event+": name='"+toggled.Name+"'")
	t.mu.Unlock()

	if t.notifier != nil {
		if toggled.Completed {
			t.notifier.TaskCompleted(toggled)
		} else {
			t.notifier.TaskReopened(toggled)
		}
	}
	t.changed()
	return true
}

// UpdateTask replaces the stored task with the same ID.
func (t *Tracker) UpdateTask(ctx context.Context, task model.Task) bool {
	task = task.Clone()
	if task.Priority == "" {
		task.Priority = model.PriorityNone
	}
	task.Labels = normalizeLabels(task.Labels)

	t.mu.Lock()
	index := t.indexOf(task.ID)
	if index < 0 {
		t.mu.Unlock()
		return false
	}
	before := t.tasks[index]
	t.tasks[index] = task
	t.persistLocked(ctx)
	t.record(ctx, task.ID, "updated", formatTaskDiff(before, task))
	t.mu.Unlock()

	t.changed()
	return true
}

// DeleteTask removes the task. A pending undo for it stays open but can no
// longer restore anything.
func (t *Tracker) DeleteTask(ctx context.Context, id uuid.UUID) bool {
	t.mu.Lock()
	index := t.indexOf(id)
	if index < 0 {
		t.mu.Unlock()
		return false
	}
	removed := t.tasks[index]
	t.tasks = append(t.tasks[:index:index], t.tasks[index+1:]...)
	t.persistLocked(ctx)
	t.record(ctx, id, "deleted", formatDeletedDetails(removed))
	t.mu.Unlock()

	t.changed()
	return true
}

func (t *Tracker) Tasks() []model.Task {
	tasks, _ := t.snapshot()
	return tasks
}

func (t *Tracker) Task(id uuid.UUID) (model.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	index := t.indexOf(id)
	if index < 0 {
		return model.Task{}, false
	}
	return t.tasks[index].Clone(), true
}

// FilteredTasks returns the non-completed tasks in filter's bucket, in
// collection order.
func (t *Tracker) FilteredTasks(filter model.Filter) []model.Task {
	tasks, now := t.snapshot()
	return filterTasks(t.calendar, now, tasks, filter)
}

// TasksForDate returns every task, completed or not, due on date's calendar day.
func (t *Tracker) TasksForDate(date time.Time) []model.Task {
	tasks, _ := t.snapshot()
	result := []model.Task{}
	for _, task := range tasks {
		if task.DueDate != nil && t.calendar.SameDay(*task.DueDate, date) {
			result = append(result, task)
		}
	}
	return result
}

func (t *Tracker) HasTasksOn(date time.Time) bool {
	tasks, _ := t.snapshot()
	for _, task := range tasks {
		if task.DueDate != nil && t.calendar.SameDay(*task.DueDate, date) {
			return true
		}
	}
	return false
}

// Agenda buckets all tasks by day from today through today plus AgendaMonths.
func (t *Tracker) Agenda() []model.DayBucket {
	tasks, now := t.snapshot()
	byDay := t.tasksByDay(tasks)

	start := t.calendar.StartOfDay(now)
	end := t.calendar.StartOfDay(t.calendar.AddMonthsClamped(start, AgendaMonths))
	buckets := []model.DayBucket{}
	for day := start; !day.After(end); day = t.calendar.NextDay(day) {
		dayTasks := byDay[t.calendar.dayKey(day)]
		if dayTasks == nil {
			dayTasks = []model.Task{}
		}
		buckets = append(buckets, model.DayBucket{Date: day, Tasks: dayTasks})
	}
	return buckets
}

// MonthGrid lays out month from the start of the week holding the 1st
// through the month's last day.
func (t *Tracker) MonthGrid(month time.Time) []model.CalendarDate {
	tasks, now := t.snapshot()
	byDay := t.tasksByDay(tasks)

	monthStart := t.calendar.StartOfMonth(month)
	monthEnd := t.calendar.AddMonths(monthStart, 1)
	dates := []model.CalendarDate{}
	for day := t.calendar.StartOfWeek(monthStart); day.Before(monthEnd); day = t.calendar.NextDay(day) {
		dates = append(dates, model.CalendarDate{
			Date:           day,
			InCurrentMonth: t.calendar.SameMonth(day, monthStart),
			IsToday:        t.calendar.SameDay(day, now),
			HasTasks:       len(byDay[t.calendar.dayKey(day)]) > 0,
		})
	}
	return dates
}

// Months returns the first day of the current month and the following ones
// up to AgendaMonths in total.
func (t *Tracker) Months() []time.Time {
	now := t.now()
	months := make([]time.Time, 0, AgendaMonths)
	for offset := 0; offset < AgendaMonths; offset++ {
		months = append(months, t.calendar.AddMonths(now, offset))
	}
	return months
}

func (t *Tracker) Stats() model.Stats {
	tasks, now := t.snapshot()
	today := t.calendar.StartOfDay(now)

	stats := model.Stats{Total: len(tasks)}
	for _, task := range tasks {
		if task.Completed {
			stats.Completed++
			continue
		}
		stats.Active++
		if task.DueDate == nil {
			continue
		}
		if t.calendar.SameDay(*task.DueDate, now) {
			stats.DueToday++
		} else if task.DueDate.Before(today) {
			stats.Overdue++
		}
	}
	return stats
}

func (t *Tracker) VisibleCompletedTasks() []model.Task {
	t.mu.Lock()
	completed := sortCompleted(t.tasks)
	visible := t.pager.visible(completed)
	t.mu.Unlock()
	return cloneTasks(visible)
}

func (t *Tracker) HasMoreCompleted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pager.hasMore(sortCompleted(t.tasks))
}

func (t *Tracker) RemainingCompleted() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pager.remaining(sortCompleted(t.tasks))
}

func (t *Tracker) DisplayLimit() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pager.limit
}

func (t *Tracker) LoadingMore() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pager.loadingMore
}

// LoadMoreCompleted raises the display limit by one page.
func (t *Tracker) LoadMoreCompleted() {
	t.mu.Lock()
	t.pager.loadMore()
	t.mu.Unlock()

	t.changed()
}

func (t *Tracker) snapshot() ([]model.Task, time.Time) {
	t.mu.Lock()
	tasks := cloneTasks(t.tasks)
	t.mu.Unlock()
	return tasks, t.now()
}

func (t *Tracker) tasksByDay(tasks []model.Task) map[string][]model.Task {
	byDay := make(map[string][]model.Task)
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		key := t.calendar.dayKey(*task.DueDate)
		byDay[key] = append(byDay[key], task)
	}
	return byDay
}

func (t *Tracker) indexOf(id uuid.UUID) int {
	for i := range t.tasks {
		if t.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) setDueDateLocked(ctx context.Context, index int, due *time.Time, event string) {
	before := t.tasks[index].DueDate
	t.tasks[index].DueDate = due
	t.persistLocked(ctx)
	t.record(ctx, t.tasks[index].ID, event, event+": "+formatDueChange(before, due))
}

func (t *Tracker) persistLocked(ctx context.Context) {
	if t.persister == nil {
		return
	}
	if err := t.persister.SaveTasks(ctx, cloneTasks(t.tasks)); err != nil {
		t.logger.Printf("save tasks: %v; keeping in-memory state", err)
	}
}

func (t *Tracker) record(ctx context.Context, id uuid.UUID, event, details string) {
	if t.journal == nil {
		return
	}
	if err := t.journal.AddHistory(ctx, id, event, details); err != nil {
		t.logger.Printf("record %s history for %s: %v", event, id, err)
	}
}

func (t *Tracker) changed() {
	if t.onChange != nil {
		t.onChange()
	}
}

func cloneTasks(tasks []model.Task) []model.Task {
	result := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		result = append(result, task.Clone())
	}
	return result
}
