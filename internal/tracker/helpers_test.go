package tracker

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
	"github.com/google/uuid"
)

type memoryPersister struct {
	mu      sync.Mutex
	tasks   []model.Task
	found   bool
	loadErr error
	saveErr error
	saves   int
}

func (p *memoryPersister) LoadTasks(context.Context) ([]model.Task, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, false, p.loadErr
	}
	return cloneTasks(p.tasks), p.found, nil
}

func (p *memoryPersister) SaveTasks(_ context.Context, tasks []model.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.tasks = cloneTasks(tasks)
	p.found = true
	return nil
}

func (p *memoryPersister) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

type journalEntry struct {
	taskID    uuid.UUID
	eventType string
	details   string
}

type memoryJournal struct {
	entries []journalEntry
}

func (j *memoryJournal) AddHistory(_ context.Context, taskID uuid.UUID, eventType, details string) error {
	j.entries = append(j.entries, journalEntry{taskID: taskID, eventType: eventType, details: details})
	return nil
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (m *manualTimer) Stop() bool {
	active := !m.stopped && !m.fired
	m.stopped = true
	return active
}

type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	timer := &manualTimer{delay: d, fn: f}
	m.timers = append(m.timers, timer)
	return timer
}

// fire runs every timer that is neither stopped nor already fired.
func (m *manualTimers) fire() {
	m.mu.Lock()
	due := []*manualTimer{}
	for _, timer := range m.timers {
		if !timer.stopped && !timer.fired {
			timer.fired = true
			due = append(due, timer)
		}
	}
	m.mu.Unlock()

	for _, timer := range due {
		timer.fn()
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type testTracker struct {
	*Tracker
	persister *memoryPersister
	journal   *memoryJournal
	timers    *manualTimers
	clock     *fakeClock
}

var utcCalendar = Calendar{Location: time.UTC, FirstWeekday: time.Sunday}

func newTestTracker(t *testing.T, now time.Time, tasks ...model.Task) *testTracker {
	t.Helper()
	persister := &memoryPersister{tasks: tasks, found: true}
	journal := &memoryJournal{}
	timers := &manualTimers{}
	clock := &fakeClock{now: now}

	tr := New(persister,
		WithClock(clock.Now),
		WithCalendar(utcCalendar),
		WithLogger(log.New(io.Discard, "", 0)),
		WithAfterFunc(timers.AfterFunc),
		WithJournal(journal),
	)
	tr.Load(context.Background())
	return &testTracker{Tracker: tr, persister: persister, journal: journal, timers: timers, clock: clock}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

func taskDue(name string, due *time.Time) model.Task {
	task := model.NewTask(name)
	task.DueDate = due
	return task
}

func taskNames(tasks []model.Task) []string {
	names := make([]string, 0, len(tasks))
	for _, task := range tasks {
		names = append(names, task.Name)
	}
	return names
}

func containsName(tasks []model.Task, name string) bool {
	for _, task := range tasks {
		if task.Name == name {
			return true
		}
	}
	return false
}

var errDisk = errors.New("disk full")
