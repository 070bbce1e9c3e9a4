package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const DefaultUndoWindow = 5 * time.Second

// Timer is the part of *time.Timer the undo window needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. Tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// UndoToast describes the pending reschedule a caller may still revert.
type UndoToast struct {
	TaskID    uuid.UUID `json:"task_id"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// memento is the single undo slot. seq tells a stale expiry timer apart
// from the memento that replaced it.
type memento struct {
	seq      uint64
	taskID   uuid.UUID
	previous *time.Time
	toast    UndoToast
	timer    Timer
}

// RescheduleTask moves a task to date and opens the undo window. Picking the
// day the task is already on (today, for undated tasks) changes nothing and
// opens no window. A new reschedule replaces any pending undo.
func (t *Tracker) RescheduleTask(ctx context.Context, id uuid.UUID, date time.Time) (UndoToast, bool) {
	t.mu.Lock()
	index := t.indexOf(id)
	if index < 0 {
		t.mu.Unlock()
		return UndoToast{}, false
	}

	now := t.now()
	current := t.tasks[index].DueDate
	if sameScheduledDay(t.calendar, now, current, date) {
		t.mu.Unlock()
		return UndoToast{}, false
	}

	t.cancelUndoLocked()

	var previous *time.Time
	if current != nil {
		saved := *current
		previous = &saved
	}
	next := date
	t.setDueDateLocked(ctx, index, &next, "rescheduled")

	t.undoSeq++
	seq := t.undoSeq
	toast := UndoToast{
		TaskID:    id,
		Message:   rescheduleMessage(t.calendar, now, date),
		ExpiresAt: now.Add(t.undoWindow),
	}
	pending := &memento{seq: seq, taskID: id, previous: previous, toast: toast}
	pending.timer = t.afterFunc(t.undoWindow, func() { t.expireUndo(seq) })
	t.pending = pending
	t.mu.Unlock()

	t.changed()
	return toast, true
}

// UndoLastReschedule restores the due date captured by the pending
// reschedule. It reports false when nothing is pending or the task is gone.
func (t *Tracker) UndoLastReschedule(ctx context.Context) bool {
	t.mu.Lock()
	pending := t.pending
	if pending == nil {
		t.mu.Unlock()
		return false
	}
	t.cancelUndoLocked()

	index := t.indexOf(pending.taskID)
	if index < 0 {
		t.mu.Unlock()
		t.changed()
		return false
	}
	t.setDueDateLocked(ctx, index, pending.previous, "reschedule undone")
	t.mu.Unlock()

	t.changed()
	return true
}

// DismissUndo closes the window early. The reschedule stands.
func (t *Tracker) DismissUndo() {
	t.mu.Lock()
	hadPending := t.pending != nil
	t.cancelUndoLocked()
	t.mu.Unlock()

	if hadPending {
		t.changed()
	}
}

func (t *Tracker) PendingUndo() (UndoToast, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		return UndoToast{}, false
	}
	return t.pending.toast, true
}

func (t *Tracker) expireUndo(seq uint64) {
	t.mu.Lock()
	expired := t.pending != nil && t.pending.seq == seq
	if expired {
		t.pending = nil
	}
	t.mu.Unlock()

	if expired {
		t.changed()
	}
}

func (t *Tracker) cancelUndoLocked() {
	if t.pending == nil {
		return
	}
	if t.pending.timer != nil {
		t.pending.timer.Stop()
	}
	t.pending = nil
}
