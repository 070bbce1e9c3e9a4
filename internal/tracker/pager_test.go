package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
)

func completedTasks(count int) []model.Task {
	tasks := make([]model.Task, 0, count)
	for i := 0; i < count; i++ {
		due := date(2024, time.January, 1).AddDate(0, 0, i)
		task := taskDue(fmt.Sprintf("done %02d", i), &due)
		task.Completed = true
		tasks = append(tasks, task)
	}
	return tasks
}

func TestCompletedPagerScenario(t *testing.T) {
	tr := newTestTracker(t, wednesday, completedTasks(75)...)

	if !tr.HasMoreCompleted() {
		t.Fatalf("expected more completed tasks")
	}
	if got := tr.RemainingCompleted(); got != 25 {
		t.Fatalf("expected 25 remaining, got %d", got)
	}
	before := tr.VisibleCompletedTasks()
	if len(before) != 50 {
		t.Fatalf("expected 50 visible, got %d", len(before))
	}

	tr.LoadMoreCompleted()

	if got := tr.DisplayLimit(); got != 100 {
		t.Fatalf("expected display limit 100, got %d", got)
	}
	if tr.LoadingMore() {
		t.Fatalf("expected loading flag to be cleared")
	}
	if tr.HasMoreCompleted() {
		t.Fatalf("expected no more completed tasks")
	}
	if got := tr.RemainingCompleted(); got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}
	after := tr.VisibleCompletedTasks()
	if len(after) != 75 {
		t.Fatalf("expected 75 visible, got %d", len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Fatalf("expected visible set to grow as a superset, index %d changed", i)
		}
	}
}

func TestLoadMoreWithFewCompletedIsHarmless(t *testing.T) {
	tr := newTestTracker(t, wednesday, completedTasks(10)...)

	if tr.HasMoreCompleted() {
		t.Fatalf("expected no more completed tasks")
	}
	tr.LoadMoreCompleted()
	if got := tr.DisplayLimit(); got != 100 {
		t.Fatalf("expected display limit 100, got %d", got)
	}
	if got := len(tr.VisibleCompletedTasks()); got != 10 {
		t.Fatalf("expected 10 visible, got %d", got)
	}
}

func TestCompletedSortedByDueDescendingUndatedLast(t *testing.T) {
	undatedFirst := taskDue("undated first", nil)
	undatedFirst.Completed = true
	undatedSecond := taskDue("undated second", nil)
	undatedSecond.Completed = true
	old := taskDue("old", datePtr(2024, time.March, 1))
	old.Completed = true
	recent := taskDue("recent", datePtr(2025, time.January, 1))
	recent.Completed = true
	open := taskDue("open", datePtr(2025, time.February, 1))

	got := taskNames(sortCompleted([]model.Task{undatedFirst, old, open, undatedSecond, recent}))
	want := []string{"recent", "old", "undated first", "undated second"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCustomPageSize(t *testing.T) {
	tr := New(nil, WithPageSize(20), WithSeed(func(Calendar, time.Time) []model.Task { return completedTasks(30) }))
	tr.Load(context.Background())

	if got := len(tr.VisibleCompletedTasks()); got != 20 {
		t.Fatalf("expected 20 visible, got %d", got)
	}
	tr.LoadMoreCompleted()
	if got := tr.DisplayLimit(); got != 40 {
		t.Fatalf("expected display limit 40, got %d", got)
	}
}
