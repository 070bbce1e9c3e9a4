package tracker

import (
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
)

// SeedFunc builds the collection used when nothing has been persisted yet.
type SeedFunc func(cal Calendar, now time.Time) []model.Task

// SampleTasks is the default seed: a few tasks due today and tomorrow, one
// already completed, one without a date.
func SampleTasks(cal Calendar, now time.Time) []model.Task {
	today := now
	tomorrow := cal.AddDays(now, 1)

	sample := []struct {
		name        string
		description string
		priority    model.Priority
		completed   bool
		due         *time.Time
		labels      []string
	}{
		{"Review meetings", "Check in with the team lead", model.PriorityHigh, false, &today, []string{"Work"}},
		{"Lunch", "Order food before noon", model.PriorityMedium, false, &tomorrow, []string{"Personal"}},
		{"Code review", "Review authentication module", model.PriorityHigh, false, &today, []string{"Work", "Urgent"}},
		{"Team standup", "Daily sync at 10 AM", model.PriorityMedium, true, &today, []string{"Work"}},
		{"Read a book", "", model.PriorityLow, false, nil, []string{"Ideas"}},
	}

	tasks := make([]model.Task, 0, len(sample))
	for _, entry := range sample {
		task := model.NewTask(entry.name)
		task.Description = entry.description
		task.Priority = entry.priority
		task.Completed = entry.completed
		if entry.due != nil {
			due := *entry.due
			task.DueDate = &due
		}
		task.Labels = entry.labels
		tasks = append(tasks, task)
	}
	return tasks
}
