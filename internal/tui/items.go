package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
	"github.com/Joseda-hg/taskgroove/internal/tracker"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

func formatLabels(labels []string) string {
	if len(labels) == 0 {
		return "no labels"
	}
	return strings.Join(labels, ",")
}

func formatDue(due *time.Time, loc *time.Location) string {
	if due == nil {
		return "no date"
	}
	local := due.In(loc)
	if local.Hour() == 0 && local.Minute() == 0 {
		return local.Format(dateLayout)
	}
	return local.Format(dateTimeLayout)
}

func formatTaskSummary(task model.Task, loc *time.Location) string {
	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	parts := []string{fmt.Sprintf("%s %s", check, task.Name), formatDue(task.DueDate, loc)}
	if task.Priority != model.PriorityNone && task.Priority != "" {
		parts = append(parts, task.Priority.Label())
	}
	if len(task.Labels) > 0 {
		parts = append(parts, formatLabels(task.Labels))
	}
	return strings.Join(parts, " | ")
}

func filterTabs(active model.Filter) string {
	tabs := make([]string, 0, len(model.Filters))
	for _, filter := range model.Filters {
		if filter == active {
			tabs = append(tabs, "["+filter.Label()+"]")
			continue
		}
		tabs = append(tabs, " "+filter.Label()+" ")
	}
	return strings.Join(tabs, "")
}

func shiftFilter(current model.Filter, delta int) model.Filter {
	index := 0
	for i, filter := range model.Filters {
		if filter == current {
			index = i
			break
		}
	}
	count := len(model.Filters)
	return model.Filters[((index+delta)%count+count)%count]
}

// busyDays drops agenda days without tasks.
func busyDays(agenda []model.DayBucket) []model.DayBucket {
	result := make([]model.DayBucket, 0)
	for _, bucket := range agenda {
		if len(bucket.Tasks) > 0 {
			result = append(result, bucket)
		}
	}
	return result
}

func agendaLines(agenda []model.DayBucket, cal tracker.Calendar, now time.Time) []string {
	if len(agenda) == 0 {
		return []string{"Nothing scheduled"}
	}
	lines := make([]string, 0, len(agenda)*2)
	for _, bucket := range agenda {
		heading := bucket.Date.Format("Mon Jan 2 2006")
		switch {
		case cal.SameDay(bucket.Date, now):
			heading = "Today, " + heading
		case cal.SameDay(bucket.Date, cal.AddDays(now, 1)):
			heading = "Tomorrow, " + heading
		}
		lines = append(lines, heading)
		for _, task := range bucket.Tasks {
			check := "-"
			if task.Completed {
				check = "x"
			}
			lines = append(lines, fmt.Sprintf("  %s %s", check, task.Name))
		}
	}
	return lines
}

// calendarLines renders a month grid as a title, a weekday header and rows of
// seven cells. Today is bracketed and days with tasks carry a '*'.
func calendarLines(grid []model.CalendarDate, month time.Time, firstWeekday time.Weekday) []string {
	lines := []string{month.Format("January 2006")}

	header := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		day := time.Weekday((int(firstWeekday) + i) % 7)
		header = append(header, fmt.Sprintf(" %s ", day.String()[:2]))
	}
	lines = append(lines, strings.Join(header, ""))

	row := make([]string, 0, 7)
	for _, cell := range grid {
		row = append(row, calendarCell(cell))
		if len(row) == 7 {
			lines = append(lines, strings.Join(row, ""))
			row = row[:0]
		}
	}
	if len(row) > 0 {
		lines = append(lines, strings.Join(row, ""))
	}
	return lines
}

func calendarCell(cell model.CalendarDate) string {
	if !cell.InCurrentMonth {
		return "    "
	}
	left, right := " ", " "
	if cell.IsToday {
		left, right = "[", "]"
	}
	if cell.HasTasks && !cell.IsToday {
		right = "*"
	}
	return fmt.Sprintf("%s%2d%s", left, cell.Date.Day(), right)
}
