package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
)

// Classify places a due date into exactly one named bucket relative to now.
// Narrower windows win: a date that is both today and this week is Today.
// Dated tasks outside every window (overdue, or after next month) report
// false and only show up under All.
func Classify(cal Calendar, now time.Time, due *time.Time) (model.Filter, bool) {
	if due == nil {
		return model.FilterNoDate, true
	}

	date := *due
	switch {
	case cal.SameDay(date, now):
		return model.FilterToday, true
	case cal.SameDay(date, cal.AddDays(now, 1)):
		return model.FilterTomorrow, true
	case cal.SameWeek(date, now):
		return model.FilterThisWeek, true
	case cal.SameWeek(date, cal.AddDays(now, 7)):
		return model.FilterNextWeek, true
	case cal.SameMonth(date, now):
		return model.FilterThisMonth, true
	case cal.SameMonth(date, cal.AddMonths(now, 1)):
		return model.FilterNextMonth, true
	}
	return "", false
}

func Matches(cal Calendar, now time.Time, filter model.Filter, task model.Task) bool {
	if filter == model.FilterAll {
		return true
	}
	bucket, ok := Classify(cal, now, task.DueDate)
	return ok && bucket == filter
}

// filterTasks keeps collection order and drops completed tasks.
func filterTasks(cal Calendar, now time.Time, tasks []model.Task, filter model.Filter) []model.Task {
	result := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		if Matches(cal, now, filter, task) {
			result = append(result, task)
		}
	}
	return result
}

type QuickOption string

const (
	QuickToday       QuickOption = "today"
	QuickTomorrow    QuickOption = "tomorrow"
	QuickThisWeekend QuickOption = "this_weekend"
	QuickNextWeek    QuickOption = "next_week"
)

var QuickOptions = []QuickOption{QuickToday, QuickTomorrow, QuickThisWeekend, QuickNextWeek}

func (o QuickOption) Label() string {
	switch o {
	case QuickToday:
		return "Today"
	case QuickTomorrow:
		return "Tomorrow"
	case QuickThisWeekend:
		return "This Weekend"
	case QuickNextWeek:
		return "Next Week"
	}
	return string(o)
}

func ParseQuickOption(value string) (QuickOption, bool) {
	normalized := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(value)))
	for _, option := range QuickOptions {
		if string(option) == normalized {
			return option, true
		}
	}
	return "", false
}

// QuickDate resolves a quick option against now, keeping now's time of day.
// This Weekend is the coming Saturday, or the next one when now is Saturday.
func QuickDate(cal Calendar, now time.Time, option QuickOption) time.Time {
	switch option {
	case QuickTomorrow:
		return cal.AddDays(now, 1)
	case QuickThisWeekend:
		days := (int(time.Saturday) - int(now.In(cal.location()).Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return cal.AddDays(now, days)
	case QuickNextWeek:
		return cal.AddDays(now, 7)
	}
	return now
}

func rescheduleMessage(cal Calendar, now, date time.Time) string {
	switch {
	case cal.SameDay(date, now):
		return "Scheduled for Today"
	case cal.SameDay(date, cal.AddDays(now, 1)):
		return "Scheduled for Tomorrow"
	}
	return fmt.Sprintf("Scheduled for %s", date.In(cal.location()).Format("Jan 2"))
}

// sameScheduledDay reports whether moving a task to next would leave it on the
// day it already resolves to. Undated tasks resolve to today.
func sameScheduledDay(cal Calendar, now time.Time, current *time.Time, next time.Time) bool {
	reference := now
	if current != nil {
		reference = *current
	}
	return cal.SameDay(reference, next)
}
