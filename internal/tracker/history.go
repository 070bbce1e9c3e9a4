package tracker

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
)

func formatCreatedDetails(task model.Task) string {
	return fmt.Sprintf("created: name='%s' priority=%s due=%s labels=%s", task.Name, task.Priority, formatDue(task.DueDate), formatLabels(task.Labels))
}

func formatDeletedDetails(task model.Task) string {
	return fmt.Sprintf("deleted: name='%s' priority=%s due=%s labels=%s", task.Name, task.Priority, formatDue(task.DueDate), formatLabels(task.Labels))
}

func formatDueChange(before, after *time.Time) string {
	return formatChange("due", formatDue(before), formatDue(after))
}

func formatTaskDiff(before, after model.Task) string {
	changes := []string{}
	if before.Name != after.Name {
		changes = append(changes, formatChange("name", before.Name, after.Name))
	}
	if before.Description != after.Description {
		changes = append(changes, formatChange("description", before.Description, after.Description))
	}
	if before.Priority != after.Priority {
		changes = append(changes, formatChange("priority", string(before.Priority), string(after.Priority)))
	}
	if before.Completed != after.Completed {
		changes = append(changes, formatChange("completed", fmt.Sprint(before.Completed), fmt.Sprint(after.Completed)))
	}
	if formatDue(before.DueDate) != formatDue(after.DueDate) {
		changes = append(changes, formatDueChange(before.DueDate, after.DueDate))
	}
	if formatDue(before.Reminder) != formatDue(after.Reminder) {
		changes = append(changes, formatChange("reminder", formatDue(before.Reminder), formatDue(after.Reminder)))
	}
	if formatLocation(before.Location) != formatLocation(after.Location) {
		changes = append(changes, formatChange("location", formatLocation(before.Location), formatLocation(after.Location)))
	}
	beforeLabels := formatLabels(before.Labels)
	afterLabels := formatLabels(after.Labels)
	if beforeLabels != afterLabels {
		changes = append(changes, formatChange("labels", beforeLabels, afterLabels))
	}

	if len(changes) == 0 {
		return "updated: no changes"
	}

	return "updated: " + strings.Join(changes, "; ")
}

func formatChange(field, before, after string) string {
	return fmt.Sprintf("%s: '%s' -> '%s'", field, valueOrNone(before), valueOrNone(after))
}

func valueOrNone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	return trimmed
}

func formatDue(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.Format(time.RFC3339)
}

func formatLocation(value *string) string {
	if value == nil {
		return "none"
	}
	return *value
}

func formatLabels(labels []string) string {
	if len(labels) == 0 {
		return "none"
	}
	names := append([]string(nil), labels...)
	sort.Strings(names)
	return strings.Join(names, ",")
}

// normalizeLabels trims, drops blanks and removes case-insensitive
// duplicates, keeping the first spelling.
func normalizeLabels(labels []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(labels))
	for _, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
