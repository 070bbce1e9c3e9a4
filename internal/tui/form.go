package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/taskgroove/internal/model"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldName = iota
	fieldDescription
	fieldPriority
	fieldDue
	fieldLabels
	fieldLocation
)

type formInput struct {
	Name        string
	Description string
	Priority    model.Priority
	DueDate     *time.Time
	Labels      []string
	Location    *string
	dueText     string
}

func buildFormFields(task *model.Task, loc *time.Location) []formField {
	fields := []formField{
		{Label: "Name"},
		{Label: "Description"},
		{Label: "Priority (space/←→)"},
		{Label: "Due (YYYY-MM-DD [HH:MM])"},
		{Label: "Labels (comma separated)"},
		{Label: "Location"},
	}

	if task == nil {
		fields[fieldPriority].Value = string(model.PriorityNone)
		return fields
	}

	fields[fieldName].Value = task.Name
	fields[fieldDescription].Value = task.Description
	fields[fieldPriority].Value = string(task.Priority)
	if task.Priority == "" {
		fields[fieldPriority].Value = string(model.PriorityNone)
	}
	if task.DueDate != nil {
		fields[fieldDue].Value = formatDue(task.DueDate, loc)
	}
	fields[fieldLabels].Value = strings.Join(task.Labels, ",")
	if task.Location != nil {
		fields[fieldLocation].Value = *task.Location
	}

	return fields
}

func parseFormFields(fields []formField, loc *time.Location) (formInput, error) {
	name := strings.TrimSpace(fields[fieldName].Value)
	if err := model.ValidateName(name); err != nil {
		return formInput{}, err
	}

	priority, err := model.ParsePriority(fields[fieldPriority].Value)
	if err != nil {
		return formInput{}, err
	}

	due, err := parseDue(fields[fieldDue].Value, loc)
	if err != nil {
		return formInput{}, err
	}

	var location *string
	if value := strings.TrimSpace(fields[fieldLocation].Value); value != "" {
		location = &value
	}

	return formInput{
		Name:        name,
		Description: strings.TrimSpace(fields[fieldDescription].Value),
		Priority:    priority,
		DueDate:     due,
		Labels:      parseLabels(fields[fieldLabels].Value),
		Location:    location,
		dueText:     strings.TrimSpace(fields[fieldDue].Value),
	}, nil
}

// apply copies the form onto task. An untouched due field keeps the stored
// date, which may carry seconds the form cannot show.
func (in formInput) apply(task model.Task, loc *time.Location) model.Task {
	task.Name = in.Name
	task.Description = in.Description
	task.Priority = in.Priority
	if task.DueDate == nil || in.dueText != formatDue(task.DueDate, loc) {
		task.DueDate = in.DueDate
	}
	task.Labels = in.Labels
	task.Location = in.Location
	return task
}

func parseDue(value string, loc *time.Location) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	for _, layout := range []string{dateTimeLayout, dateLayout} {
		parsed, err := time.ParseInLocation(layout, trimmed, loc)
		if err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid due date %q", trimmed)
}

func parseLabels(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func isPriorityField(label string) bool {
	return strings.HasPrefix(label, "Priority")
}

func nextPriority(current string) string {
	return cyclePriority(current, 1)
}

func prevPriority(current string) string {
	return cyclePriority(current, -1)
}

func cyclePriority(current string, delta int) string {
	parsed, err := model.ParsePriority(current)
	if err != nil {
		parsed = model.PriorityNone
	}
	index := 0
	for i, priority := range model.Priorities {
		if priority == parsed {
			index = i
			break
		}
	}
	count := len(model.Priorities)
	return string(model.Priorities[((index+delta)%count+count)%count])
}
