package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Joseda-hg/taskgroove/internal/model"
)

const encodingVersion = 1

// ErrDecode marks a slot value that could not be read back as a task collection.
var ErrDecode = errors.New("decode tasks")

// document is the value stored in the tasks slot. Dates are encoded by
// time.Time's RFC 3339 marshaller, which keeps nanoseconds and the UTC offset.
type document struct {
	Version int          `json:"version"`
	Tasks   []model.Task `json:"tasks"`
}

func EncodeTasks(tasks []model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.Marshal(document{Version: encodingVersion, Tasks: tasks})
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return data, nil
}

func DecodeTasks(data []byte) ([]model.Task, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrDecode)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if doc.Version != encodingVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrDecode, doc.Version)
	}
	if doc.Tasks == nil {
		return nil, fmt.Errorf("%w: missing tasks", ErrDecode)
	}
	return doc.Tasks, nil
}
