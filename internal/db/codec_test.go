package db

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeTasks(t *testing.T) {
	tasks := sampleTasks()

	encoded, err := EncodeTasks(tasks)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeTasks(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range tasks {
		assertTaskEqual(t, tasks[i], decoded[i])
	}

	reencoded, err := EncodeTasks(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Fatalf("expected stable encoding\nfirst:  %s\nsecond: %s", encoded, reencoded)
	}
}

func TestEncodeEmptyCollection(t *testing.T) {
	encoded, err := EncodeTasks(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeTasks(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected empty collection, got %d tasks", len(decoded))
	}
}

func TestDecodeTasksRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"not json":      "tasks",
		"wrong version": `{"version":99,"tasks":[]}`,
		"missing tasks": `{"version":1}`,
		"bad date":      `{"version":1,"tasks":[{"id":"6f1c1d4e-6f8a-4f43-9d55-4c2c1b0c0a11","due_date":"yesterday"}]}`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeTasks([]byte(input)); !errors.Is(err, ErrDecode) {
				t.Fatalf("expected ErrDecode, got %v", err)
			}
		})
	}
}
