package models

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"Not Started", StatusNotStarted},
		{"todo", StatusNotStarted},
		{"in_progress", StatusInProgress},
		{"IN-PROGRESS", StatusInProgress},
		{" on hold ", StatusOnHold},
		{"done", StatusCompleted},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseStatus("blocked"); !IsValidation(err) {
		t.Errorf("ParseStatus(blocked) err = %v, want ValidationError", err)
	}
}

func TestParsePriorityAndRole(t *testing.T) {
	if p, err := ParsePriority("HIGH"); err != nil || p != PriorityHigh {
		t.Errorf("ParsePriority(HIGH) = %q, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); !IsValidation(err) {
		t.Errorf("ParsePriority(urgent) err = %v", err)
	}
	if r, err := ParseRole("Admin"); err != nil || r != RoleAdmin {
		t.Errorf("ParseRole(Admin) = %q, %v", r, err)
	}
	if _, err := ParseRole("owner"); !IsValidation(err) {
		t.Errorf("ParseRole(owner) err = %v", err)
	}
}

func TestParseDate(t *testing.T) {
	day, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if !day.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day = %v", day)
	}

	ts, err := ParseDate("2024-03-01T10:00:00+02:00")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Hour() != 8 || ts.Location() != time.UTC {
		t.Errorf("timestamp not normalized to UTC: %v", ts)
	}

	if _, err := ParseDate("03/01/2024"); !IsValidation(err) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestParseStoredDateIsLenient(t *testing.T) {
	if ParseStoredDate("") != nil || ParseStoredDate("garbage") != nil {
		t.Error("expected nil for empty or malformed values")
	}
	got := ParseStoredDate("2024-03-01T00:00:00Z")
	if got == nil || FormatDay(got) != "2024-03-01" {
		t.Errorf("got %v", got)
	}
	if FormatDay(nil) != "" {
		t.Error("FormatDay(nil) should be empty")
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("disk I/O error")
	wrapped := fmt.Errorf("loading: %w", &StoreError{Op: "list tasks", Err: cause})
	if !IsStore(wrapped) || IsValidation(wrapped) || IsNotFound(wrapped) {
		t.Error("StoreError not classified through wrapping")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("StoreError does not unwrap to its cause")
	}
	if !IsNotFound(&NotFoundError{Entity: "task", Key: "9"}) {
		t.Error("NotFoundError not classified")
	}
}

func TestTaskPatchEmpty(t *testing.T) {
	if !(TaskPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
	if (TaskPatch{ClearGroup: true}).Empty() {
		t.Error("clearing the group is a change")
	}
	ids := []int64{}
	if (TaskPatch{AssigneeIDs: &ids}).Empty() {
		t.Error("an empty assignee set is a change")
	}
}
