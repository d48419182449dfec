package models

import "strings"

// Status is the closed set of task states
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusOnHold     Status = "On Hold"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every status in board order
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusOnHold, StatusCompleted}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts the canonical spelling case-insensitively, as well as
// snake/kebab forms such as "in_progress" and "todo" for Not Started.
func ParseStatus(raw string) (Status, error) {
	key := normalizeEnum(raw)
	switch key {
	case "notstarted", "todo":
		return StatusNotStarted, nil
	case "inprogress":
		return StatusInProgress, nil
	case "onhold":
		return StatusOnHold, nil
	case "completed", "done":
		return StatusCompleted, nil
	}
	return "", &ValidationError{Field: "status", Reason: "unknown status " + quote(raw)}
}

// Priority is the closed set of task priorities
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every priority from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// ParsePriority accepts the canonical spelling case-insensitively
func ParsePriority(raw string) (Priority, error) {
	switch normalizeEnum(raw) {
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", &ValidationError{Field: "priority", Reason: "unknown priority " + quote(raw)}
}

// Role is a user's permission level
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole accepts "admin" or "user" case-insensitively
func ParseRole(raw string) (Role, error) {
	switch normalizeEnum(raw) {
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleUser, nil
	}
	return "", &ValidationError{Field: "role", Reason: "unknown role " + quote(raw)}
}

func normalizeEnum(raw string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(raw)))
}

func quote(s string) string {
	return `"` + s + `"`
}
