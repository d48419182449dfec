package models

import "time"

// User is a registered account. Users are never hard-deleted.
type User struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	AvatarRef   string    `json:"avatarRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user may manage groups
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Project is a named container of tasks
type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectSummary is a project with its task progress attached
type ProjectSummary struct {
	Project
	TaskCount      int `json:"taskCount"`
	CompletedCount int `json:"completedCount"`
}

// Group is a cross-project label used for aggregation
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task represents a single unit of trackable work
type Task struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"projectId"`
	OwnerID     int64      `json:"ownerId"`
	GroupID     *int64     `json:"groupId"` // nil if ungrouped
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	StartDate   *time.Time `json:"startDate"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeIDs []int64    `json:"assigneeIds"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskView is a task with its owner and group names resolved
type TaskView struct {
	Task
	OwnerName     string   `json:"ownerName"`
	GroupName     string   `json:"groupName"` // empty if ungrouped
	AssigneeNames []string `json:"assigneeNames"`
}

// NewTask holds the fields accepted when creating a task
type NewTask struct {
	ProjectID   int64
	OwnerID     int64
	GroupID     *int64
	Name        string
	Description string
	Status      Status
	Priority    Priority
	StartDate   *time.Time
	DueDate     *time.Time
	AssigneeIDs []int64
}

// TaskPatch is a partial update. Nil fields are left untouched.
// ClearGroup, ClearStartDate and ClearDueDate set the column to NULL.
type TaskPatch struct {
	Name           *string
	Description    *string
	OwnerID        *int64
	AssigneeIDs    *[]int64 // full replacement set
	StartDate      *time.Time
	ClearStartDate bool
	DueDate        *time.Time
	ClearDueDate   bool
	Status         *Status
	Priority       *Priority
	GroupID        *int64
	ClearGroup     bool
}

// Empty reports whether the patch changes nothing
func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.OwnerID == nil &&
		p.AssigneeIDs == nil && p.StartDate == nil && !p.ClearStartDate &&
		p.DueDate == nil && !p.ClearDueDate && p.Status == nil &&
		p.Priority == nil && p.GroupID == nil && !p.ClearGroup
}
