// Package stats computes dashboard statistics over a task set.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tgienger/tasktrack/internal/models"
)

// NoGroup is the bucket name for tasks without a group
const NoGroup = "No Group"

// GroupCount is the number of tasks carrying one group name
type GroupCount struct {
	GroupName string `json:"groupName"`
	TaskCount int    `json:"taskCount"`
}

// Dashboard is the aggregate served at /dashboard-data
type Dashboard struct {
	TotalTasks         int                     `json:"totalTasks"`
	ToDoTasks          int                     `json:"toDoTasks"`
	InProgressTasks    int                     `json:"inProgressTasks"`
	OnHoldTasks        int                     `json:"onHoldTasks"`
	CompletedTasks     int                     `json:"completedTasks"`
	HighPriority       int                     `json:"highPriority"`
	MediumPriority     int                     `json:"mediumPriority"`
	LowPriority        int                     `json:"lowPriority"`
	TaskCompletionRate string                  `json:"taskCompletionRate"`
	StatusBreakdown    map[models.Status]int   `json:"statusBreakdown"`
	PriorityBreakdown  map[models.Priority]int `json:"priorityBreakdown"`
	GroupTaskCounts    []GroupCount            `json:"groupTaskCounts"`
	Durations          []int                   `json:"durations"`
	StartDates         []string                `json:"startDates"`
	DueDates           []string                `json:"dueDates"`
}

// Compute aggregates tasks in a single pass. It is a pure function of its
// input: the per-task series follow the order of tasks.
func Compute(tasks []models.TaskView) Dashboard {
	d := Dashboard{
		TotalTasks:        len(tasks),
		StatusBreakdown:   make(map[models.Status]int, len(models.Statuses)),
		PriorityBreakdown: make(map[models.Priority]int, len(models.Priorities)),
		GroupTaskCounts:   []GroupCount{},
		Durations:         make([]int, 0, len(tasks)),
		StartDates:        make([]string, 0, len(tasks)),
		DueDates:          make([]string, 0, len(tasks)),
	}
	for _, s := range models.Statuses {
		d.StatusBreakdown[s] = 0
	}
	for _, p := range models.Priorities {
		d.PriorityBreakdown[p] = 0
	}

	groups := make(map[string]int)
	ungrouped := 0
	for _, t := range tasks {
		d.StatusBreakdown[t.Status]++
		d.PriorityBreakdown[t.Priority]++

		if t.GroupID == nil || t.GroupName == "" {
			ungrouped++
		} else {
			groups[t.GroupName]++
		}

		d.Durations = append(d.Durations, DurationDays(t.StartDate, t.DueDate))
		d.StartDates = append(d.StartDates, models.FormatDay(t.StartDate))
		d.DueDates = append(d.DueDates, models.FormatDay(t.DueDate))
	}

	d.ToDoTasks = d.StatusBreakdown[models.StatusNotStarted]
	d.InProgressTasks = d.StatusBreakdown[models.StatusInProgress]
	d.OnHoldTasks = d.StatusBreakdown[models.StatusOnHold]
	d.CompletedTasks = d.StatusBreakdown[models.StatusCompleted]
	d.HighPriority = d.PriorityBreakdown[models.PriorityHigh]
	d.MediumPriority = d.PriorityBreakdown[models.PriorityMedium]
	d.LowPriority = d.PriorityBreakdown[models.PriorityLow]
	d.TaskCompletionRate = CompletionRate(d.CompletedTasks, d.TotalTasks)
	d.GroupTaskCounts = groupCounts(groups, ungrouped)

	return d
}

// CompletionRate formats completed/total as a percentage with two decimals,
// or "0%" for an empty set.
func CompletionRate(completed, total int) string {
	if total == 0 {
		return "0%"
	}
	// round half away from zero on the percentage, not on its binary expansion
	pct := math.Round(float64(completed)/float64(total)*10000) / 100
	return fmt.Sprintf("%.2f%%", pct)
}

// DurationDays is the whole number of days from start to due, floored and
// never negative. Missing dates count as zero.
func DurationDays(start, due *time.Time) int {
	if start == nil || due == nil {
		return 0
	}
	days := int(due.Sub(*start) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// groupCounts orders named groups case-insensitively, then by exact name,
// with the NoGroup bucket last
func groupCounts(groups map[string]int, ungrouped int) []GroupCount {
	out := make([]GroupCount, 0, len(groups)+1)
	for name, n := range groups {
		out = append(out, GroupCount{GroupName: name, TaskCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].GroupName), strings.ToLower(out[j].GroupName)
		if a != b {
			return a < b
		}
		return out[i].GroupName < out[j].GroupName
	})
	if ungrouped > 0 {
		out = append(out, GroupCount{GroupName: NoGroup, TaskCount: ungrouped})
	}
	return out
}

// Loader supplies the task set to aggregate
type Loader interface {
	ListAllTasks(ctx context.Context, projectID *int64) ([]models.TaskView, error)
}

// Service computes dashboards from the store
type Service struct {
	loader Loader
}

// NewService creates a dashboard service over loader
func NewService(loader Loader) *Service {
	return &Service{loader: loader}
}

// Dashboard loads the scoped task set and aggregates it. A nil projectID
// aggregates every task.
func (s *Service) Dashboard(ctx context.Context, projectID *int64) (Dashboard, error) {
	tasks, err := s.loader.ListAllTasks(ctx, projectID)
	if err != nil {
		if models.IsStore(err) {
			return Dashboard{}, err
		}
		return Dashboard{}, &models.StoreError{Op: "load dashboard tasks", Err: err}
	}
	return Compute(tasks), nil
}
