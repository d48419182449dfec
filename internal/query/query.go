// Package query turns loosely specified task searches (free text, a
// field→value filter map, a sort field and direction) into validated store
// queries, and returns resolved task views.
//
// Validation happens before the store is touched. A group filter naming a
// group that does not exist yields an empty result rather than an error, so
// callers never learn internal ids by probing names.
package query

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/models"
)

// Direction is a sort direction
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Filter keys accepted in Params.Filters
const (
	FilterOwner     = "owner"
	FilterAssignee  = "assignee"
	FilterStatus    = "status"
	FilterPriority  = "priority"
	FilterGroup     = "group"
	FilterStartDate = "start_date" // start_date >= value
	FilterDueDate   = "due_date"   // due_date <= value
)

// FilterKeys lists every accepted filter key
func FilterKeys() []string {
	return []string{FilterOwner, FilterAssignee, FilterStatus, FilterPriority, FilterGroup, FilterStartDate, FilterDueDate}
}

// Params describes one task search
type Params struct {
	ProjectID     *int64            // nil means global search
	Search        string            // substring of name or description
	Filters       map[string]string // ANDed together
	SortField     string            // empty means id
	SortDirection string            // asc (default) or desc
}

// ProjectParams describes one project board listing
type ProjectParams struct {
	Search        string
	SortField     string // empty means title
	SortDirection string
}

// Store is the slice of the entity store the engine reads from
type Store interface {
	QueryTasks(ctx context.Context, q db.TaskQuery) ([]models.TaskView, error)
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)
	ListProjects(ctx context.Context, q db.ProjectQuery) ([]models.ProjectSummary, error)
}

// Engine runs task and project searches. It holds no state between calls.
type Engine struct {
	store Store
}

// NewEngine creates an engine over the given store
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Tasks returns the visible task list for p
func (e *Engine) Tasks(ctx context.Context, p Params) ([]models.TaskView, error) {
	q, groupName, err := Compile(p)
	if err != nil {
		return nil, err
	}

	if groupName != "" {
		group, err := e.store.GetGroupByName(ctx, groupName)
		if models.IsNotFound(err) {
			return []models.TaskView{}, nil
		}
		if err != nil {
			return nil, asStoreError("resolve group", err)
		}
		q.GroupID = &group.ID
	}

	tasks, err := e.store.QueryTasks(ctx, q)
	if err != nil {
		return nil, asStoreError("query tasks", err)
	}
	if tasks == nil {
		tasks = []models.TaskView{}
	}
	return tasks, nil
}

// Projects returns the project board for p
func (e *Engine) Projects(ctx context.Context, p ProjectParams) ([]models.ProjectSummary, error) {
	field := strings.TrimSpace(p.SortField)
	if field != "" && !contains(db.ProjectSortFields(), field) {
		return nil, &models.ValidationError{Field: "sort", Reason: "unknown project sort field " + strconv.Quote(field)}
	}
	desc, err := parseDirection(p.SortDirection)
	if err != nil {
		return nil, err
	}

	projects, err := e.store.ListProjects(ctx, db.ProjectQuery{Search: p.Search, Sort: field, Descending: desc})
	if err != nil {
		return nil, asStoreError("list projects", err)
	}
	if projects == nil {
		projects = []models.ProjectSummary{}
	}
	return projects, nil
}

// Compile validates p and converts it into a store query. A group filter is
// returned by name because resolving it needs the store.
func Compile(p Params) (db.TaskQuery, string, error) {
	q := db.TaskQuery{
		ProjectID: p.ProjectID,
		Search:    strings.TrimSpace(p.Search),
	}

	field := strings.TrimSpace(p.SortField)
	if field != "" && !contains(db.TaskSortFields(), field) {
		return db.TaskQuery{}, "", &models.ValidationError{Field: "sort", Reason: "unknown sort field " + strconv.Quote(field)}
	}
	q.Sort = field

	desc, err := parseDirection(p.SortDirection)
	if err != nil {
		return db.TaskQuery{}, "", err
	}
	q.Descending = desc

	var groupName string
	for _, key := range sortedKeys(p.Filters) {
		value := strings.TrimSpace(p.Filters[key])
		switch key {
		case FilterOwner:
			id, err := parseID(key, value)
			if err != nil {
				return db.TaskQuery{}, "", err
			}
			q.OwnerID = &id
		case FilterAssignee:
			id, err := parseID(key, value)
			if err != nil {
				return db.TaskQuery{}, "", err
			}
			q.AssigneeID = &id
		case FilterStatus:
			s, err := models.ParseStatus(value)
			if err != nil {
				return db.TaskQuery{}, "", err
			}
			q.Status = &s
		case FilterPriority:
			pr, err := models.ParsePriority(value)
			if err != nil {
				return db.TaskQuery{}, "", err
			}
			q.Priority = &pr
		case FilterGroup:
			if value == "" {
				return db.TaskQuery{}, "", &models.ValidationError{Field: key, Reason: "group name must not be empty"}
			}
			groupName = value
		case FilterStartDate:
			t, err := parseFilterDate(key, value, false)
			if err != nil {
				return db.TaskQuery{}, "", err
			}
			q.StartFrom = &t
		case FilterDueDate:
			t, err := parseFilterDate(key, value, true)
			if err != nil {
				return db.TaskQuery{}, "", err
			}
			q.DueBy = &t
		default:
			return db.TaskQuery{}, "", &models.ValidationError{Field: key, Reason: "unknown filter"}
		}
	}

	return q, groupName, nil
}

// parseFilterDate accepts RFC3339 or YYYY-MM-DD. A bare day used as an upper
// bound covers the whole day.
func parseFilterDate(key, value string, upper bool) (time.Time, error) {
	t, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: key, Reason: "expected RFC3339 or YYYY-MM-DD, got " + strconv.Quote(value)}
	}
	if upper && len(value) == len(models.DateLayout) {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

func parseDirection(raw string) (bool, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case "", Ascending:
		return false, nil
	case Descending:
		return true, nil
	}
	return false, &models.ValidationError{Field: "direction", Reason: "expected asc or desc, got " + strconv.Quote(raw)}
}

func parseID(key, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Field: key, Reason: "expected a user id, got " + strconv.Quote(value)}
	}
	return id, nil
}

// asStoreError passes typed errors through and wraps anything else
func asStoreError(op string, err error) error {
	if models.IsStore(err) || models.IsValidation(err) || models.IsNotFound(err) {
		return err
	}
	return &models.StoreError{Op: op, Err: err}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
