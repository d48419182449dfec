package query

import (
	"context"
	"errors"
	"testing"

	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/models"
)

// fakeStore records the last query and serves canned results
type fakeStore struct {
	groups   map[string]int64
	tasks    []models.TaskView
	err      error
	groupErr error
	last     *db.TaskQuery
	calls    int
}

func (s *fakeStore) QueryTasks(ctx context.Context, q db.TaskQuery) ([]models.TaskView, error) {
	s.calls++
	s.last = &q
	return s.tasks, s.err
}

func (s *fakeStore) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	if s.groupErr != nil {
		return nil, s.groupErr
	}
	id, ok := s.groups[name]
	if !ok {
		return nil, &models.NotFoundError{Entity: "group", Key: name}
	}
	return &models.Group{ID: id, Name: name}, nil
}

func (s *fakeStore) ListProjects(ctx context.Context, q db.ProjectQuery) ([]models.ProjectSummary, error) {
	return nil, s.err
}

func TestCompile(t *testing.T) {
	project := int64(3)
	q, group, err := Compile(Params{
		ProjectID: &project,
		Search:    "  logo ",
		Filters: map[string]string{
			"owner":      "7",
			"status":     "in progress",
			"priority":   "HIGH",
			"group":      "Design",
			"start_date": "2024-01-01",
			"due_date":   "2024-01-31",
		},
		SortField:     "due_date",
		SortDirection: "DESC",
	})
	if err != nil {
		t.Fatal(err)
	}

	if group != "Design" {
		t.Errorf("group = %q", group)
	}
	if q.Search != "logo" || *q.ProjectID != 3 || *q.OwnerID != 7 {
		t.Errorf("unexpected query %+v", q)
	}
	if *q.Status != models.StatusInProgress || *q.Priority != models.PriorityHigh {
		t.Errorf("enums = %q/%q", *q.Status, *q.Priority)
	}
	if q.Sort != "due_date" || !q.Descending {
		t.Errorf("sort = %q desc=%v", q.Sort, q.Descending)
	}
	if got := q.DueBy.Format("2006-01-02 15:04:05"); got != "2024-01-31 23:59:59" {
		t.Errorf("DueBy = %s, want end of day", got)
	}
	if got := q.StartFrom.Format("2006-01-02 15:04:05"); got != "2024-01-01 00:00:00" {
		t.Errorf("StartFrom = %s", got)
	}
}

func TestCompileRejects(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"unknown sort", Params{SortField: "colour"}},
		{"bad direction", Params{SortDirection: "sideways"}},
		{"unknown filter", Params{Filters: map[string]string{"label": "x"}}},
		{"bad status", Params{Filters: map[string]string{"status": "paused"}}},
		{"bad priority", Params{Filters: map[string]string{"priority": "urgent"}}},
		{"bad owner", Params{Filters: map[string]string{"owner": "alice"}}},
		{"bad date", Params{Filters: map[string]string{"due_date": "tomorrow"}}},
		{"empty group", Params{Filters: map[string]string{"group": " "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Compile(tt.p); !models.IsValidation(err) {
				t.Errorf("got %v, want ValidationError", err)
			}
		})
	}
}

func TestTasksValidationNeverReachesStore(t *testing.T) {
	store := &fakeStore{}
	_, err := NewEngine(store).Tasks(context.Background(), Params{SortField: "nope"})
	if !models.IsValidation(err) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if store.calls != 0 {
		t.Errorf("store called %d times", store.calls)
	}
}

func TestTasksUnknownGroupIsEmpty(t *testing.T) {
	store := &fakeStore{tasks: []models.TaskView{{}}}
	got, err := NewEngine(store).Tasks(context.Background(), Params{Filters: map[string]string{"group": "Ghosts"}})
	if err != nil {
		t.Fatalf("unknown group should not error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
	if store.calls != 0 {
		t.Errorf("store queried despite unresolved group")
	}
}

func TestTasksResolvesGroup(t *testing.T) {
	store := &fakeStore{groups: map[string]int64{"Design": 42}}
	if _, err := NewEngine(store).Tasks(context.Background(), Params{Filters: map[string]string{"group": "Design"}}); err != nil {
		t.Fatal(err)
	}
	if store.last == nil || store.last.GroupID == nil || *store.last.GroupID != 42 {
		t.Errorf("group id not forwarded: %+v", store.last)
	}
}

func TestTasksStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	store := &fakeStore{err: boom, tasks: []models.TaskView{{}}}

	got, err := NewEngine(store).Tasks(context.Background(), Params{})
	if !models.IsStore(err) {
		t.Fatalf("got %v, want StoreError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("StoreError does not wrap the cause")
	}
	if got != nil {
		t.Errorf("partial results returned: %v", got)
	}

	store = &fakeStore{groupErr: boom}
	if _, err := NewEngine(store).Tasks(context.Background(), Params{Filters: map[string]string{"group": "x"}}); !models.IsStore(err) {
		t.Errorf("group lookup failure: got %v, want StoreError", err)
	}
}

func TestProjectsValidation(t *testing.T) {
	e := NewEngine(&fakeStore{})
	if _, err := e.Projects(context.Background(), ProjectParams{SortField: "owner"}); !models.IsValidation(err) {
		t.Errorf("got %v, want ValidationError", err)
	}
	got, err := e.Projects(context.Background(), ProjectParams{SortField: "tasks", SortDirection: "desc"})
	if err != nil || got == nil {
		t.Errorf("Projects = %v, %v", got, err)
	}
}
