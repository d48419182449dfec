package edit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/models"
)

type env struct {
	db    *db.DB
	owner *models.User
	other *models.User
	a, b  *models.TaskView
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store, err := db.New(ctx, db.Options{URL: filepath.Join(t.TempDir(), "edit.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	admin, err := store.CreateUser(ctx, db.NewUser{DisplayName: "Admin", Role: models.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	other, err := store.CreateUser(ctx, db.NewUser{DisplayName: "Other"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateGroup(ctx, admin.ID, "Design"); err != nil {
		t.Fatal(err)
	}
	project, err := store.CreateProject(ctx, "Site", "")
	if err != nil {
		t.Fatal(err)
	}
	a, err := store.CreateTask(ctx, models.NewTask{ProjectID: project.ID, OwnerID: admin.ID, Name: "Write copy", AssigneeIDs: []int64{other.ID}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.CreateTask(ctx, models.NewTask{ProjectID: project.ID, OwnerID: admin.ID, Name: "Draw logo", Priority: models.PriorityLow})
	if err != nil {
		t.Fatal(err)
	}
	return &env{db: store, owner: admin, other: other, a: a, b: b}
}

func TestCommitUpdatesStore(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := NewSession(e.db)

	if _, err := s.Begin(ctx, e.a.ID, FieldStatus); err != nil {
		t.Fatal(err)
	}
	if got := s.Current().Rollback.Text; got != string(models.StatusNotStarted) {
		t.Errorf("rollback = %q", got)
	}
	if err := s.Input(Value{Text: "in progress"}); err != nil {
		t.Fatal(err)
	}
	task, err := s.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != models.StatusInProgress {
		t.Errorf("Status = %q", task.Status)
	}
	if s.State() != Idle {
		t.Errorf("State = %v after commit", s.State())
	}

	stored, _ := e.db.GetTask(ctx, e.a.ID)
	if stored.Status != models.StatusInProgress {
		t.Errorf("stored status = %q", stored.Status)
	}
}

func TestBeginDiscardsPreviousEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := NewSession(e.db)

	if _, err := s.Begin(ctx, e.a.ID, FieldName); err != nil {
		t.Fatal(err)
	}
	if err := s.Input(Value{Text: "Rewrite copy"}); err != nil {
		t.Fatal(err)
	}

	discarded, err := s.Begin(ctx, e.b.ID, FieldPriority)
	if err != nil {
		t.Fatal(err)
	}
	if discarded == nil || discarded.TaskID != e.a.ID || discarded.Field != FieldName || discarded.Input.Text != "Rewrite copy" {
		t.Errorf("discarded = %+v", discarded)
	}

	cur := s.Current()
	if cur.State != Editing || cur.TaskID != e.b.ID || cur.Field != FieldPriority {
		t.Errorf("current = %+v", cur)
	}

	stored, _ := e.db.GetTask(ctx, e.a.ID)
	if stored.Name != "Write copy" {
		t.Errorf("task A name = %q, unsaved input leaked", stored.Name)
	}
}

func TestBeginUnknownTaskKeepsCurrentEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := NewSession(e.db)

	if _, err := s.Begin(ctx, e.a.ID, FieldName); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Begin(ctx, 9999, FieldName); !models.IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
	if cur := s.Current(); cur.State != Editing || cur.TaskID != e.a.ID {
		t.Errorf("current = %+v", cur)
	}
}

func TestCommitFailureStaysEditing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := NewSession(e.db)

	if _, err := s.Begin(ctx, e.b.ID, FieldDueDate); err != nil {
		t.Fatal(err)
	}
	if err := s.Input(Value{Text: "next friday"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Commit(ctx); !models.IsValidation(err) {
		t.Fatalf("got %v, want ValidationError", err)
	}

	cur := s.Current()
	if cur.State != Editing || cur.Input.Text != "next friday" {
		t.Errorf("current = %+v", cur)
	}
	if !models.IsValidation(s.LastErr()) {
		t.Errorf("LastErr = %v", s.LastErr())
	}

	if err := s.Revert(); err != nil {
		t.Fatal(err)
	}
	if cur := s.Current(); cur.Input.Text != "" || cur.Err != nil {
		t.Errorf("after revert = %+v", cur)
	}
}

func TestGroupCommit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := NewSession(e.db)

	if _, err := s.Begin(ctx, e.a.ID, FieldGroup); err != nil {
		t.Fatal(err)
	}
	_ = s.Input(Value{Text: "Ghosts"})
	if _, err := s.Commit(ctx); !models.IsNotFound(err) {
		t.Fatalf("unknown group: got %v, want NotFoundError", err)
	}

	_ = s.Input(Value{Text: "design"})
	task, err := s.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if task.GroupName != "Design" {
		t.Errorf("GroupName = %q", task.GroupName)
	}

	if _, err := s.Begin(ctx, e.a.ID, FieldGroup); err != nil {
		t.Fatal(err)
	}
	_ = s.Input(Value{Text: ""})
	task, err = s.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if task.GroupID != nil {
		t.Errorf("group not cleared: %v", *task.GroupID)
	}
}

func TestAssigneesNotLoadedVersusEmpty(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := NewSession(e.db)

	if _, err := s.Begin(ctx, e.a.ID, FieldAssignees); err != nil {
		t.Fatal(err)
	}
	if got := s.Current().Rollback.Assignees; len(got) != 1 || got[0] != e.other.ID {
		t.Errorf("rollback assignees = %v", got)
	}

	_ = s.Input(Value{})
	if _, err := s.Commit(ctx); !models.IsValidation(err) {
		t.Fatalf("nil set: got %v, want ValidationError", err)
	}

	_ = s.Input(Value{Assignees: []int64{}})
	task, err := s.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(task.AssigneeIDs) != 0 {
		t.Errorf("AssigneeIDs = %v, want none", task.AssigneeIDs)
	}
}

func TestCancelAndIdleErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := NewSession(e.db)

	if active, err := s.Cancel(); active || err != nil {
		t.Errorf("Cancel on idle = %v, %v", active, err)
	}
	if err := s.Input(Value{Text: "x"}); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Input on idle = %v", err)
	}
	if _, err := s.Commit(ctx); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Commit on idle = %v", err)
	}
	if _, err := s.Begin(ctx, e.a.ID, Field("colour")); !models.IsValidation(err) {
		t.Errorf("Begin unknown field = %v", err)
	}

	if _, err := s.Begin(ctx, e.a.ID, FieldName); err != nil {
		t.Fatal(err)
	}
	_ = s.Input(Value{Text: "Changed"})
	if active, err := s.Cancel(); !active || err != nil {
		t.Errorf("Cancel = %v, %v", active, err)
	}
	if s.State() != Idle {
		t.Errorf("State = %v", s.State())
	}
	stored, _ := e.db.GetTask(ctx, e.a.ID)
	if stored.Name != "Write copy" {
		t.Errorf("cancelled input was written: %q", stored.Name)
	}
}

// blockingStore holds UpdateTask until release is closed
type blockingStore struct {
	Store
	entered chan struct{}
	release chan struct{}
	err     error
}

func (b *blockingStore) UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.TaskView, error) {
	close(b.entered)
	<-b.release
	if b.err != nil {
		return nil, b.err
	}
	return b.Store.UpdateTask(ctx, id, p)
}

func TestCommitInFlight(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	store := &blockingStore{
		Store:   e.db,
		entered: make(chan struct{}),
		release: make(chan struct{}),
		err:     &models.StoreError{Op: "update task", Err: errors.New("database is locked")},
	}
	s := NewSession(store)

	if _, err := s.Begin(ctx, e.a.ID, FieldName); err != nil {
		t.Fatal(err)
	}
	_ = s.Input(Value{Text: "Final copy"})

	done := make(chan error, 1)
	go func() {
		_, err := s.Commit(ctx)
		done <- err
	}()
	<-store.entered

	if s.State() != Committing {
		t.Errorf("State = %v, want committing", s.State())
	}
	if _, err := s.Begin(ctx, e.b.ID, FieldName); !errors.Is(err, ErrCommitInFlight) {
		t.Errorf("Begin during commit = %v", err)
	}
	if _, err := s.Cancel(); !errors.Is(err, ErrCommitInFlight) {
		t.Errorf("Cancel during commit = %v", err)
	}

	close(store.release)
	if err := <-done; !models.IsStore(err) {
		t.Fatalf("commit err = %v, want StoreError", err)
	}
	if cur := s.Current(); cur.State != Editing || cur.Input.Text != "Final copy" {
		t.Errorf("after failed commit = %+v", cur)
	}
}

func TestValueOfDates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s := NewSession(e.db)

	if _, err := s.Begin(ctx, e.b.ID, FieldStartDate); err != nil {
		t.Fatal(err)
	}
	_ = s.Input(Value{Text: "2024-05-01"})
	task, err := s.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := ValueOf(task, FieldStartDate).Text; got != "2024-05-01" {
		t.Errorf("start = %q", got)
	}

	if _, err := s.Begin(ctx, e.b.ID, FieldDueDate); err != nil {
		t.Fatal(err)
	}
	_ = s.Input(Value{Text: "2024-04-01"})
	if _, err := s.Commit(ctx); !models.IsValidation(err) {
		t.Errorf("due before start: got %v, want ValidationError", err)
	}
}

func TestParseField(t *testing.T) {
	if f, err := ParseField(" Due_Date "); err != nil || f != FieldDueDate {
		t.Errorf("ParseField = %q, %v", f, err)
	}
	if _, err := ParseField("project"); !models.IsValidation(err) {
		t.Errorf("got %v, want ValidationError", err)
	}
}
