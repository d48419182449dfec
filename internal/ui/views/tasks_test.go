package views

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/edit"
	"github.com/tgienger/tasktrack/internal/models"
)

type board struct {
	db      *db.DB
	project *models.Project
	owner   *models.User
	copy    *models.TaskView
	logo    *models.TaskView
}

func newBoard(t *testing.T) *board {
	t.Helper()
	ctx := context.Background()
	store, err := db.New(ctx, db.Options{URL: filepath.Join(t.TempDir(), "board.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	owner, err := store.CreateUser(ctx, db.NewUser{DisplayName: "Ana", Role: models.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	project, err := store.CreateProject(ctx, "Site", "")
	if err != nil {
		t.Fatal(err)
	}
	copyTask, err := store.CreateTask(ctx, models.NewTask{ProjectID: project.ID, OwnerID: owner.ID, Name: "Write copy"})
	if err != nil {
		t.Fatal(err)
	}
	logo, err := store.CreateTask(ctx, models.NewTask{ProjectID: project.ID, OwnerID: owner.ID, Name: "Draw logo", Status: models.StatusCompleted})
	if err != nil {
		t.Fatal(err)
	}
	return &board{db: store, project: project, owner: owner, copy: copyTask, logo: logo}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns a view with its first task load applied
func (b *board) loaded(t *testing.T) *TaskListView {
	t.Helper()
	v := NewTaskListView(b.db, *b.project, Options{UserID: b.owner.ID})
	v.Update(v.reload()())
	if len(v.tasks) != 2 {
		t.Fatalf("loaded %d tasks, want 2", len(v.tasks))
	}
	return v
}

func TestStaleLoadIsDropped(t *testing.T) {
	b := newBoard(t)
	v := NewTaskListView(b.db, *b.project, Options{})

	stale := v.reload()()
	current := v.reload()

	v.Update(stale)
	if v.loaded || len(v.tasks) != 0 {
		t.Fatalf("stale load applied: %d tasks", len(v.tasks))
	}
	v.Update(current())
	if !v.loaded || len(v.tasks) != 2 {
		t.Fatalf("current load not applied: %d tasks", len(v.tasks))
	}
}

func TestSearchRunsOnlyLatestTick(t *testing.T) {
	b := newBoard(t)
	v := b.loaded(t)

	v.searchInput.SetValue("lo")
	first := v.loads.Next()
	v.searchInput.SetValue("logo")
	second := v.loads.Next()

	if _, cmd := v.Update(searchTickMsg{seq: first}); cmd != nil {
		t.Fatal("superseded tick started a load")
	}
	_, cmd := v.Update(searchTickMsg{seq: second})
	if cmd == nil {
		t.Fatal("latest tick did not start a load")
	}
	v.Update(cmd())
	if len(v.tasks) != 1 || v.tasks[0].ID != b.logo.ID {
		t.Fatalf("tasks = %+v, want only the logo task", v.tasks)
	}
}

func TestStatusFilterCycles(t *testing.T) {
	b := newBoard(t)
	v := b.loaded(t)

	// Not Started, In Progress, On Hold, Completed
	var cmd tea.Cmd
	for i := 0; i < 4; i++ {
		_, cmd = v.Update(runes("f"))
	}
	v.Update(cmd())
	if len(v.tasks) != 1 || v.tasks[0].Status != models.StatusCompleted {
		t.Fatalf("tasks = %+v, want completed only", v.tasks)
	}
	if got := v.params().Filters["status"]; got != string(models.StatusCompleted) {
		t.Errorf("status filter = %q", got)
	}
}

func TestInlineEditCommits(t *testing.T) {
	b := newBoard(t)
	v := b.loaded(t)

	_, cmd := v.Update(runes("e"))
	v.Update(cmd())
	if !v.editing || v.editInput.Value() != b.copy.Name {
		t.Fatalf("editing = %v, input = %q", v.editing, v.editInput.Value())
	}

	v.editInput.SetValue("Write landing copy")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, reload := v.Update(cmd())
	if v.editing || v.err != nil {
		t.Fatalf("editing = %v, err = %v after commit", v.editing, v.err)
	}
	if v.notice != "saved name" {
		t.Errorf("notice = %q", v.notice)
	}
	v.Update(reload())

	stored, err := b.db.GetTask(context.Background(), b.copy.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Name != "Write landing copy" {
		t.Errorf("stored name = %q", stored.Name)
	}
}

func TestFailedCommitKeepsInputUntilRevert(t *testing.T) {
	b := newBoard(t)
	v := b.loaded(t)

	_, cmd := v.Update(runes("e"))
	v.Update(cmd())
	// name -> status
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v.Update(cmd())
	if got := v.session.Current().Field; got != edit.FieldStatus {
		t.Fatalf("field = %q, want status", got)
	}

	v.editInput.SetValue("finished-ish")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())
	if !v.editing || !models.IsValidation(v.err) {
		t.Fatalf("editing = %v, err = %v", v.editing, v.err)
	}
	if v.editInput.Value() != "finished-ish" {
		t.Errorf("input = %q, unsaved input lost", v.editInput.Value())
	}
	if v.session.State() != edit.Editing {
		t.Errorf("session state = %v", v.session.State())
	}

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlZ})
	if v.editInput.Value() != string(models.StatusNotStarted) {
		t.Errorf("input after revert = %q", v.editInput.Value())
	}

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if v.editing || v.session.State() != edit.Idle {
		t.Errorf("editing = %v, state = %v after cancel", v.editing, v.session.State())
	}
}

func TestDashboardLoadAfterCloseIsDropped(t *testing.T) {
	b := newBoard(t)
	v := b.loaded(t)

	_, cmd := v.Update(runes("i"))
	late := cmd()
	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	v.Update(late)
	if v.stats != nil {
		t.Fatal("dashboard applied after the view closed")
	}

	_, cmd = v.Update(runes("i"))
	v.Update(cmd())
	if v.stats == nil {
		t.Fatal("dashboard not applied")
	}
	if v.stats.TotalTasks != 2 || v.stats.TaskCompletionRate != "50.00%" {
		t.Errorf("stats = %d tasks, %s", v.stats.TotalTasks, v.stats.TaskCompletionRate)
	}
}

func TestCreateNeedsActingUser(t *testing.T) {
	b := newBoard(t)
	v := NewTaskListView(b.db, *b.project, Options{})

	v.Update(runes("n"))
	v.newName.SetValue("Ship it")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || !models.IsValidation(v.err) {
		t.Fatalf("cmd = %v, err = %v", cmd, v.err)
	}
}

func TestDeleteMarkedTasks(t *testing.T) {
	b := newBoard(t)
	v := b.loaded(t)

	v.Update(runes(" "))
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(runes(" "))
	v.Update(runes("d"))
	if !v.confirmingDelete || len(v.deleteIDs) != 2 {
		t.Fatalf("confirming = %v, ids = %v", v.confirmingDelete, v.deleteIDs)
	}
	_, cmd := v.Update(runes("y"))
	_, reload := v.Update(cmd())
	if v.notice != "deleted 2 task(s)" {
		t.Errorf("notice = %q", v.notice)
	}
	v.Update(reload())
	if len(v.tasks) != 0 {
		t.Errorf("%d tasks left", len(v.tasks))
	}
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		field   edit.Field
		text    string
		want    edit.Value
		wantErr bool
	}{
		{edit.FieldName, "Logo", edit.Value{Text: "Logo"}, false},
		{edit.FieldAssignees, "1, 2,3", edit.Value{Assignees: []int64{1, 2, 3}}, false},
		{edit.FieldAssignees, "", edit.Value{Assignees: []int64{}}, false},
		{edit.FieldAssignees, "1, x", edit.Value{}, true},
		{edit.FieldAssignees, "-4", edit.Value{}, true},
	}
	for _, tt := range tests {
		got, err := parseInput(tt.field, tt.text)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseInput(%s, %q) err = %v", tt.field, tt.text, err)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseInput(%s, %q) = %+v, want %+v", tt.field, tt.text, got, tt.want)
		}
	}

	if got := inputText(edit.FieldAssignees, edit.Value{Assignees: []int64{4, 7}}); got != "4, 7" {
		t.Errorf("inputText = %q", got)
	}
}
