// Package edit implements single-field inline editing of tasks.
//
// A Session moves Idle → Editing(task, field) → Committing → Idle, or
// Editing → Idle on cancel. Only one field of one task is ever in Editing;
// beginning another edit silently discards the unsaved input of the current
// one and reports it through Discarded. A failed commit returns to Editing
// with the unsaved input kept and LastErr set; call Revert to restore the
// value captured when editing began.
package edit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tgienger/tasktrack/internal/models"
)

var (
	// ErrNotEditing is returned by operations that need an active edit
	ErrNotEditing = errors.New("edit: no field is being edited")
	// ErrCommitInFlight is returned while a commit is waiting on the store
	ErrCommitInFlight = errors.New("edit: commit in progress")
)

// State is the session's position in the edit protocol
type State int

const (
	Idle State = iota
	Editing
	Committing
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Committing:
		return "committing"
	}
	return "idle"
}

// Field names one editable task field
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldOwner       Field = "owner"
	FieldAssignees   Field = "assignees"
	FieldStartDate   Field = "start_date"
	FieldDueDate     Field = "due_date"
	FieldStatus      Field = "status"
	FieldPriority    Field = "priority"
	FieldGroup       Field = "group"
)

// Fields lists every editable field in display order
var Fields = []Field{
	FieldName, FieldStatus, FieldPriority, FieldOwner, FieldAssignees,
	FieldGroup, FieldStartDate, FieldDueDate, FieldDescription,
}

// ParseField validates a field name
func ParseField(raw string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", &models.ValidationError{Field: "field", Reason: "not editable: " + strconv.Quote(raw)}
}

// Value is the input for one field. Scalar fields use Text: the owner as a
// user id, the group by name, dates as YYYY-MM-DD or RFC3339, and "" to
// clear optional values. Assignees holds the replacement set; nil means the
// set has not been loaded, which is different from an empty selection.
type Value struct {
	Text      string
	Assignees []int64
}

// Discarded describes an edit that was implicitly cancelled
type Discarded struct {
	TaskID int64
	Field  Field
	Input  Value
}

// Snapshot is a consistent view of the session
type Snapshot struct {
	State    State
	TaskID   int64
	Field    Field
	Input    Value
	Rollback Value
	Err      error
}

// Store is the slice of the entity store the session needs
type Store interface {
	GetTask(ctx context.Context, id int64) (*models.TaskView, error)
	UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.TaskView, error)
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)
}

// Session is one client's edit state. It is safe for use from the goroutine
// running a commit and the one rendering state.
type Session struct {
	store Store

	mu       sync.Mutex
	state    State
	taskID   int64
	field    Field
	input    Value
	rollback Value
	lastErr  error
}

// NewSession creates an idle session
func NewSession(store Store) *Session {
	return &Session{store: store}
}

// Begin starts editing field of task taskID, capturing the stored value as
// the rollback value. An edit already in progress is discarded and returned.
// If the task cannot be loaded the current edit is left untouched.
func (s *Session) Begin(ctx context.Context, taskID int64, field Field) (*Discarded, error) {
	if _, err := ParseField(string(field)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	busy := s.state == Committing
	s.mu.Unlock()
	if busy {
		return nil, ErrCommitInFlight
	}

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	current := ValueOf(task, field)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Committing {
		return nil, ErrCommitInFlight
	}

	var discarded *Discarded
	if s.state == Editing {
		discarded = &Discarded{TaskID: s.taskID, Field: s.field, Input: s.input}
	}

	s.state = Editing
	s.taskID = taskID
	s.field = field
	s.rollback = current
	s.input = cloneValue(current)
	s.lastErr = nil
	return discarded, nil
}

// Input replaces the unsaved input
func (s *Session) Input(v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Committing:
		return ErrCommitInFlight
	case Idle:
		return ErrNotEditing
	}
	s.input = cloneValue(v)
	return nil
}

// Commit writes the unsaved input to the store and returns the re-resolved
// task. On failure the session stays in Editing with the input unchanged.
func (s *Session) Commit(ctx context.Context) (*models.TaskView, error) {
	s.mu.Lock()
	switch s.state {
	case Committing:
		s.mu.Unlock()
		return nil, ErrCommitInFlight
	case Idle:
		s.mu.Unlock()
		return nil, ErrNotEditing
	}
	s.state = Committing
	taskID, field, input := s.taskID, s.field, cloneValue(s.input)
	s.mu.Unlock()

	task, err := s.apply(ctx, taskID, field, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Editing
		s.lastErr = err
		return nil, err
	}
	s.reset()
	return task, nil
}

func (s *Session) apply(ctx context.Context, taskID int64, field Field, v Value) (*models.TaskView, error) {
	patch, err := s.patchFor(ctx, field, v)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateTask(ctx, taskID, patch)
}

// Cancel abandons the current edit. It reports whether an edit was active.
func (s *Session) Cancel() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Committing:
		return false, ErrCommitInFlight
	case Idle:
		return false, nil
	}
	s.reset()
	return true, nil
}

// Revert restores the value captured when the edit began
func (s *Session) Revert() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Committing:
		return ErrCommitInFlight
	case Idle:
		return ErrNotEditing
	}
	s.input = cloneValue(s.rollback)
	s.lastErr = nil
	return nil
}

// State returns the current protocol state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns a snapshot of the session
func (s *Session) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:    s.state,
		TaskID:   s.taskID,
		Field:    s.field,
		Input:    cloneValue(s.input),
		Rollback: cloneValue(s.rollback),
		Err:      s.lastErr,
	}
}

// LastErr is the error from the most recent failed commit, if still editing
func (s *Session) LastErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) reset() {
	s.state = Idle
	s.taskID = 0
	s.field = ""
	s.input = Value{}
	s.rollback = Value{}
	s.lastErr = nil
}

// patchFor converts an input into a single-field patch
func (s *Session) patchFor(ctx context.Context, field Field, v Value) (models.TaskPatch, error) {
	var p models.TaskPatch
	text := strings.TrimSpace(v.Text)

	switch field {
	case FieldName:
		if text == "" {
			return p, &models.ValidationError{Field: string(field), Reason: "must not be empty"}
		}
		p.Name = &text
	case FieldDescription:
		desc := v.Text
		p.Description = &desc
	case FieldOwner:
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil || id <= 0 {
			return p, &models.ValidationError{Field: string(field), Reason: "expected a user id, got " + strconv.Quote(v.Text)}
		}
		p.OwnerID = &id
	case FieldAssignees:
		if v.Assignees == nil {
			return p, &models.ValidationError{Field: string(field), Reason: "assignees have not been loaded"}
		}
		ids := append([]int64{}, v.Assignees...)
		p.AssigneeIDs = &ids
	case FieldStartDate, FieldDueDate:
		var t *time.Time
		if text != "" {
			parsed, err := models.ParseDate(text)
			if err != nil {
				return p, &models.ValidationError{Field: string(field), Reason: "expected YYYY-MM-DD or RFC3339, got " + strconv.Quote(v.Text)}
			}
			t = &parsed
		}
		if field == FieldStartDate {
			p.StartDate, p.ClearStartDate = t, t == nil
		} else {
			p.DueDate, p.ClearDueDate = t, t == nil
		}
	case FieldStatus:
		st, err := models.ParseStatus(text)
		if err != nil {
			return p, err
		}
		p.Status = &st
	case FieldPriority:
		pr, err := models.ParsePriority(text)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	case FieldGroup:
		if text == "" {
			p.ClearGroup = true
			break
		}
		g, err := s.store.GetGroupByName(ctx, text)
		if err != nil {
			return p, err
		}
		p.GroupID = &g.ID
	default:
		return p, &models.ValidationError{Field: "field", Reason: "not editable: " + strconv.Quote(string(field))}
	}
	return p, nil
}

// ValueOf renders the stored value of field in edit form
func ValueOf(t *models.TaskView, field Field) Value {
	switch field {
	case FieldName:
		return Value{Text: t.Name}
	case FieldDescription:
		return Value{Text: t.Description}
	case FieldOwner:
		return Value{Text: strconv.FormatInt(t.OwnerID, 10)}
	case FieldAssignees:
		return Value{Assignees: append([]int64{}, t.AssigneeIDs...)}
	case FieldStartDate:
		return Value{Text: formatDate(t.StartDate)}
	case FieldDueDate:
		return Value{Text: formatDate(t.DueDate)}
	case FieldStatus:
		return Value{Text: string(t.Status)}
	case FieldPriority:
		return Value{Text: string(t.Priority)}
	case FieldGroup:
		return Value{Text: t.GroupName}
	}
	return Value{}
}

// formatDate keeps day precision for midnight values and full precision otherwise
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(models.DateLayout)
	}
	return u.Format(time.RFC3339)
}

func cloneValue(v Value) Value {
	if v.Assignees != nil {
		v.Assignees = append([]int64{}, v.Assignees...)
	}
	return v
}
