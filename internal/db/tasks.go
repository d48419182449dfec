package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tgienger/tasktrack/internal/models"
)

// TaskQuery is a validated task search. Every set field is ANDed.
type TaskQuery struct {
	ProjectID  *int64 // nil searches across all projects
	Search     string // case-insensitive substring of name or description
	OwnerID    *int64
	AssigneeID *int64
	Status     *models.Status
	Priority   *models.Priority
	GroupID    *int64
	StartFrom  *time.Time // start_date >= StartFrom
	DueBy      *time.Time // due_date <= DueBy
	Sort       string     // one of TaskSortFields; empty means id
	Descending bool
}

var taskSortExprs = map[string][]string{
	"id":         {"t.id"},
	"name":       {"utf8lower(t.name)", "t.name"},
	"owner":      {"utf8lower(u.display_name)", "u.display_name"},
	"status":     {"CASE t.status WHEN 'Not Started' THEN 0 WHEN 'In Progress' THEN 1 WHEN 'On Hold' THEN 2 ELSE 3 END"},
	"priority":   {"CASE t.priority WHEN 'Low' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END"},
	"group":      {"utf8lower(g.name)", "g.name"},
	"start_date": {"t.start_date"},
	"due_date":   {"t.due_date"},
	"created_at": {"t.created_at"},
}

// TaskSortFields lists the accepted TaskQuery.Sort values
func TaskSortFields() []string {
	return []string{"id", "name", "owner", "status", "priority", "group", "start_date", "due_date", "created_at"}
}

const taskSelect = `
	SELECT t.id, t.project_id, t.owner_id, t.group_id, t.name, t.description, t.status, t.priority,
		t.start_date, t.due_date, t.created_at, t.updated_at, u.display_name, g.name
	FROM tasks t
	JOIN users u ON u.id = t.owner_id
	LEFT JOIN task_groups g ON g.id = t.group_id`

// CreateTask creates a new task after checking every reference it makes
func (db *DB) CreateTask(ctx context.Context, nt models.NewTask) (*models.TaskView, error) {
	nt.Name = strings.TrimSpace(nt.Name)
	if nt.Name == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if nt.Status == "" {
		nt.Status = models.StatusNotStarted
	}
	if !nt.Status.Valid() {
		return nil, &models.ValidationError{Field: "status", Reason: "unknown status " + strconv.Quote(string(nt.Status))}
	}
	if nt.Priority == "" {
		nt.Priority = models.PriorityMedium
	}
	if !nt.Priority.Valid() {
		return nil, &models.ValidationError{Field: "priority", Reason: "unknown priority " + strconv.Quote(string(nt.Priority))}
	}
	if err := checkDateOrder(nt.StartDate, nt.DueDate); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &models.StoreError{Op: "create task", Err: err}
	}
	defer tx.Rollback()

	if err := mustExist(ctx, tx, "projects", "project", nt.ProjectID); err != nil {
		return nil, err
	}
	if err := mustExist(ctx, tx, "users", "user", nt.OwnerID); err != nil {
		return nil, err
	}
	if nt.GroupID != nil {
		if err := mustExist(ctx, tx, "task_groups", "group", *nt.GroupID); err != nil {
			return nil, err
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (project_id, owner_id, group_id, name, description, status, priority, start_date, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, nt.ProjectID, nt.OwnerID, nt.GroupID, nt.Name, nt.Description, string(nt.Status), string(nt.Priority),
		storedDate(nt.StartDate), storedDate(nt.DueDate))
	if err != nil {
		return nil, &models.StoreError{Op: "create task", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, &models.StoreError{Op: "create task", Err: err}
	}

	if err := replaceAssignees(ctx, tx, id, nt.AssigneeIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &models.StoreError{Op: "create task", Err: err}
	}

	return db.GetTask(ctx, id)
}

// GetTask retrieves a task by ID with owner, group and assignees resolved
func (db *DB) GetTask(ctx context.Context, id int64) (*models.TaskView, error) {
	rows, err := db.QueryContext(ctx, taskSelect+" WHERE t.id = ?", id)
	if err != nil {
		return nil, &models.StoreError{Op: "get task", Err: err}
	}
	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, &models.StoreError{Op: "get task", Err: err}
	}
	if len(tasks) == 0 {
		return nil, &models.NotFoundError{Entity: "task", Key: strconv.FormatInt(id, 10)}
	}
	if err := db.loadAssignees(ctx, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// ListAllTasks returns every task, optionally scoped to a project, in id order
func (db *DB) ListAllTasks(ctx context.Context, projectID *int64) ([]models.TaskView, error) {
	return db.QueryTasks(ctx, TaskQuery{ProjectID: projectID})
}

// QueryTasks builds and runs a filtered, sorted task query. Ties on the sort
// key are always broken by ascending id so that order is deterministic.
func (db *DB) QueryTasks(ctx context.Context, q TaskQuery) ([]models.TaskView, error) {
	sortKey := q.Sort
	if sortKey == "" {
		sortKey = "id"
	}
	exprs, ok := taskSortExprs[sortKey]
	if !ok {
		return nil, &models.ValidationError{Field: "sort", Reason: "unknown sort field " + strconv.Quote(q.Sort)}
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	query := taskSelect + " WHERE 1=1"
	var args []any

	if q.ProjectID != nil {
		query += " AND t.project_id = ?"
		args = append(args, *q.ProjectID)
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		query += ` AND (utf8lower(t.name) LIKE ? ESCAPE '\' OR utf8lower(t.description) LIKE ? ESCAPE '\')`
		pattern := likePattern(search)
		args = append(args, pattern, pattern)
	}

	if q.OwnerID != nil {
		query += " AND t.owner_id = ?"
		args = append(args, *q.OwnerID)
	}

	if q.AssigneeID != nil {
		query += " AND EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.id AND ta.user_id = ?)"
		args = append(args, *q.AssigneeID)
	}

	if q.Status != nil {
		query += " AND t.status = ?"
		args = append(args, string(*q.Status))
	}

	if q.Priority != nil {
		query += " AND t.priority = ?"
		args = append(args, string(*q.Priority))
	}

	if q.GroupID != nil {
		query += " AND t.group_id = ?"
		args = append(args, *q.GroupID)
	}

	if q.StartFrom != nil {
		query += " AND t.start_date IS NOT NULL AND t.start_date >= ?"
		args = append(args, storedDate(q.StartFrom))
	}

	if q.DueBy != nil {
		query += " AND t.due_date IS NOT NULL AND t.due_date <= ?"
		args = append(args, storedDate(q.DueBy))
	}

	query += " ORDER BY " + orderBy(exprs, dir) + ", t.id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &models.StoreError{Op: "query tasks", Err: err}
	}
	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, &models.StoreError{Op: "query tasks", Err: err}
	}

	if err := db.loadAssignees(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask applies a partial update in one transaction and returns the
// re-resolved task. There is no version column: the last write wins.
func (db *DB) UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.TaskView, error) {
	if p.Empty() {
		return nil, &models.ValidationError{Reason: "update changes no fields"}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &models.StoreError{Op: "update task", Err: err}
	}
	defer tx.Rollback()

	var rawStart, rawDue sql.NullString
	err = tx.QueryRowContext(ctx, "SELECT start_date, due_date FROM tasks WHERE id = ?", id).Scan(&rawStart, &rawDue)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "task", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, &models.StoreError{Op: "update task", Err: err}
	}
	start := models.ParseStoredDate(rawStart.String)
	due := models.ParseStoredDate(rawDue.String)

	var sets []string
	var args []any

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, &models.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		sets = append(sets, "name = ?")
		args = append(args, name)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.OwnerID != nil {
		if err := mustExist(ctx, tx, "users", "user", *p.OwnerID); err != nil {
			return nil, err
		}
		sets = append(sets, "owner_id = ?")
		args = append(args, *p.OwnerID)
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, &models.ValidationError{Field: "status", Reason: "unknown status " + strconv.Quote(string(*p.Status))}
		}
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return nil, &models.ValidationError{Field: "priority", Reason: "unknown priority " + strconv.Quote(string(*p.Priority))}
		}
		sets = append(sets, "priority = ?")
		args = append(args, string(*p.Priority))
	}
	switch {
	case p.ClearGroup:
		sets = append(sets, "group_id = NULL")
	case p.GroupID != nil:
		if err := mustExist(ctx, tx, "task_groups", "group", *p.GroupID); err != nil {
			return nil, err
		}
		sets = append(sets, "group_id = ?")
		args = append(args, *p.GroupID)
	}
	switch {
	case p.ClearStartDate:
		start = nil
		sets = append(sets, "start_date = NULL")
	case p.StartDate != nil:
		start = p.StartDate
		sets = append(sets, "start_date = ?")
		args = append(args, storedDate(p.StartDate))
	}
	switch {
	case p.ClearDueDate:
		due = nil
		sets = append(sets, "due_date = NULL")
	case p.DueDate != nil:
		due = p.DueDate
		sets = append(sets, "due_date = ?")
		args = append(args, storedDate(p.DueDate))
	}
	if err := checkDateOrder(start, due); err != nil {
		return nil, err
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	if _, err := tx.ExecContext(ctx, "UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return nil, &models.StoreError{Op: "update task", Err: err}
	}

	if p.AssigneeIDs != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM task_assignees WHERE task_id = ?", id); err != nil {
			return nil, &models.StoreError{Op: "update task", Err: err}
		}
		if err := replaceAssignees(ctx, tx, id, *p.AssigneeIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &models.StoreError{Op: "update task", Err: err}
	}
	return db.GetTask(ctx, id)
}

// DeleteTasks deletes a bulk selection of tasks and returns how many were removed
func (db *DB) DeleteTasks(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, &models.ValidationError{Field: "ids", Reason: "no tasks selected"}
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	result, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return 0, &models.StoreError{Op: "delete tasks", Err: err}
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, &models.StoreError{Op: "delete tasks", Err: err}
	}
	return n, nil
}

// collectTasks scans and closes rows produced by taskSelect
func collectTasks(rows *sql.Rows) ([]models.TaskView, error) {
	defer rows.Close()

	var tasks []models.TaskView
	for rows.Next() {
		var t models.TaskView
		var start, due, groupName sql.NullString
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.OwnerID, &t.GroupID, &t.Name, &t.Description,
			&t.Status, &t.Priority, &start, &due, &t.CreatedAt, &t.UpdatedAt, &t.OwnerName, &groupName); err != nil {
			return nil, err
		}
		t.StartDate = models.ParseStoredDate(start.String)
		t.DueDate = models.ParseStoredDate(due.String)
		t.GroupName = groupName.String
		t.AssigneeIDs = []int64{}
		t.AssigneeNames = []string{}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// loadAssignees attaches assignee ids and names to tasks in one query
func (db *DB) loadAssignees(ctx context.Context, tasks []models.TaskView) error {
	if len(tasks) == 0 {
		return nil
	}

	index := make(map[int64]int, len(tasks))
	args := make([]any, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
		args[i] = t.ID
	}

	rows, err := db.QueryContext(ctx, `
		SELECT ta.task_id, u.id, u.display_name
		FROM task_assignees ta
		JOIN users u ON u.id = ta.user_id
		WHERE ta.task_id IN (`+placeholders(len(args))+`)
		ORDER BY ta.task_id, u.id
	`, args...)
	if err != nil {
		return &models.StoreError{Op: "load assignees", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, userID int64
		var name string
		if err := rows.Scan(&taskID, &userID, &name); err != nil {
			return &models.StoreError{Op: "load assignees", Err: err}
		}
		t := &tasks[index[taskID]]
		t.AssigneeIDs = append(t.AssigneeIDs, userID)
		t.AssigneeNames = append(t.AssigneeNames, name)
	}
	if err := rows.Err(); err != nil {
		return &models.StoreError{Op: "load assignees", Err: err}
	}
	return nil
}

// replaceAssignees inserts the assignee set for a task whose previous set is
// already gone. Duplicates collapse; an empty set is allowed.
func replaceAssignees(ctx context.Context, tx *sql.Tx, taskID int64, userIDs []int64) error {
	seen := make(map[int64]bool, len(userIDs))
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		if err := mustExist(ctx, tx, "users", "user", uid); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)", taskID, uid); err != nil {
			return &models.StoreError{Op: "assign user", Err: err}
		}
	}
	return nil
}

func mustExist(ctx context.Context, q queryer, table, entity string, id int64) error {
	ok, err := exists(ctx, q, table, id)
	if err != nil {
		return &models.StoreError{Op: "lookup " + entity, Err: err}
	}
	if !ok {
		return &models.NotFoundError{Entity: entity, Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

func checkDateOrder(start, due *time.Time) error {
	if start != nil && due != nil && due.Before(*start) {
		return &models.ValidationError{Field: "due_date", Reason: "must not be before start_date"}
	}
	return nil
}

// storedDate renders t in the sortable UTC form kept in the TEXT date columns
func storedDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
