package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/tgienger/tasktrack/internal/models"
)

// CreateGroup creates a new group. Only admins may manage groups.
func (db *DB) CreateGroup(ctx context.Context, actorID int64, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &models.StoreError{Op: "create group", Err: err}
	}
	defer tx.Rollback()

	if err := requireAdmin(ctx, tx, actorID); err != nil {
		return nil, err
	}

	var existing int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM task_groups WHERE utf8lower(name) = utf8lower(?)", name).Scan(&existing)
	if err == nil {
		return nil, &models.ValidationError{Field: "name", Reason: "group " + strconv.Quote(name) + " already exists"}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, &models.StoreError{Op: "create group", Err: err}
	}

	result, err := tx.ExecContext(ctx, "INSERT INTO task_groups (name) VALUES (?)", name)
	if err != nil {
		return nil, &models.StoreError{Op: "create group", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, &models.StoreError{Op: "create group", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &models.StoreError{Op: "create group", Err: err}
	}

	return db.GetGroup(ctx, id)
}

// GetGroup retrieves a group by ID
func (db *DB) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	g := &models.Group{}
	err := db.QueryRowContext(ctx, "SELECT id, name, created_at FROM task_groups WHERE id = ?", id).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "group", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, &models.StoreError{Op: "get group", Err: err}
	}
	return g, nil
}

// GetGroupByName retrieves a group by its name (case-insensitive)
func (db *DB) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	g := &models.Group{}
	err := db.QueryRowContext(ctx, "SELECT id, name, created_at FROM task_groups WHERE utf8lower(name) = utf8lower(?)", strings.TrimSpace(name)).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "group", Key: strconv.Quote(name)}
	}
	if err != nil {
		return nil, &models.StoreError{Op: "get group", Err: err}
	}
	return g, nil
}

// ListGroups returns all groups
func (db *DB) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, created_at FROM task_groups ORDER BY utf8lower(name), name")
	if err != nil {
		return nil, &models.StoreError{Op: "list groups", Err: err}
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, &models.StoreError{Op: "list groups", Err: err}
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StoreError{Op: "list groups", Err: err}
	}
	return groups, nil
}

// DeleteGroup deletes a group (tasks in the group will have their group_id set to NULL)
func (db *DB) DeleteGroup(ctx context.Context, actorID, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &models.StoreError{Op: "delete group", Err: err}
	}
	defer tx.Rollback()

	if err := requireAdmin(ctx, tx, actorID); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM task_groups WHERE id = ?", id)
	if err != nil {
		return &models.StoreError{Op: "delete group", Err: err}
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &models.NotFoundError{Entity: "group", Key: strconv.FormatInt(id, 10)}
	}
	if err := tx.Commit(); err != nil {
		return &models.StoreError{Op: "delete group", Err: err}
	}
	return nil
}

func requireAdmin(ctx context.Context, q queryer, actorID int64) error {
	actor, err := getUser(ctx, q, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return models.ErrForbidden
	}
	return nil
}
