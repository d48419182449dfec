package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/tgienger/tasktrack/internal/models"
)

// ProjectQuery filters and orders the project board
type ProjectQuery struct {
	Search     string // case-insensitive substring of the title
	Sort       string // one of ProjectSortFields; empty means title
	Descending bool
}

var projectSortExprs = map[string][]string{
	"title":      {"utf8lower(p.title)", "p.title"},
	"created_at": {"p.created_at"},
	"updated_at": {"p.updated_at"},
	"tasks":      {"COUNT(t.id)"},
	"id":         {"p.id"},
}

// ProjectSortFields lists the accepted ProjectQuery.Sort values
func ProjectSortFields() []string {
	return []string{"title", "created_at", "updated_at", "tasks", "id"}
}

// CreateProject creates a new project
func (db *DB) CreateProject(ctx context.Context, title, description string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &models.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO projects (title, description) VALUES (?, ?)
	`, title, description)
	if err != nil {
		return nil, &models.StoreError{Op: "create project", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, &models.StoreError{Op: "create project", Err: err}
	}

	return db.GetProject(ctx, id)
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p := &models.Project{}
	err := db.QueryRowContext(ctx, `
		SELECT id, title, description, created_at, updated_at
		FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "project", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, &models.StoreError{Op: "get project", Err: err}
	}
	return p, nil
}

// ListProjects returns projects with task progress, ties broken by id
func (db *DB) ListProjects(ctx context.Context, q ProjectQuery) ([]models.ProjectSummary, error) {
	sortKey := q.Sort
	if sortKey == "" {
		sortKey = "title"
	}
	exprs, ok := projectSortExprs[sortKey]
	if !ok {
		return nil, &models.ValidationError{Field: "sort", Reason: "unknown project sort field " + strconv.Quote(q.Sort)}
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	query := `
		SELECT p.id, p.title, p.description, p.created_at, p.updated_at,
			COUNT(t.id),
			COALESCE(SUM(CASE WHEN t.status = ? THEN 1 ELSE 0 END), 0)
		FROM projects p
		LEFT JOIN tasks t ON t.project_id = p.id
		WHERE 1=1`
	args := []any{string(models.StatusCompleted)}

	if search := strings.TrimSpace(q.Search); search != "" {
		query += ` AND utf8lower(p.title) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(search))
	}

	query += " GROUP BY p.id ORDER BY " + orderBy(exprs, dir) + ", p.id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &models.StoreError{Op: "list projects", Err: err}
	}
	defer rows.Close()

	var projects []models.ProjectSummary
	for rows.Next() {
		var p models.ProjectSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.TaskCount, &p.CompletedCount); err != nil {
			return nil, &models.StoreError{Op: "list projects", Err: err}
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StoreError{Op: "list projects", Err: err}
	}
	return projects, nil
}

// RenameProject changes a project's title
func (db *DB) RenameProject(ctx context.Context, id int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &models.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	result, err := db.ExecContext(ctx, `
		UPDATE projects SET title = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, title, id)
	if err != nil {
		return &models.StoreError{Op: "rename project", Err: err}
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &models.NotFoundError{Entity: "project", Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

// DeleteProject deletes a project and, via ON DELETE CASCADE, all its tasks
func (db *DB) DeleteProject(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return &models.StoreError{Op: "delete project", Err: err}
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &models.NotFoundError{Entity: "project", Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

// ProjectCount returns the number of projects
func (db *DB) ProjectCount(ctx context.Context) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count); err != nil {
		return 0, &models.StoreError{Op: "count projects", Err: err}
	}
	return count, nil
}

// orderBy applies dir to every key. Case-folded keys are followed by the raw
// value so that names differing only in case still have a strict order.
func orderBy(exprs []string, dir string) string {
	terms := make([]string, len(exprs))
	for i, e := range exprs {
		terms[i] = e + " " + dir
	}
	return strings.Join(terms, ", ")
}

// likePattern lowercases s and escapes LIKE wildcards for a substring match
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
