package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/tgienger/tasktrack/internal/models"
)

// NewUser holds the fields accepted at registration
type NewUser struct {
	DisplayName string
	Role        models.Role
	Email       string
	Phone       string
	AvatarRef   string
}

// UserProfile is a self-service profile edit. Nil fields are left untouched.
type UserProfile struct {
	DisplayName *string
	Email       *string
	Phone       *string
	AvatarRef   *string
}

const userColumns = "id, display_name, role, email, phone, avatar_ref, created_at"

// CreateUser registers a new user
func (db *DB) CreateUser(ctx context.Context, u NewUser) (*models.User, error) {
	name := strings.TrimSpace(u.DisplayName)
	if name == "" {
		return nil, &models.ValidationError{Field: "display_name", Reason: "must not be empty"}
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if !u.Role.Valid() {
		return nil, &models.ValidationError{Field: "role", Reason: "unknown role " + string(u.Role)}
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO users (display_name, role, email, phone, avatar_ref) VALUES (?, ?, ?, ?, ?)
	`, name, string(u.Role), u.Email, u.Phone, u.AvatarRef)
	if err != nil {
		return nil, &models.StoreError{Op: "create user", Err: err}
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, &models.StoreError{Op: "create user", Err: err}
	}

	return db.GetUser(ctx, id)
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return getUser(ctx, db, id)
}

func getUser(ctx context.Context, q queryer, id int64) (*models.User, error) {
	u := &models.User{}
	err := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.DisplayName, &u.Role, &u.Email, &u.Phone, &u.AvatarRef, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "user", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, &models.StoreError{Op: "get user", Err: err}
	}
	return u, nil
}

// ListUsers returns all users ordered by display name
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY display_name COLLATE NOCASE, id")
	if err != nil {
		return nil, &models.StoreError{Op: "list users", Err: err}
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Role, &u.Email, &u.Phone, &u.AvatarRef, &u.CreatedAt); err != nil {
			return nil, &models.StoreError{Op: "list users", Err: err}
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StoreError{Op: "list users", Err: err}
	}
	return users, nil
}

// UpdateUserProfile applies a profile edit
func (db *DB) UpdateUserProfile(ctx context.Context, id int64, p UserProfile) error {
	var sets []string
	var args []any

	if p.DisplayName != nil {
		name := strings.TrimSpace(*p.DisplayName)
		if name == "" {
			return &models.ValidationError{Field: "display_name", Reason: "must not be empty"}
		}
		sets = append(sets, "display_name = ?")
		args = append(args, name)
	}
	if p.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *p.Email)
	}
	if p.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *p.Phone)
	}
	if p.AvatarRef != nil {
		sets = append(sets, "avatar_ref = ?")
		args = append(args, *p.AvatarRef)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	result, err := db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return &models.StoreError{Op: "update user", Err: err}
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &models.NotFoundError{Entity: "user", Key: strconv.FormatInt(id, 10)}
	}
	return nil
}
