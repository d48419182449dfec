package views

import (
	"context"
	"time"

	"github.com/tgienger/tasktrack/internal/edit"
	"github.com/tgienger/tasktrack/internal/models"
	"github.com/tgienger/tasktrack/internal/query"
	"github.com/tgienger/tasktrack/internal/stats"
)

// Store is what the board reads and writes
type Store interface {
	query.Store
	stats.Loader
	edit.Store

	GetProject(ctx context.Context, id int64) (*models.Project, error)
	CreateProject(ctx context.Context, title, description string) (*models.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	CreateTask(ctx context.Context, nt models.NewTask) (*models.TaskView, error)
	DeleteTasks(ctx context.Context, ids []int64) (int64, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Options tunes board behavior
type Options struct {
	Debounce time.Duration // quiet period before a search runs
	UserID   int64         // owner of tasks created from the board
}

// SelectedProject asks the app to open a project's task board
type SelectedProject struct {
	Project models.Project
}

// BackToProjects asks the app to return to the project board
type BackToProjects struct{}

// errMsg carries a failed store call back into Update
type errMsg struct {
	err error
}

func (e errMsg) Error() string { return e.err.Error() }
