package ui

import (
	"context"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/tasktrack/internal/logging"
	"github.com/tgienger/tasktrack/internal/models"
	"github.com/tgienger/tasktrack/internal/ui/views"
)

const lastProjectKey = "last_project_id"

// View is the currently active screen
type View int

const (
	ViewProjects View = iota
	ViewTasks
)

// App switches between the project board and a project's task board
type App struct {
	store       views.Store
	opts        views.Options
	currentView View
	projectList *views.ProjectListView
	taskList    *views.TaskListView
	width       int
	height      int
}

// NewApp creates the board application
func NewApp(store views.Store, opts views.Options) *App {
	return &App{
		store:       store,
		opts:        opts,
		currentView: ViewProjects,
		projectList: views.NewProjectListView(store, opts),
	}
}

type restoredProject struct {
	project *models.Project
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.projectList.Init(), a.restoreLastProject)
}

// restoreLastProject reopens the project that was open when the board last exited
func (a *App) restoreLastProject() tea.Msg {
	ctx := context.Background()
	raw, err := a.store.GetSetting(ctx, lastProjectKey)
	if err != nil || raw == "" {
		return restoredProject{}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return restoredProject{}
	}
	project, err := a.store.GetProject(ctx, id)
	if err != nil {
		return restoredProject{}
	}
	return restoredProject{project: project}
}

func (a *App) rememberProject(value string) {
	if err := a.store.SetSetting(context.Background(), lastProjectKey, value); err != nil {
		logging.Event("BOARD_SETTING_FAILED").WithError(err).Warn("could not save last project")
	}
}

func (a *App) resize() tea.Msg {
	return tea.WindowSizeMsg{Width: a.width, Height: a.height}
}

func (a *App) openProject(project models.Project) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.store, project, a.opts)
	a.rememberProject(strconv.FormatInt(project.ID, 10))
	return tea.Batch(a.taskList.Init(), a.resize)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// the project list persists across views
		a.projectList.Update(msg)

	case restoredProject:
		if msg.project != nil && a.currentView == ViewProjects {
			return a, a.openProject(*msg.project)
		}
		return a, nil

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		a.currentView = ViewProjects
		a.taskList = nil
		a.rememberProject("")
		return a, tea.Batch(a.projectList.Init(), a.resize)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTasks:
		if a.taskList != nil {
			_, cmd = a.taskList.Update(msg)
		}
	}
	return a, cmd
}

func (a *App) View() string {
	if a.currentView == ViewTasks && a.taskList != nil {
		return a.taskList.View()
	}
	return a.projectList.View()
}
