package views

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/logging"
	"github.com/tgienger/tasktrack/internal/models"
	"github.com/tgienger/tasktrack/internal/query"
	"github.com/tgienger/tasktrack/internal/search"
	"github.com/tgienger/tasktrack/internal/ui/keys"
	"github.com/tgienger/tasktrack/internal/ui/styles"
)

type projectItem struct {
	summary models.ProjectSummary
}

func (i projectItem) Title() string { return i.summary.Title }
func (i projectItem) Description() string {
	progress := fmt.Sprintf("%d/%d done", i.summary.CompletedCount, i.summary.TaskCount)
	if i.summary.Description == "" {
		return progress
	}
	return progress + " · " + i.summary.Description
}
func (i projectItem) FilterValue() string { return i.summary.Title }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	titleStyle := d.styles.ListItem.Width(width)
	if index == m.Index() {
		titleStyle = d.styles.ListSelected.Width(width)
	}
	descStyle := titleStyle.Foreground(styles.Current.ForegroundDim).Bold(false)

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(p.Title()), descStyle.Render(p.Description()))
}

// ProjectListView is the project board
type ProjectListView struct {
	store    Store
	engine   *query.Engine
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap

	width  int
	height int
	loaded bool
	err    error

	sortIdx int
	desc    bool

	// title search runs on the debouncer's goroutine; results come back
	// through results and are picked up by waitForResults
	searching   bool
	searchInput textinput.Model
	searcher    *search.Debouncer[[]models.ProjectSummary]
	results     chan search.Result[[]models.ProjectSummary]
	ordering    atomic.Pointer[query.ProjectParams]
	listening   bool

	creating bool
	newName  textinput.Model
	newDesc  textinput.Model
	focusIdx int // 0=name, 1=desc, 2=confirm

	confirmingDelete bool
	deleteTarget     models.ProjectSummary

	showHelpPopup bool
}

// NewProjectListView creates the project board
func NewProjectListView(store Store, opts Options) *ProjectListView {
	s := styles.NewStyles()

	searchInput := textinput.New()
	searchInput.Placeholder = "Search titles..."
	searchInput.CharLimit = 100

	newName := textinput.New()
	newName.Placeholder = "Project title"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 200

	delegate := &projectDelegate{styles: s, width: styles.MaxWidth}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = s.Title

	v := &ProjectListView{
		store:       store,
		engine:      query.NewEngine(store),
		list:        l,
		delegate:    delegate,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
		searchInput: searchInput,
		results:     make(chan search.Result[[]models.ProjectSummary], 1),
		newName:     newName,
		newDesc:     newDesc,
	}
	v.setOrdering()
	v.searcher = search.New(opts.Debounce, v.searchProjects, v.deliver)
	return v
}

type projectsLoadedMsg struct {
	projects []models.ProjectSummary
}

type projectDeletedMsg struct{}

type projectSearchMsg search.Result[[]models.ProjectSummary]

func (v *ProjectListView) Init() tea.Cmd {
	if v.listening {
		return v.load()
	}
	v.listening = true
	return tea.Batch(v.load(), v.waitForResults)
}

func (v *ProjectListView) sortField() string {
	return db.ProjectSortFields()[v.sortIdx]
}

// setOrdering publishes the sort for searches running off the UI goroutine
func (v *ProjectListView) setOrdering() {
	dir := string(query.Ascending)
	if v.desc {
		dir = string(query.Descending)
	}
	v.ordering.Store(&query.ProjectParams{SortField: v.sortField(), SortDirection: dir})
}

func (v *ProjectListView) searchProjects(ctx context.Context, text string) ([]models.ProjectSummary, error) {
	p := *v.ordering.Load()
	p.Search = strings.TrimSpace(text)
	return v.engine.Projects(ctx, p)
}

func (v *ProjectListView) deliver(r search.Result[[]models.ProjectSummary]) {
	// a newer result replaces one the UI has not picked up yet
	select {
	case <-v.results:
	default:
	}
	v.results <- r
}

func (v *ProjectListView) waitForResults() tea.Msg {
	return projectSearchMsg(<-v.results)
}

// load lists projects for the current search and sort right away
func (v *ProjectListView) load() tea.Cmd {
	text := v.searchInput.Value()
	return func() tea.Msg {
		projects, err := v.searchProjects(context.Background(), text)
		if err != nil {
			return errMsg{err}
		}
		return projectsLoadedMsg{projects: projects}
	}
}

func (v *ProjectListView) setProjects(projects []models.ProjectSummary) {
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{summary: p}
	}
	v.list.SetItems(items)
	v.loaded = true
	v.err = nil
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case projectsLoadedMsg:
		v.setProjects(msg.projects)
		return v, nil

	case projectSearchMsg:
		if msg.Err != nil {
			v.err = msg.Err
			logging.Event("BOARD_PROJECTS_FAILED").WithError(msg.Err).Warn("project search failed")
			return v, v.waitForResults
		}
		v.setProjects(msg.Value)
		return v, v.waitForResults

	case projectDeletedMsg:
		return v, v.load()

	case errMsg:
		v.err = msg.err
		v.loaded = true
		logging.Event("BOARD_PROJECTS_FAILED").WithError(msg.err).Warn("project board error")
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		if v.searching {
			return v.updateSearching(msg)
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.focusIdx = 0
			v.newName.Reset()
			v.newDesc.Reset()
			v.updateFocus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Search):
			v.searching = true
			v.searchInput.Focus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Sort):
			v.sortIdx = (v.sortIdx + 1) % len(db.ProjectSortFields())
			v.setOrdering()
			return v, v.load()
		case key.Matches(msg, v.keys.Reverse):
			v.desc = !v.desc
			v.setOrdering()
			return v, v.load()
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, func() tea.Msg {
					return SelectedProject{Project: item.summary.Project}
				}
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.confirmingDelete = true
				v.deleteTarget = item.summary
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Enter):
		v.searching = false
		v.searchInput.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Back):
		v.searching = false
		v.searchInput.Blur()
		if v.searchInput.Value() != "" {
			v.searchInput.Reset()
			v.searcher.Schedule("")
		}
		return v, nil
	}

	before := v.searchInput.Value()
	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	if v.searchInput.Value() != before {
		v.searcher.Schedule(v.searchInput.Value())
	}
	return v, cmd
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTarget.ID
		return v, func() tea.Msg {
			if err := v.store.DeleteProject(context.Background(), id); err != nil {
				return errMsg{err}
			}
			return projectDeletedMsg{}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.createProject()

	case key.Matches(msg, v.keys.ShiftTab):
		v.focusIdx = (v.focusIdx + 2) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < 2 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.createProject()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newDesc, cmd = v.newDesc.Update(msg)
	}
	return v, cmd
}

func (v *ProjectListView) createProject() tea.Cmd {
	title := strings.TrimSpace(v.newName.Value())
	if title == "" {
		v.err = &models.ValidationError{Field: "title", Reason: "must not be empty"}
		return nil
	}
	desc := strings.TrimSpace(v.newDesc.Value())
	v.creating = false
	return func() tea.Msg {
		project, err := v.store.CreateProject(context.Background(), title, desc)
		if err != nil {
			return errMsg{err}
		}
		return SelectedProject{Project: *project}
	}
}

func (v *ProjectListView) updateFocus() {
	v.newName.Blur()
	v.newDesc.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newDesc.Focus()
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.creating {
		return v.renderCreateForm()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	var b strings.Builder
	if v.searching || v.searchInput.Value() != "" {
		b.WriteString(v.styles.HelpKey.Render("/ ") + v.searchInput.View() + "\n")
	}
	if len(v.list.Items()) == 0 && v.searchInput.Value() != "" {
		b.WriteString(v.styles.TitleMuted.Render("No projects match"))
	} else if len(v.list.Items()) == 0 {
		b.WriteString(v.renderEmpty())
	} else {
		b.WriteString(v.list.View())
	}
	b.WriteString("\n")
	if v.err != nil {
		b.WriteString(v.styles.ErrorText.Render(v.err.Error()) + "\n")
	}
	b.WriteString(v.renderHelp())
	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
	)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle, descStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}
	inputWidth := styles.Clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Project"),
		"",
		"Title:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
		btnStyle.Render(" Create "),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height, lipgloss.Center, lipgloss.Center, form)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	s := v.styles
	dir := "asc"
	if v.desc {
		dir = "desc"
	}
	sortInfo := s.TitleMuted.Render(fmt.Sprintf("sort: %s %s", v.sortField(), dir))

	if styles.ContentWidth(v.width) < 60 {
		return s.Help.Render(s.HelpKey.Render("?") + " help  " + sortInfo)
	}
	return s.Help.Render(fmt.Sprintf("%s open • %s new • %s del • %s sort • %s reverse • %s quit   %s",
		s.HelpKey.Render("↵"),
		s.HelpKey.Render("n"),
		s.HelpKey.Render("d"),
		s.HelpKey.Render("s"),
		s.HelpKey.Render("r"),
		s.HelpKey.Render("q"),
		sortInfo,
	))
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	lines := []string{
		s.Title.Render("Keyboard Shortcuts"),
		"",
		s.HelpKey.Render("↵") + "      open project",
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("d") + "      delete project and its tasks",
		s.HelpKey.Render("s") + "      cycle sort field",
		s.HelpKey.Render("r") + "      reverse sort",
		s.HelpKey.Render("/") + "      search titles",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	centered := lipgloss.Place(contentWidth, v.height, lipgloss.Center, lipgloss.Center,
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and its %d tasks will be removed.", v.deleteTarget.Title, v.deleteTarget.TaskCount)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height, lipgloss.Center, lipgloss.Center, content)
	return styles.CenterView(centered, v.width, v.height)
}
