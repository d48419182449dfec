package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/edit"
	"github.com/tgienger/tasktrack/internal/logging"
	"github.com/tgienger/tasktrack/internal/models"
	"github.com/tgienger/tasktrack/internal/query"
	"github.com/tgienger/tasktrack/internal/search"
	"github.com/tgienger/tasktrack/internal/stats"
	"github.com/tgienger/tasktrack/internal/ui/keys"
	"github.com/tgienger/tasktrack/internal/ui/styles"
)

// TaskListView is the task board of one project. Every load carries a
// sequence number; results that arrive after a newer load was requested
// are dropped, which is how typing in the search box debounces.
type TaskListView struct {
	store     Store
	engine    *query.Engine
	dashboard *stats.Service
	session   *edit.Session
	project   models.Project
	opts      Options
	styles    *styles.Styles
	keys      keys.KeyMap

	width  int
	height int

	tasks   []models.TaskView
	groups  []models.Group
	loaded  bool
	cursor  int
	scrollY int
	marked  map[int64]bool

	searching   bool
	searchInput textinput.Model
	loads       search.Sequence

	statusIdx int // 0 = any, otherwise models.Statuses[statusIdx-1]
	groupIdx  int // 0 = any, otherwise groups[groupIdx-1]
	sortIdx   int
	desc      bool

	editing   bool
	fieldIdx  int
	editInput textinput.Model

	creating bool
	newName  textinput.Model

	confirmingDelete bool
	deleteIDs        []int64

	showDashboard bool
	stats         *stats.Dashboard
	statsLoads    search.Sequence

	showHelpPopup bool

	notice string
	err    error
}

// NewTaskListView creates the task board for project
func NewTaskListView(store Store, project models.Project, opts Options) *TaskListView {
	if opts.Debounce <= 0 {
		opts.Debounce = search.DefaultDelay
	}

	searchInput := textinput.New()
	searchInput.Placeholder = "Search name or description..."
	searchInput.CharLimit = 100

	editInput := textinput.New()
	editInput.CharLimit = 1000

	newName := textinput.New()
	newName.Placeholder = "Task name"
	newName.CharLimit = 200

	return &TaskListView{
		store:       store,
		engine:      query.NewEngine(store),
		dashboard:   stats.NewService(store),
		session:     edit.NewSession(store),
		project:     project,
		opts:        opts,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		marked:      make(map[int64]bool),
		searchInput: searchInput,
		editInput:   editInput,
		newName:     newName,
	}
}

type searchTickMsg struct {
	seq uint64
}

type tasksLoadedMsg struct {
	seq   uint64
	tasks []models.TaskView
	err   error
}

type groupsLoadedMsg struct {
	groups []models.Group
}

type dashboardLoadedMsg struct {
	seq uint64
	d   stats.Dashboard
	err error
}

type editBegunMsg struct {
	discarded *edit.Discarded
	err       error
}

type editCommittedMsg struct {
	task *models.TaskView
	err  error
}

type tasksDeletedMsg struct {
	n int64
}

type taskCreatedMsg struct {
	task *models.TaskView
}

// Init loads groups and the first page of tasks
func (v *TaskListView) Init() tea.Cmd {
	return tea.Batch(v.loadGroups, v.reload())
}

func (v *TaskListView) loadGroups() tea.Msg {
	groups, err := v.store.ListGroups(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return groupsLoadedMsg{groups: groups}
}

// params snapshots the current search so the load command never reads v
func (v *TaskListView) params() query.Params {
	projectID := v.project.ID
	p := query.Params{
		ProjectID: &projectID,
		Search:    v.searchInput.Value(),
		Filters:   map[string]string{},
		SortField: db.TaskSortFields()[v.sortIdx],
	}
	if v.desc {
		p.SortDirection = string(query.Descending)
	}
	if v.statusIdx > 0 {
		p.Filters[query.FilterStatus] = string(models.Statuses[v.statusIdx-1])
	}
	if v.groupIdx > 0 && v.groupIdx <= len(v.groups) {
		p.Filters[query.FilterGroup] = v.groups[v.groupIdx-1].Name
	}
	return p
}

// reload starts a load that supersedes every earlier one
func (v *TaskListView) reload() tea.Cmd {
	return v.load(v.loads.Next())
}

func (v *TaskListView) load(seq uint64) tea.Cmd {
	p := v.params()
	return func() tea.Msg {
		tasks, err := v.engine.Tasks(context.Background(), p)
		return tasksLoadedMsg{seq: seq, tasks: tasks, err: err}
	}
}

// scheduleSearch invalidates in-flight loads and waits for typing to pause
func (v *TaskListView) scheduleSearch() tea.Cmd {
	seq := v.loads.Next()
	return tea.Tick(v.opts.Debounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
}

func (v *TaskListView) loadDashboard() tea.Cmd {
	seq := v.statsLoads.Next()
	projectID := v.project.ID
	return func() tea.Msg {
		d, err := v.dashboard.Dashboard(context.Background(), &projectID)
		return dashboardLoadedMsg{seq: seq, d: d, err: err}
	}
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := styles.Clamp(styles.ContentWidth(v.width)-24, 20, 60)
		v.editInput.Width = inputWidth
		v.searchInput.Width = inputWidth
		return v, nil

	case searchTickMsg:
		if !v.loads.IsCurrent(msg.seq) {
			return v, nil
		}
		return v, v.load(msg.seq)

	case tasksLoadedMsg:
		if !v.loads.IsCurrent(msg.seq) {
			return v, nil
		}
		v.loaded = true
		if msg.err != nil {
			v.setErr("BOARD_TASKS_FAILED", msg.err)
			return v, nil
		}
		v.tasks = msg.tasks
		v.pruneMarks()
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		v.ensureVisible()
		return v, nil

	case groupsLoadedMsg:
		v.groups = msg.groups
		if v.groupIdx > len(v.groups) {
			v.groupIdx = 0
		}
		return v, nil

	case dashboardLoadedMsg:
		if !v.statsLoads.IsCurrent(msg.seq) || !v.showDashboard {
			return v, nil
		}
		if msg.err != nil {
			v.setErr("BOARD_DASHBOARD_FAILED", msg.err)
			return v, nil
		}
		v.stats = &msg.d
		return v, nil

	case editBegunMsg:
		return v.handleEditBegun(msg)

	case editCommittedMsg:
		if msg.err != nil {
			v.setErr("BOARD_EDIT_FAILED", msg.err)
			return v, nil
		}
		v.editing = false
		v.editInput.Blur()
		v.replaceTask(*msg.task)
		v.notice = fmt.Sprintf("saved %s", edit.Fields[v.fieldIdx])
		return v, v.reload()

	case tasksDeletedMsg:
		v.marked = make(map[int64]bool)
		v.notice = fmt.Sprintf("deleted %d task(s)", msg.n)
		return v, v.reload()

	case taskCreatedMsg:
		v.notice = "created " + strconv.Quote(msg.task.Name)
		return v, v.reload()

	case errMsg:
		v.setErr("BOARD_STORE_FAILED", msg.err)
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
		if v.editing {
			return v.updateEditing(msg)
		}
		if v.showDashboard {
			return v.updateDashboard(msg)
		}
		if v.searching {
			return v.updateSearching(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) setErr(event string, err error) {
	v.err = err
	v.notice = ""
	logging.Event(event).WithError(err).Warn("task board error")
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.notice = ""
	v.err = nil

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Status):
		v.statusIdx = (v.statusIdx + 1) % (len(models.Statuses) + 1)
		return v, v.reload()

	case key.Matches(msg, v.keys.Group):
		v.groupIdx = (v.groupIdx + 1) % (len(v.groups) + 1)
		return v, v.reload()

	case key.Matches(msg, v.keys.Sort):
		v.sortIdx = (v.sortIdx + 1) % len(db.TaskSortFields())
		return v, v.reload()

	case key.Matches(msg, v.keys.Reverse):
		v.desc = !v.desc
		return v, v.reload()

	case key.Matches(msg, v.keys.Mark):
		if task, ok := v.selected(); ok {
			if v.marked[task.ID] {
				delete(v.marked, task.ID)
			} else {
				v.marked[task.ID] = true
			}
		}

	case key.Matches(msg, v.keys.Edit), key.Matches(msg, v.keys.Enter):
		if task, ok := v.selected(); ok {
			v.fieldIdx = 0
			return v, v.beginEdit(task.ID)
		}

	case key.Matches(msg, v.keys.New):
		v.creating = true
		v.newName.Reset()
		v.newName.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		ids := v.markedIDs()
		if len(ids) == 0 {
			if task, ok := v.selected(); ok {
				ids = []int64{task.ID}
			}
		}
		if len(ids) > 0 {
			v.confirmingDelete = true
			v.deleteIDs = ids
		}

	case key.Matches(msg, v.keys.Dashboard):
		v.showDashboard = true
		v.stats = nil
		return v, v.loadDashboard()

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}

	return v, nil
}

func (v *TaskListView) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.searching = false
		v.searchInput.Blur()
		return v, nil
	}

	before := v.searchInput.Value()
	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	if v.searchInput.Value() == before {
		return v, cmd
	}
	return v, tea.Batch(cmd, v.scheduleSearch())
}

func (v *TaskListView) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Dashboard):
		v.showDashboard = false
		// a load still in flight belongs to a view that is gone
		v.statsLoads.Next()
	}
	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		ids := v.deleteIDs
		return v, func() tea.Msg {
			n, err := v.store.DeleteTasks(context.Background(), ids)
			if err != nil {
				return errMsg{err}
			}
			return tasksDeletedMsg{n: n}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *TaskListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
		name := strings.TrimSpace(v.newName.Value())
		if name == "" {
			return v, nil
		}
		if v.opts.UserID == 0 {
			v.err = &models.ValidationError{Field: "board.user_id", Reason: "set an acting user to create tasks"}
			v.creating = false
			return v, nil
		}
		v.creating = false
		nt := models.NewTask{ProjectID: v.project.ID, OwnerID: v.opts.UserID, Name: name}
		return v, func() tea.Msg {
			task, err := v.store.CreateTask(context.Background(), nt)
			if err != nil {
				return errMsg{err}
			}
			return taskCreatedMsg{task: task}
		}
	}

	var cmd tea.Cmd
	v.newName, cmd = v.newName.Update(msg)
	return v, cmd
}

// beginEdit starts editing the current field of taskID
func (v *TaskListView) beginEdit(taskID int64) tea.Cmd {
	field := edit.Fields[v.fieldIdx]
	return func() tea.Msg {
		discarded, err := v.session.Begin(context.Background(), taskID, field)
		return editBegunMsg{discarded: discarded, err: err}
	}
}

func (v *TaskListView) handleEditBegun(msg editBegunMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		v.setErr("BOARD_EDIT_FAILED", msg.err)
		return v, nil
	}
	cur := v.session.Current()
	v.editing = true
	v.err = nil
	v.notice = ""
	if d := msg.discarded; d != nil && d.Field != cur.Field {
		v.notice = fmt.Sprintf("discarded unsaved %s", d.Field)
	}
	v.editInput.SetValue(inputText(cur.Field, cur.Input))
	v.editInput.Placeholder = placeholder(cur.Field)
	v.editInput.CursorEnd()
	v.editInput.Focus()
	return v, textinput.Blink
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.session.State() == edit.Committing {
		return v, nil
	}
	cur := v.session.Current()

	switch {
	case key.Matches(msg, v.keys.Back):
		if _, err := v.session.Cancel(); err != nil {
			v.setErr("BOARD_EDIT_FAILED", err)
			return v, nil
		}
		v.editing = false
		v.err = nil
		v.editInput.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.ShiftTab):
		step := 1
		if key.Matches(msg, v.keys.ShiftTab) {
			step = len(edit.Fields) - 1
		}
		v.fieldIdx = (v.fieldIdx + step) % len(edit.Fields)
		return v, v.beginEdit(cur.TaskID)

	case key.Matches(msg, v.keys.Revert):
		if err := v.session.Revert(); err != nil {
			v.setErr("BOARD_EDIT_FAILED", err)
			return v, nil
		}
		v.err = nil
		v.editInput.SetValue(inputText(cur.Field, v.session.Current().Input))
		v.editInput.CursorEnd()
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
		value, err := parseInput(cur.Field, v.editInput.Value())
		if err != nil {
			v.err = err
			return v, nil
		}
		if err := v.session.Input(value); err != nil {
			v.setErr("BOARD_EDIT_FAILED", err)
			return v, nil
		}
		return v, func() tea.Msg {
			task, err := v.session.Commit(context.Background())
			return editCommittedMsg{task: task, err: err}
		}
	}

	var cmd tea.Cmd
	v.editInput, cmd = v.editInput.Update(msg)
	return v, cmd
}

// inputText renders a field value for the one-line editor
func inputText(field edit.Field, val edit.Value) string {
	if field != edit.FieldAssignees {
		return val.Text
	}
	ids := make([]string, len(val.Assignees))
	for i, id := range val.Assignees {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(ids, ", ")
}

// parseInput reads the one-line editor back into a field value
func parseInput(field edit.Field, text string) (edit.Value, error) {
	if field != edit.FieldAssignees {
		return edit.Value{Text: text}, nil
	}
	ids := []int64{}
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return edit.Value{}, &models.ValidationError{Field: string(field), Reason: "expected comma-separated user ids, got " + strconv.Quote(part)}
		}
		ids = append(ids, id)
	}
	return edit.Value{Assignees: ids}, nil
}

func placeholder(field edit.Field) string {
	switch field {
	case edit.FieldOwner:
		return "user id"
	case edit.FieldAssignees:
		return "user ids, comma separated"
	case edit.FieldStartDate, edit.FieldDueDate:
		return "YYYY-MM-DD, empty clears"
	case edit.FieldStatus:
		return "not started | in progress | on hold | completed"
	case edit.FieldPriority:
		return "low | medium | high"
	case edit.FieldGroup:
		return "group name, empty clears"
	}
	return string(field)
}

func (v *TaskListView) selected() (models.TaskView, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.TaskView{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) replaceTask(task models.TaskView) {
	for i := range v.tasks {
		if v.tasks[i].ID == task.ID {
			v.tasks[i] = task
			return
		}
	}
}

func (v *TaskListView) markedIDs() []int64 {
	var ids []int64
	for _, t := range v.tasks {
		if v.marked[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// pruneMarks drops marks on tasks no longer visible
func (v *TaskListView) pruneMarks() {
	visible := make(map[int64]bool, len(v.tasks))
	for _, t := range v.tasks {
		visible[t.ID] = true
	}
	for id := range v.marked {
		if !visible[id] {
			delete(v.marked, id)
		}
	}
}

func (v *TaskListView) visibleRows() int {
	return max(v.height-12, 1)
}

func (v *TaskListView) ensureVisible() {
	rows := v.visibleRows()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+rows {
		v.scrollY = v.cursor - rows + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.showDashboard {
		return styles.CenterView(v.renderDashboard(), v.width, v.height)
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	if v.editing {
		b.WriteString(v.renderEditor())
		b.WriteString("\n")
	}
	if v.creating {
		b.WriteString(v.styles.InputFocused.Render("New task: " + v.newName.View()))
		b.WriteString("\n")
	}
	b.WriteString(v.renderStatus())
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Render(v.searchInput.View())

	status := "any"
	if v.statusIdx > 0 {
		status = string(models.Statuses[v.statusIdx-1])
	}
	group := "any"
	if v.groupIdx > 0 && v.groupIdx <= len(v.groups) {
		group = v.groups[v.groupIdx-1].Name
	}
	dir := "↑"
	if v.desc {
		dir = "↓"
	}
	filters := s.TitleMuted.Render(fmt.Sprintf("status: %s • group: %s • sort: %s %s",
		status, group, db.TaskSortFields()[v.sortIdx], dir))

	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(v.project.Title),
		searchBox,
		filters,
	)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles
	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}
	if len(v.tasks) == 0 {
		if v.searchInput.Value() != "" || v.statusIdx > 0 || v.groupIdx > 0 {
			return s.TitleMuted.Render("No tasks match.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	end := min(v.scrollY+v.visibleRows(), len(v.tasks))
	rows := make([]string, 0, end-v.scrollY)
	for i := v.scrollY; i < end; i++ {
		rows = append(rows, v.renderTaskRow(v.tasks[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *TaskListView) renderTaskRow(task models.TaskView, selected bool) string {
	s := v.styles
	width := styles.ContentWidth(v.width)

	mark := " "
	if v.marked[task.ID] {
		mark = "•"
	}
	status := lipgloss.NewStyle().Foreground(styles.StatusColor(task.Status)).Width(12).Render(string(task.Status))
	priority := lipgloss.NewStyle().Foreground(styles.PriorityColor(task.Priority)).Width(7).Render(string(task.Priority))

	meta := task.OwnerName
	if task.GroupName != "" {
		meta += " · " + task.GroupName
	}
	if due := models.FormatDay(task.DueDate); due != "" {
		meta += " · due " + due
	}

	nameWidth := max(width-len(meta)-28, 10)
	name := task.Name
	if len([]rune(name)) > nameWidth {
		name = string([]rune(name)[:nameWidth-1]) + "…"
	}

	line := fmt.Sprintf("%s %s %s %-*s %s", mark, status, priority, nameWidth, name, s.TitleMuted.Render(meta))
	if selected {
		return s.ListSelected.Width(max(width-2, 20)).Render(line)
	}
	return s.ListItem.Render(line)
}

func (v *TaskListView) renderEditor() string {
	s := v.styles
	cur := v.session.Current()

	label := s.HelpKey.Render(string(cur.Field))
	style := s.InputEditing
	if cur.State == edit.Committing {
		label += s.TitleMuted.Render(" saving...")
	}
	editor := lipgloss.JoinHorizontal(lipgloss.Center, label, " ", style.Render(v.editInput.View()))
	hint := s.TitleMuted.Render("↵ save • tab next field • ctrl+z revert • esc cancel")
	return lipgloss.JoinVertical(lipgloss.Left, editor, hint)
}

func (v *TaskListView) renderStatus() string {
	s := v.styles
	switch {
	case v.err != nil:
		return s.ErrorText.Render(v.err.Error()) + "\n"
	case v.notice != "":
		return s.StatusBar.Render(v.notice) + "\n"
	case len(v.marked) > 0:
		return s.StatusBar.Render(fmt.Sprintf("%d marked", len(v.marked))) + "\n"
	}
	return ""
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	if styles.ContentWidth(v.width) < 70 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return s.Help.Render(fmt.Sprintf("%s edit • %s new • %s mark • %s del • %s search • %s status • %s group • %s sort • %s stats • %s back",
		s.HelpKey.Render("e"),
		s.HelpKey.Render("n"),
		s.HelpKey.Render("space"),
		s.HelpKey.Render("d"),
		s.HelpKey.Render("/"),
		s.HelpKey.Render("f"),
		s.HelpKey.Render("g"),
		s.HelpKey.Render("s"),
		s.HelpKey.Render("i"),
		s.HelpKey.Render("esc"),
	))
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	lines := []string{
		s.Title.Render("Keyboard Shortcuts"),
		"",
		s.HelpKey.Render("e/↵") + "     edit selected task inline",
		s.HelpKey.Render("tab") + "     next field while editing",
		s.HelpKey.Render("ctrl+z") + "  revert field while editing",
		s.HelpKey.Render("n") + "       new task",
		s.HelpKey.Render("space") + "   mark for bulk delete",
		s.HelpKey.Render("d") + "       delete marked or selected",
		s.HelpKey.Render("/") + "       search",
		s.HelpKey.Render("f") + "       cycle status filter",
		s.HelpKey.Render("g") + "       cycle group filter",
		s.HelpKey.Render("s") + "       cycle sort field",
		s.HelpKey.Render("r") + "       reverse sort",
		s.HelpKey.Render("i") + "       project dashboard",
		s.HelpKey.Render("esc") + "     back",
		s.HelpKey.Render("q") + "       quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	centered := lipgloss.Place(contentWidth, v.height, lipgloss.Center, lipgloss.Center,
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(fmt.Sprintf("Delete %d task(s)?", len(v.deleteIDs))),
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
