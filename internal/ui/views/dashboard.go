package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tasktrack/internal/models"
	"github.com/tgienger/tasktrack/internal/ui/styles"
)

const barWidth = 30

func (v *TaskListView) renderDashboard() string {
	s := v.styles
	title := s.Title.Render(v.project.Title + " · Dashboard")
	footer := s.Help.Render(s.HelpKey.Render("esc") + " back")

	if v.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", s.ErrorText.Render(v.err.Error()), footer)
	}
	if v.stats == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", s.TitleMuted.Render("Loading..."), footer)
	}
	d := v.stats

	summary := fmt.Sprintf("%d tasks • %s complete", d.TotalTasks, d.TaskCompletionRate)

	var status []string
	for _, st := range models.Statuses {
		label := lipgloss.NewStyle().Foreground(styles.StatusColor(st)).Width(12).Render(string(st))
		n := d.StatusBreakdown[st]
		status = append(status, fmt.Sprintf("%s %s %d", label, s.RenderBar(n, d.TotalTasks, barWidth), n))
	}

	var priority []string
	for i := len(models.Priorities) - 1; i >= 0; i-- {
		p := models.Priorities[i]
		label := lipgloss.NewStyle().Foreground(styles.PriorityColor(p)).Width(12).Render(string(p))
		n := d.PriorityBreakdown[p]
		priority = append(priority, fmt.Sprintf("%s %s %d", label, s.RenderBar(n, d.TotalTasks, barWidth), n))
	}

	var groups []string
	for _, g := range d.GroupTaskCounts {
		label := s.ListItem.Width(16).Render(g.GroupName)
		groups = append(groups, fmt.Sprintf("%s %s %d", label, s.RenderBar(g.TaskCount, d.TotalTasks, barWidth), g.TaskCount))
	}
	if len(groups) == 0 {
		groups = append(groups, s.TitleMuted.Render("no tasks"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		s.TitleMuted.Render(summary),
		"",
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{s.HelpKey.Render("Status")}, status...)...)),
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{s.HelpKey.Render("Priority")}, priority...)...)),
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{s.HelpKey.Render("Groups")}, groups...)...)),
		s.TitleMuted.Render(longestSpan(d.Durations)),
		footer,
	)
}

// longestSpan summarizes the per-task durations
func longestSpan(durations []int) string {
	longest, total, scheduled := 0, 0, 0
	for _, days := range durations {
		if days > 0 {
			scheduled++
			total += days
		}
		longest = max(longest, days)
	}
	if scheduled == 0 {
		return "no scheduled tasks"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d scheduled • longest %d days • average %.1f days", scheduled, longest, float64(total)/float64(scheduled))
	return b.String()
}
