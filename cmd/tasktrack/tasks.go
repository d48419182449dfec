package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/edit"
	"github.com/tgienger/tasktrack/internal/models"
	"github.com/tgienger/tasktrack/internal/query"
	"github.com/tgienger/tasktrack/internal/stats"
)

var statsProject int64

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard statistics as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			var projectID *int64
			if statsProject > 0 {
				projectID = &statsProject
			}
			d, err := stats.NewService(database).Dashboard(ctx, projectID)
			if err != nil {
				return err
			}
			return printJSON(d)
		})
	},
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskListFlags struct {
	project int64
	search  string
	filters []string
	sort    string
	desc    bool
	json    bool
}

var taskListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "Search tasks",
	Long: `Search tasks with free text, filters and sorting.

Filters are key=value pairs and may be repeated:
  owner, assignee   user id
  status            Not Started | In Progress | On Hold | Completed
  priority          Low | Medium | High
  group             group name
  start_date        start on or after (YYYY-MM-DD or RFC3339)
  due_date          due on or before (YYYY-MM-DD or RFC3339)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := taskListFlags
		p := query.Params{Search: f.search, SortField: f.sort, SortDirection: string(query.Ascending)}
		if f.desc {
			p.SortDirection = string(query.Descending)
		}
		if f.project > 0 {
			p.ProjectID = &f.project
		}
		if len(f.filters) > 0 {
			p.Filters = make(map[string]string, len(f.filters))
			for _, kv := range f.filters {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("filter %q must be key=value", kv)
				}
				if _, dup := p.Filters[k]; dup {
					return fmt.Errorf("filter %q given more than once", k)
				}
				p.Filters[k] = v
			}
		}

		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			tasks, err := query.NewEngine(database).Tasks(ctx, p)
			if err != nil {
				return err
			}
			if f.json {
				return printJSON(tasks)
			}
			printTasks(tasks)
			return nil
		})
	},
}

var taskAddFlags struct {
	project     int64
	owner       int64
	description string
	status      string
	priority    string
	group       string
	start       string
	due         string
	assignees   []int64
}

var taskAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := taskAddFlags
		nt := models.NewTask{
			ProjectID:   f.project,
			OwnerID:     f.owner,
			Name:        args[0],
			Description: f.description,
			AssigneeIDs: f.assignees,
		}
		if f.status != "" {
			s, err := models.ParseStatus(f.status)
			if err != nil {
				return err
			}
			nt.Status = s
		}
		if f.priority != "" {
			p, err := models.ParsePriority(f.priority)
			if err != nil {
				return err
			}
			nt.Priority = p
		}
		var err error
		if nt.StartDate, err = optionalDate("start", f.start); err != nil {
			return err
		}
		if nt.DueDate, err = optionalDate("due", f.due); err != nil {
			return err
		}

		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			if f.group != "" {
				g, err := database.GetGroupByName(ctx, f.group)
				if err != nil {
					return err
				}
				nt.GroupID = &g.ID
			}
			task, err := database.CreateTask(ctx, nt)
			if err != nil {
				return err
			}
			fmt.Printf("Created task %d: %s\n", task.ID, task.Name)
			return nil
		})
	},
}

var taskRemoveCmd = &cobra.Command{
	Use:     "rm ID...",
	Aliases: []string{"delete"},
	Short:   "Delete one or more tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			n, err := database.DeleteTasks(ctx, ids)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d task(s)\n", n)
			return nil
		})
	},
}

var taskSetCmd = &cobra.Command{
	Use:   "set ID FIELD [VALUE]",
	Short: "Change one field of a task",
	Long: `Change one field of a task. Omitting VALUE clears optional fields.

Fields: name, description, owner, assignees, start_date, due_date, status,
priority, group. Owner is a user id, group is a group name and assignees is
a comma-separated list of user ids (empty for none).`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		field, err := edit.ParseField(args[1])
		if err != nil {
			return err
		}
		var raw string
		if len(args) == 3 {
			raw = args[2]
		}
		value := edit.Value{Text: raw}
		if field == edit.FieldAssignees {
			if value.Assignees, err = parseAssignees(raw); err != nil {
				return err
			}
		}

		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			session := edit.NewSession(database)
			if _, err := session.Begin(ctx, id, field); err != nil {
				return err
			}
			if err := session.Input(value); err != nil {
				return err
			}
			task, err := session.Commit(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Task %d %s = %s\n", task.ID, field, displayValue(edit.ValueOf(task, field)))
			return nil
		})
	},
}

func init() {
	statsCmd.Flags().Int64Var(&statsProject, "project", 0, "limit to one project")

	lf := taskListCmd.Flags()
	lf.Int64Var(&taskListFlags.project, "project", 0, "limit to one project")
	lf.StringVar(&taskListFlags.search, "search", "", "match name or description")
	lf.StringArrayVar(&taskListFlags.filters, "filter", nil, "key=value filter (repeatable)")
	lf.StringVar(&taskListFlags.sort, "sort", "", "sort field: "+strings.Join(db.TaskSortFields(), ", "))
	lf.BoolVar(&taskListFlags.desc, "desc", false, "sort descending")
	lf.BoolVar(&taskListFlags.json, "json", false, "print JSON")

	af := taskAddCmd.Flags()
	af.Int64Var(&taskAddFlags.project, "project", 0, "project id")
	af.Int64Var(&taskAddFlags.owner, "owner", 0, "owner user id")
	af.StringVar(&taskAddFlags.description, "description", "", "description")
	af.StringVar(&taskAddFlags.status, "status", "", "status (default Not Started)")
	af.StringVar(&taskAddFlags.priority, "priority", "", "priority (default Medium)")
	af.StringVar(&taskAddFlags.group, "group", "", "group name")
	af.StringVar(&taskAddFlags.start, "start", "", "start date")
	af.StringVar(&taskAddFlags.due, "due", "", "due date")
	af.Int64SliceVar(&taskAddFlags.assignees, "assignee", nil, "assignee user ids")
	taskAddCmd.MarkFlagRequired("project")
	taskAddCmd.MarkFlagRequired("owner")

	taskCmd.AddCommand(taskListCmd, taskAddCmd, taskRemoveCmd, taskSetCmd)
}

func printTasks(tasks []models.TaskView) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tPRIORITY\tOWNER\tGROUP\tSTART\tDUE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Name, t.Status, t.Priority, t.OwnerName, t.GroupName,
			models.FormatDay(t.StartDate), models.FormatDay(t.DueDate))
	}
	w.Flush()
}

func optionalDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", field, err)
	}
	return &t, nil
}

// parseAssignees reads a comma-separated id list. An empty list is an
// explicit empty selection, never "not loaded".
func parseAssignees(raw string) ([]int64, error) {
	ids := []int64{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, &models.ValidationError{Field: "assignees", Reason: "invalid user id " + strconv.Quote(part)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func displayValue(v edit.Value) string {
	if v.Assignees != nil {
		parts := make([]string, len(v.Assignees))
		for i, id := range v.Assignees {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	if v.Text == "" {
		return "(none)"
	}
	return v.Text
}
