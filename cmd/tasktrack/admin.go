package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/models"
	"github.com/tgienger/tasktrack/internal/query"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectDescription string

var projectAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			p, err := database.CreateProject(ctx, args[0], projectDescription)
			if err != nil {
				return err
			}
			fmt.Printf("Created project %d: %s\n", p.ID, p.Title)
			return nil
		})
	},
}

var projectListFlags struct {
	search string
	sort   string
	desc   bool
}

var projectListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List projects with progress",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := projectListFlags
		p := query.ProjectParams{Search: f.search, SortField: f.sort, SortDirection: string(query.Ascending)}
		if f.desc {
			p.SortDirection = string(query.Descending)
		}
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			projects, err := query.NewEngine(database).Projects(ctx, p)
			if err != nil {
				return err
			}
			total, err := database.ProjectCount(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tDONE\tTASKS")
			for _, p := range projects {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", p.ID, p.Title, p.CompletedCount, p.TaskCount)
			}
			w.Flush()
			fmt.Printf("%d of %d project(s)\n", len(projects), total)
			return nil
		})
	},
}

var projectRemoveCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete a project and all of its tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			if err := database.DeleteProject(ctx, id); err != nil {
				return err
			}
			fmt.Printf("Deleted project %d\n", id)
			return nil
		})
	},
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename ID TITLE",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			return database.RenameProject(ctx, id, args[1])
		})
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage task groups (admin only)",
}

var groupActor int64

var groupAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			g, err := database.CreateGroup(ctx, actingUser(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created group %d: %s\n", g.ID, g.Name)
			return nil
		})
	},
}

var groupListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List groups",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			groups, err := database.ListGroups(ctx)
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Printf("%d\t%s\n", g.ID, g.Name)
			}
			return nil
		})
	},
}

var groupRemoveCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete a group; its tasks become ungrouped",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			return database.DeleteGroup(ctx, actingUser(), id)
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var newUser struct {
	role  string
	email string
	phone string
}

var userAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := models.ParseRole(newUser.role)
		if err != nil {
			return err
		}
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			u, err := database.CreateUser(ctx, db.NewUser{
				DisplayName: args[0],
				Role:        role,
				Email:       newUser.email,
				Phone:       newUser.phone,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created user %d: %s (%s)\n", u.ID, u.DisplayName, u.Role)
			return nil
		})
	},
}

var userListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List users",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(ctx context.Context, database *db.DB) error {
			users, err := database.ListUsers(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tROLE\tEMAIL")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.DisplayName, u.Role, u.Email)
			}
			return w.Flush()
		})
	},
}

// actingUser is --as, falling back to board.user_id
func actingUser() int64 {
	if groupActor > 0 {
		return groupActor
	}
	return cfg.Board.UserID
}

func init() {
	projectAddCmd.Flags().StringVar(&projectDescription, "description", "", "project description")
	plf := projectListCmd.Flags()
	plf.StringVar(&projectListFlags.search, "search", "", "match title")
	plf.StringVar(&projectListFlags.sort, "sort", "", "sort field: "+strings.Join(db.ProjectSortFields(), ", "))
	plf.BoolVar(&projectListFlags.desc, "desc", false, "sort descending")
	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectRemoveCmd, projectRenameCmd)

	groupCmd.PersistentFlags().Int64Var(&groupActor, "as", 0, "acting admin user id")
	groupCmd.AddCommand(groupAddCmd, groupListCmd, groupRemoveCmd)

	userAddCmd.Flags().StringVar(&newUser.role, "role", "user", "admin or user")
	userAddCmd.Flags().StringVar(&newUser.email, "email", "", "email address")
	userAddCmd.Flags().StringVar(&newUser.phone, "phone", "", "phone number")
	userCmd.AddCommand(userAddCmd, userListCmd)
}
