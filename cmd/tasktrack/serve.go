package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/logging"
	"github.com/tgienger/tasktrack/internal/server"
	"github.com/tgienger/tasktrack/internal/ui"
	"github.com/tgienger/tasktrack/internal/ui/views"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watchLogLevel()
		return withDB(cmd, func(_ context.Context, database *db.DB) error {
			srv := server.New(cfg.Server, cfg.Breaker, database)
			if err := srv.Run(ctx); err != nil {
				logging.Event("SERVER_FAILED").WithError(err).Error("server stopped")
				return err
			}
			return nil
		})
	},
}

var boardUser int64

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the terminal board",
	RunE: func(cmd *cobra.Command, args []string) error {
		watchLogLevel()
		return withDB(cmd, func(_ context.Context, database *db.DB) error {
			opts := views.Options{Debounce: cfg.Search.Debounce, UserID: cfg.Board.UserID}
			if boardUser > 0 {
				opts.UserID = boardUser
			}

			p := tea.NewProgram(ui.NewApp(database, opts), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				logging.Event("BOARD_FAILED").WithError(err).Error("board exited")
				return err
			}
			return nil
		})
	},
}

func init() {
	boardCmd.Flags().Int64Var(&boardUser, "user", 0, "acting user id (overrides board.user_id)")
}
