// tasktrack is a project and task tracker with a dashboard API and a terminal board.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tgienger/tasktrack/internal/config"
	"github.com/tgienger/tasktrack/internal/db"
	"github.com/tgienger/tasktrack/internal/logging"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile  string
	envFile  string
	logLevel string

	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "tasktrack",
	Short:         "Project and task tracking",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return setup(cmd.Name() == "board")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tasktrack %s (commit: %s, built: %s)\n", version, commit, date)
		fmt.Printf("Go version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file (default .env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(versionCmd, serveCmd, boardCmd, statsCmd, taskCmd, projectCmd, groupCmd, userCmd)
}

func configOptions() config.Options {
	return config.Options{ConfigFile: cfgFile, EnvFile: envFile}
}

// setup loads and validates configuration, then starts logging. Invalid
// configuration stops the process before anything is opened.
func setup(quiet bool) error {
	loaded, err := config.Load(configOptions())
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	if errs := config.Validate(loaded); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	if err := logging.Init(loaded.Logging, quiet); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// watchLogLevel applies log level changes made to the config file while a
// long-running command is up
func watchLogLevel() {
	err := config.Watch(configOptions(), func(next *config.Config, err error) {
		if err == nil && logLevel == "" {
			err = logging.SetLevel(logging.Logger, next.Logging.Level)
		}
		if err != nil {
			logging.Event("CONFIG_RELOAD_FAILED").WithError(err).Warn("ignoring config change")
			return
		}
		logging.Event("CONFIG_RELOADED").WithField("level", logging.Logger.GetLevel().String()).Info("config reloaded")
	})
	if err != nil {
		logging.Event("CONFIG_WATCH_FAILED").WithError(err).Warn("config changes will not be applied")
	}
}

func openDB(ctx context.Context) (*db.DB, error) {
	database, err := db.New(ctx, db.Options{URL: cfg.Database.URL, Credential: cfg.Database.Credential})
	if err != nil {
		logging.Event("DB_CONNECT_FAILED").WithError(err).Error("could not open database")
		return nil, err
	}
	logging.Event("DB_CONNECTED").Debug("database ready")
	return database, nil
}

// withDB opens the store for the duration of fn
func withDB(cmd *cobra.Command, fn func(ctx context.Context, database *db.DB) error) error {
	ctx := cmd.Context()
	database, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(ctx, database)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
