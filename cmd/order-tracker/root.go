package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/order-tracker/internal/app"
	"github.com/nhle/order-tracker/internal/model"
	"github.com/nhle/order-tracker/internal/store"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "order-tracker",
		Short: "Track retail orders extracted from your mail",
		Long: "order-tracker reads order confirmation and shipping emails from\n" +
			"configured mail sources, extracts structured order records, and\n" +
			"tracks them in a local database. Running it without a subcommand\n" +
			"opens the interactive terminal UI.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, cleanup, err := loadEnv(true)
			if err != nil {
				return err
			}
			defer cleanup()

			slog.Info("starting order-tracker", "db", cfg.Database.Path)

			p := tea.NewProgram(app.New(s, cfg.Sync), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", model.DefaultConfigPath(),
		"path to the configuration file",
	)
}

// loadEnv loads the configuration, installs the default logger, and
// opens the store. The TUI logs to a file next to the database so log
// lines don't corrupt the terminal; headless commands log to stderr.
func loadEnv(tui bool) (*model.AppConfig, *store.SQLiteStore, func(), error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logPath := ""
	if tui {
		logPath = filepath.Join(filepath.Dir(cfg.Database.Path), "ordertracker.log")
	}
	logCleanup, err := setupLogger(cfg.Log.Level, logPath)
	if err != nil {
		return nil, nil, nil, err
	}

	s, err := openStore(cfg)
	if err != nil {
		logCleanup()
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = s.Close()
		logCleanup()
	}
	return cfg, s, cleanup, nil
}

// openStore opens the SQLite store at the configured path, creating
// parent directories on first run.
func openStore(cfg *model.AppConfig) (*store.SQLiteStore, error) {
	dir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return store.NewSQLiteStore(cfg.Database.Path)
}

// setupLogger installs the default slog logger, writing to the given
// file or to stderr when path is empty.
func setupLogger(levelName, path string) (func(), error) {
	level := new(slog.LevelVar)
	switch levelName {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() {}

	var w io.Writer = os.Stderr
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return cleanup, err
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return cleanup, err
		}
		w = file
		cleanup = func() { _ = file.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, opts)))
	return cleanup, nil
}
