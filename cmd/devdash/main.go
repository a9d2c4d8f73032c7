// Command devdash is a project workspace dashboard: a terminal UI, an
// HTTP API and a few scripting commands over the same SQLite store.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "devdash",
		Short:         "Project workspace dashboard with AI planning and a community feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running devdash without a subcommand opens the terminal UI.
		RunE: runTUI,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")

	rootCmd.AddCommand(tuiCmd, serveCmd, generateCmd, mirrorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: configuration, logger and store.
type env struct {
	cfg    *model.AppConfig
	logger *slog.Logger
	store  *store.SQLiteStore
}

func (e *env) Close() error {
	return e.store.Close()
}

// setup loads configuration, installs the default logger writing to w
// and opens the store.
func setup(w io.Writer) (*env, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Debug("store opened", "path", cfg.Database.Path)

	return &env{cfg: cfg, logger: logger, store: s}, nil
}
