package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/devdash/internal/app"
	"github.com/nhle/devdash/internal/model"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal UI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// The terminal belongs to Bubble Tea, so logs go to a file.
	logPath := filepath.Join(model.ConfigDir(), "devdash.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	e, err := setup(logFile)
	if err != nil {
		return err
	}
	defer e.Close()

	svc, err := app.BuildServices(e.cfg, e.store, e.logger)
	if err != nil {
		return err
	}
	for _, w := range svc.Warnings {
		e.logger.Warn(w)
	}

	m := app.New(app.Options{
		Store:      e.store,
		Config:     e.cfg,
		ConfigPath: configPath,
		Services:   svc,
		Logger:     e.logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	svc.Stop()
	if err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
