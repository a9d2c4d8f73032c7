package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/devdash/internal/api"
	"github.com/nhle/devdash/internal/app"
	appsync "github.com/nhle/devdash/internal/sync"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and poll linked GitHub issues",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := setup(os.Stderr)
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

	deps := api.Deps{Store: e.store, Logger: e.logger.With("component", "api")}
	if svc.Generator != nil {
		deps.Generator = svc.Generator
	}
	if svc.Mirror != nil {
		deps.Mirror = svc.Mirror
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if svc.Poller != nil {
		interval := time.Duration(e.cfg.GitHub.PollIntervalSec) * time.Second
		go pollIssues(ctx, svc.Poller, interval, e)
	}

	addr := serveAddr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}
	return api.NewServer(deps).ListenAndServe(ctx, addr)
}

// pollIssues runs a sync every interval until ctx is cancelled.
func pollIssues(ctx context.Context, p *appsync.Poller, interval time.Duration, e *env) {
	logger := e.logger.With("component", "sync")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res := p.SyncOnce(ctx)
		switch {
		case res.AuthError != nil:
			logger.Error("github rejected the token", "message", res.AuthError.Message)
		case res.Error != nil:
			logger.Warn("issue sync failed", "error", res.Error)
		default:
			logger.Debug("issue sync finished", "checked", res.Checked, "updated", len(res.Updates))
		}
		for _, u := range res.Updates {
			logger.Info("task status synced from issue",
				"task_id", u.TaskID, "issue", u.IssueNumber, "state", u.IssueState, "status", u.Status)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
