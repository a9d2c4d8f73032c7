package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/devdash/internal/app"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror <project>",
	Short: "Create GitHub issues for a project's tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runMirror,
}

func runMirror(cmd *cobra.Command, args []string) error {
	e, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	defer e.Close()

	svc, err := app.BuildServices(e.cfg, e.store, e.logger)
	if err != nil {
		return err
	}
	if svc.Mirror == nil {
		return errors.New(strings.Join(svc.Warnings, "; "))
	}

	ctx := cmd.Context()
	p, err := findProject(ctx, e.store, e.cfg.User.ID, args[0])
	if err != nil {
		return err
	}
	tasks, err := e.store.GetTasks(ctx, p.ID)
	if err != nil {
		return err
	}
	res, err := svc.Mirror.MirrorTasks(ctx, *p, tasks)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, l := range res.Created {
		fmt.Fprintf(out, "created   #%d  %s\n", l.IssueNumber, l.IssueURL)
	}
	for _, l := range res.Referenced {
		fmt.Fprintf(out, "linked    #%d  %s\n", l.IssueNumber, l.IssueURL)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(out, "failed    %s: %s\n", f.TaskID, f.Error)
	}
	fmt.Fprintf(out, "%d created, %d linked, %d already mirrored, %d failed\n",
		len(res.Created), len(res.Referenced), res.Skipped, len(res.Failed))
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d task(s) could not be mirrored", len(res.Failed))
	}
	return nil
}
