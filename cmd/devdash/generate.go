package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nhle/devdash/internal/app"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	"github.com/nhle/devdash/internal/workspace"
)

var (
	genFormat       string
	genInstructions string
	genAccept       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <project> <roadmap|task|deployment|prd>",
	Short: "Generate workspace content for a project and print it",
	Long: `Generate asks the configured AI provider for roadmap items, tasks,
deployment checklist items or a PRD, validates the response and prints it.
With --accept the result is stored in the project workspace.`,
	Args: cobra.ExactArgs(2),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", "yaml", "output format: json or yaml")
	generateCmd.Flags().StringVarP(&genInstructions, "instructions", "i", "", "extra instructions for the model")
	generateCmd.Flags().BoolVar(&genAccept, "accept", false, "store the generated content in the workspace")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if genFormat != "json" && genFormat != "yaml" {
		return fmt.Errorf("unknown format %q", genFormat)
	}
	ct, err := model.ParseContentType(args[1])
	if err != nil {
		return err
	}

	e, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	defer e.Close()

	svc, err := app.BuildServices(e.cfg, e.store, e.logger)
	if err != nil {
		return err
	}
	if svc.Generator == nil {
		return errors.New(strings.Join(svc.Warnings, "; "))
	}

	ctx := cmd.Context()
	p, err := findProject(ctx, e.store, e.cfg.User.ID, args[0])
	if err != nil {
		return err
	}
	pc, err := workspace.Context(ctx, e.store, *p, genInstructions)
	if err != nil {
		return err
	}

	if ct == model.ContentPRD {
		content, err := svc.Generator.GeneratePRD(ctx, pc)
		if err != nil {
			return err
		}
		if genAccept {
			if _, err := e.store.SavePRD(ctx, p.ID, content); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
		return err
	}

	records, err := svc.Generator.GenerateList(ctx, ct, pc)
	if err != nil {
		return err
	}
	if genAccept {
		records, err = workspace.Accept(ctx, e.store, p.ID, ct, records)
		if err != nil {
			return err
		}
		e.logger.Info("generated content accepted", "project_id", p.ID, "content_type", ct, "count", len(records))
	}
	return writeRecords(cmd.OutOrStdout(), genFormat, records)
}

func writeRecords(w io.Writer, format string, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(records)
}

// findProject resolves ref against the user's projects by ID, then by
// case-insensitive name.
func findProject(ctx context.Context, s store.Store, userID, ref string) (*model.Project, error) {
	projects, err := s.GetProjects(ctx, store.ProjectFilter{OwnerID: &userID, IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == ref {
			return &projects[i], nil
		}
	}
	var match *model.Project
	for i := range projects {
		if strings.EqualFold(projects[i].Name, ref) {
			if match != nil {
				return nil, fmt.Errorf("project name %q is ambiguous, use the id", ref)
			}
			match = &projects[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("project %q: %w", ref, store.ErrNotFound)
	}
	return match, nil
}
