package generate

import (
	"fmt"
	"strings"

	"github.com/nhle/devdash/internal/model"
)

// The fallback lists are returned when a completion cannot be parsed.
// Each call builds a fresh slice so callers may edit the result.

func roadmapFallback() []model.RoadmapItem {
	items := []model.RoadmapItem{
		{
			Title:       "MVP Launch",
			Description: "Ship the smallest feature set that lets early users validate the product.",
			Milestone:   true,
		},
		{
			Title:       "Phase 2: Growth",
			Description: "Act on early feedback with secondary features, polish and onboarding.",
		},
		{
			Title:       "Backlog",
			Description: "Ideas and enhancements to revisit once the core product is stable.",
		},
	}
	for i := range items {
		items[i].Status = model.RoadmapPlanned
		items[i].Phase = model.PhaseForIndex(i)
		items[i].Color = model.ColorForIndex(i)
		items[i].Position = i
	}
	return items
}

func taskFallback() []model.TaskItem {
	items := []model.TaskItem{
		{
			Title:          "Set up the project repository",
			Description:    "Initialize version control, the build tooling and a CI pipeline.",
			Priority:       model.TaskPriorityHigh,
			EstimatedHours: hours(2),
			Tags:           model.StringList{"setup"},
		},
		{
			Title:          "Design the data model",
			Description:    "Define the core entities, their relationships and the storage schema.",
			Priority:       model.TaskPriorityMedium,
			EstimatedHours: hours(4),
			Tags:           model.StringList{"design"},
		},
		{
			Title:          "Implement the core feature",
			Description:    "Build the primary user-facing workflow end to end.",
			Priority:       model.TaskPriorityHigh,
			EstimatedHours: hours(8),
			Tags:           model.StringList{"feature"},
		},
	}
	for i := range items {
		items[i].Status = model.TaskTodo
		items[i].Dependencies = model.StringList{}
		items[i].Position = i
	}
	return items
}

func deploymentFallback() []model.DeploymentItem {
	items := []model.DeploymentItem{
		{
			Title:             "Configure environment variables",
			Description:       "Set every production secret and configuration value outside the codebase.",
			Category:          model.CategoryEnvironment,
			Priority:          model.DeploymentPriorityCritical,
			VerificationNotes: "Application boots in production without missing-config errors.",
		},
		{
			Title:             "Enable HTTPS and security headers",
			Description:       "Serve all traffic over TLS and add standard security headers.",
			Category:          model.CategorySecurity,
			Priority:          model.DeploymentPriorityHigh,
			VerificationNotes: "A header scan reports no missing HSTS or CSP headers.",
		},
		{
			Title:             "Set up error monitoring",
			Description:       "Report unhandled errors and uptime to a monitoring service.",
			Category:          model.CategoryMonitoring,
			Priority:          model.DeploymentPriorityMedium,
			VerificationNotes: "A test exception shows up in the monitoring dashboard.",
		},
	}
	for i := range items {
		items[i].Platform = model.PlatformGeneral
		items[i].Environment = model.EnvProduction
		items[i].Status = model.DeploymentTodo
		items[i].IsRequired = true
		items[i].HelpfulLinks = model.LinkList{}
		items[i].Position = i
	}
	return items
}

func hours(h float64) *float64 {
	return &h
}

// prdFencePrefixes are the opening fences a model may wrap a PRD in.
var prdFencePrefixes = []string{"```markdown", "```md", "```"}

// ParsePRD cleans a generated PRD. A fence wrapping the whole document is
// removed; empty output is replaced by a starter template for projectName.
func ParsePRD(rawText string, projectName string) string {
	text := strings.TrimSpace(rawText)
	for _, prefix := range prdFencePrefixes {
		if strings.HasPrefix(text, prefix) && strings.HasSuffix(text, "```") &&
			len(text) >= len(prefix)+3 {
			text = strings.TrimSpace(text[len(prefix) : len(text)-3])
			break
		}
	}
	if text == "" {
		return prdFallback(projectName)
	}
	return text
}

func prdFallback(projectName string) string {
	name := strings.TrimSpace(projectName)
	if name == "" {
		name = "Untitled Project"
	}
	return fmt.Sprintf(`# %s: Product Requirements

## Overview
Describe the problem this product solves and who it is for.

## Goals
- Primary goal
- Success metrics

## Core Features
1. Feature one
2. Feature two

## Non-Goals
- Out of scope items

## Technical Considerations
- Stack, integrations and constraints
`, name)
}
