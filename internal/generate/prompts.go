package generate

import (
	"fmt"
	"strings"

	"github.com/nhle/devdash/internal/model"
)

// ProjectContext is everything the generator is allowed to tell the model
// about a project. It is passed explicitly; nothing is read from ambient
// state.
type ProjectContext struct {
	ProjectID   string
	Name        string
	Description string
	TechStack   string
	PRD         string

	// Instructions are optional user notes appended to the prompt, used
	// when regenerating.
	Instructions string
}

const systemPrompt = "You are a senior engineering lead who turns project " +
	"descriptions into concrete, actionable planning artifacts. " +
	"When asked for JSON, reply with the JSON array only."

// buildPrompt returns the user prompt for content type ct.
func buildPrompt(ct model.ContentType, pc ProjectContext) string {
	var sb strings.Builder

	writeProject(&sb, pc)

	switch ct {
	case model.ContentRoadmap:
		sb.WriteString("Create a product roadmap of 4 to 8 items.\n")
		sb.WriteString("Respond with a JSON array of objects with these fields:\n")
		sb.WriteString("- title (string)\n")
		sb.WriteString("- description (string)\n")
		sb.WriteString("- phase (one of: mvp, phase_2, backlog)\n")
		sb.WriteString("- milestone (boolean)\n")
		fmt.Fprintf(&sb, "- color (one of: %s)\n", strings.Join(model.RoadmapPalette, ", "))
	case model.ContentTask:
		sb.WriteString("Break the work into 5 to 12 implementation tasks.\n")
		sb.WriteString("Respond with a JSON array of objects with these fields:\n")
		sb.WriteString("- title (string)\n")
		sb.WriteString("- description (string)\n")
		sb.WriteString("- priority (one of: low, medium, high, urgent)\n")
		sb.WriteString("- estimated_hours (number)\n")
		sb.WriteString("- due_date (YYYY-MM-DD, optional)\n")
		sb.WriteString("- tags (array of strings)\n")
	case model.ContentDeployment:
		sb.WriteString("Write a production deployment checklist of 6 to 12 items.\n")
		sb.WriteString("Respond with a JSON array of objects with these fields:\n")
		sb.WriteString("- title (string)\n")
		sb.WriteString("- description (string)\n")
		fmt.Fprintf(&sb, "- category (one of: %s)\n", joinCategories())
		fmt.Fprintf(&sb, "- platform (one of: %s)\n", joinPlatforms())
		sb.WriteString("- environment (one of: development, staging, production)\n")
		sb.WriteString("- priority (one of: low, medium, high, critical)\n")
		sb.WriteString("- is_required (boolean)\n")
		sb.WriteString("- verification_notes (string)\n")
		sb.WriteString("- helpful_links (array of {title, url, description})\n")
	case model.ContentPRD:
		sb.WriteString("Write a product requirements document in Markdown with sections ")
		sb.WriteString("for Overview, Goals, Core Features, Non-Goals and Technical ")
		sb.WriteString("Considerations. Respond with the Markdown only.\n")
	}

	if pc.Instructions != "" {
		sb.WriteString("\nAdditional instructions:\n")
		sb.WriteString(pc.Instructions)
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeProject(sb *strings.Builder, pc ProjectContext) {
	fmt.Fprintf(sb, "Project: %s\n", pc.Name)
	if pc.Description != "" {
		fmt.Fprintf(sb, "Description: %s\n", pc.Description)
	}
	if pc.TechStack != "" {
		fmt.Fprintf(sb, "Tech stack: %s\n", pc.TechStack)
	}
	if pc.PRD != "" {
		sb.WriteString("\nProduct requirements:\n")
		sb.WriteString(pc.PRD)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func joinCategories() string {
	parts := make([]string, len(model.DeploymentCategories))
	for i, c := range model.DeploymentCategories {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func joinPlatforms() string {
	parts := make([]string, len(model.DeploymentPlatforms))
	for i, p := range model.DeploymentPlatforms {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}
