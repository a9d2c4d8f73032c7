package workspace

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/theme"
)

// View renders the workspace.
func (m Model) View() string {
	if m.project == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No project open.\n\nPress p to choose or create one.")
	}

	var header string
	switch {
	case m.pending != nil:
		header = fmt.Sprintf("%s Generating %s...", m.spinner.View(), sectionName(*m.pending))
	case m.preview != nil:
		header = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorYellow).
			Render(fmt.Sprintf("Preview: %s", sectionName(m.preview.ct))) +
			theme.DimmedStyle.Render("   enter accept · r regenerate · esc discard")
	default:
		header = m.sectionTabs()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(m.project.Name)+theme.DimmedStyle.Render(repoSuffix(*m.project)),
		header,
		"",
		m.viewport.View(),
	)
}

func (m Model) sectionTabs() string {
	parts := make([]string, len(sections))
	for i, ct := range sections {
		label := fmt.Sprintf("%d %s", i+1, sectionName(ct))
		if ct != model.ContentPRD {
			label += fmt.Sprintf(" (%d)", len(m.items[ct]))
		}
		if i == m.section {
			parts[i] = theme.ActiveTabStyle.Render(label)
		} else {
			parts[i] = theme.TabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) refreshViewport() {
	if m.preview != nil {
		m.viewport.SetContent(m.renderPreview())
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetContent(m.renderSection())
	if m.current() != model.ContentPRD {
		// Keep the cursor row visible.
		rows := m.viewport.Height
		if rows > 0 && m.cursor >= m.viewport.YOffset+rows {
			m.viewport.SetYOffset(m.cursor - rows + 1)
		} else if m.cursor < m.viewport.YOffset {
			m.viewport.SetYOffset(m.cursor)
		}
	}
}

func (m Model) renderPreview() string {
	p := m.preview
	if p.ct == model.ContentPRD {
		return p.prd
	}
	lines := make([]string, 0, len(p.records))
	for _, r := range p.records {
		lines = append(lines, renderRecord(r, nil, false, m.width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSection() string {
	ct := m.current()
	if ct == model.ContentPRD {
		if m.prd == nil {
			return theme.DimmedStyle.Render("No PRD yet. Press 4 to generate one.")
		}
		return theme.DimmedStyle.Render(fmt.Sprintf("version %d · updated %s",
			m.prd.Version, m.prd.UpdatedAt.Format("2006-01-02 15:04"))) + "\n\n" + m.prd.Content
	}

	records := m.items[ct]
	if len(records) == 0 {
		return theme.DimmedStyle.Render(fmt.Sprintf("No %s yet. Press %d to generate.",
			strings.ToLower(sectionName(ct)), m.section+1))
	}

	lines := make([]string, len(records))
	for i, r := range records {
		var link *model.IssueLink
		if t, ok := r.(model.TaskItem); ok {
			if l, ok := m.links[t.ID]; ok {
				link = &l
			}
		}
		lines[i] = renderRecord(r, link, i == m.cursor, m.width)
	}
	hint := ""
	switch ct {
	case model.ContentTask:
		hint = "space advance status · m mirror to GitHub"
	case model.ContentDeployment:
		hint = "space advance status"
	}
	if hint != "" {
		lines = append(lines, "", theme.HelpStyle.Render(hint))
	}
	return strings.Join(lines, "\n")
}

// renderRecord draws one record on a single line.
func renderRecord(r model.Record, link *model.IssueLink, selected bool, width int) string {
	var line string
	switch it := r.(type) {
	case model.RoadmapItem:
		marker := "●"
		if it.Milestone {
			marker = "◆"
		}
		line = fmt.Sprintf("%s %-10s %s %s",
			theme.SwatchStyle(it.Color).Render(marker),
			theme.StatusStyle(string(it.Status)).Render(string(it.Status)),
			theme.DimmedStyle.Render("["+string(it.Phase)+"]"),
			it.Title)

	case model.TaskItem:
		line = fmt.Sprintf("%s %s %s",
			theme.StatusStyle(string(it.Status)).Render(fmt.Sprintf("%-11s", it.Status)),
			theme.PriorityStyle(string(it.Priority)).Render(fmt.Sprintf("%-6s", it.Priority)),
			it.Title)
		if it.EstimatedHours != nil {
			line += theme.DimmedStyle.Render(fmt.Sprintf("  %gh", *it.EstimatedHours))
		}
		if it.DueDate != nil {
			line += theme.DimmedStyle.Render("  due " + *it.DueDate)
		}
		if link != nil {
			line += theme.DimmedStyle.Render(fmt.Sprintf("  #%d %s", link.IssueNumber, link.IssueState))
		}

	case model.DeploymentItem:
		req := " "
		if it.IsRequired {
			req = "*"
		}
		line = fmt.Sprintf("%s%s %s %s %s",
			req,
			theme.StatusStyle(string(it.Status)).Render(fmt.Sprintf("%-14s", it.Status)),
			theme.PriorityStyle(string(it.Priority)).Render(fmt.Sprintf("%-8s", it.Priority)),
			it.Title,
			theme.DimmedStyle.Render(fmt.Sprintf("[%s/%s/%s]", it.Category, it.Platform, it.Environment)))
	}

	if width > 8 && lipgloss.Width(line) > width-4 {
		line = lipgloss.NewStyle().MaxWidth(width - 4).Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func sectionName(ct model.ContentType) string {
	switch ct {
	case model.ContentRoadmap:
		return "Roadmap"
	case model.ContentTask:
		return "Tasks"
	case model.ContentDeployment:
		return "Checklist"
	default:
		return "PRD"
	}
}

func repoSuffix(p model.Project) string {
	if !p.HasRepo() {
		return ""
	}
	return fmt.Sprintf("  %s/%s", p.RepoOwner, p.RepoName)
}
