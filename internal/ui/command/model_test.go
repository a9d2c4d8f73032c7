package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want CommandMsg
	}{
		{"saved", CommandMsg{Name: "saved"}},
		{"  Tool  Cursor ", CommandMsg{Name: "tool", Arg: "Cursor"}},
		{"open My Project", CommandMsg{Name: "open", Arg: "My Project"}},
		{"ws", CommandMsg{Name: "workspace"}},
		{"q", CommandMsg{Name: "quit"}},
		{"", CommandMsg{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestPalette_EmitsParsedCommand(t *testing.T) {
	m := New(80, 20)
	m.Focus()
	for _, r := range "tag go" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Len(t, m.matching(), 1)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: "tag", Arg: "go"}, cmd())
	assert.Empty(t, m.input.Value())
}
