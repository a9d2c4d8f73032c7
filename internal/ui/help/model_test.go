package help

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/devdash/internal/keys"
)

func TestView_ShowsOriginKeysFirst(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 40)
	m.SetOrigin("workspace")

	out := m.View()
	assert.Contains(t, out, "In workspace")
	assert.Contains(t, out, "generate roadmap")
	assert.Less(t, strings.Index(out, "In workspace"), strings.Index(out, "Everywhere"))
}

func TestView_WithoutOrigin(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 40)
	out := m.View()
	assert.NotContains(t, out, "In ")
	assert.Contains(t, out, "upvote")
}
