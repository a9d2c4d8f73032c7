package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/devdash/internal/keys"
	"github.com/nhle/devdash/internal/model"
)

func loadConfig(t *testing.T) (*model.AppConfig, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	return cfg, path
}

// resolve runs cmd and returns the first message that is not a spinner tick.
func resolve(cmd tea.Cmd) tea.Msg {
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if m := resolve(c); m != nil {
				return m
			}
		}
		return nil
	}
	if _, tick := msg.(spinner.TickMsg); tick {
		return nil
	}
	return msg
}

func TestValidateGitHubToken(t *testing.T) {
	cfg, path := loadConfig(t)
	t.Setenv("GITHUB_TOKEN", "ghp_env")

	m := New(cfg, path, keys.DefaultKeyMap(), 80, 30)
	var gotToken string
	m.check = func(_ context.Context, baseURL, token string) (string, error) {
		gotToken = token
		assert.Equal(t, "https://api.github.com", baseURL)
		return "octocat", nil
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	assert.Equal(t, ModeValidating, m.mode)

	m, _ = m.Update(resolve(cmd))
	assert.Equal(t, ModeValidateResult, m.mode)
	assert.Equal(t, "ghp_env", gotToken)
	assert.Equal(t, "octocat", m.result.Login)
	assert.Contains(t, m.View(), "octocat")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeList, m.mode)
}

func TestValidateFailureShown(t *testing.T) {
	cfg, path := loadConfig(t)
	t.Setenv("GITHUB_TOKEN", "bad")

	m := New(cfg, path, keys.DefaultKeyMap(), 80, 30)
	m.check = func(context.Context, string, string) (string, error) {
		return "", errors.New("bad credentials")
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	m, _ = m.Update(resolve(cmd))
	assert.Contains(t, m.View(), "bad credentials")
}

func TestApplyPrefsAndSave(t *testing.T) {
	cfg, path := loadConfig(t)

	applyPrefs(cfg, formBindings{
		provider:  model.ProviderOpenAI,
		modelName: " gpt-4o ",
		userID:    "nam",
		repoURL:   "https://ghe.example.com/api/v3/",
	})
	require.NoError(t, model.SaveConfig(path, cfg))

	got, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderOpenAI, got.AI.Provider)
	assert.Equal(t, "gpt-4o", got.AI.Model)
	assert.Equal(t, "nam", got.User.ID)
	assert.Equal(t, "https://ghe.example.com/api/v3", got.GitHub.BaseURL)
}

func TestSavedMsgEmitsChanged(t *testing.T) {
	cfg, path := loadConfig(t)
	m := New(cfg, path, keys.DefaultKeyMap(), 80, 30)
	m.mode = ModePrefsForm

	// refreshStatus reads the environment first; keep it off the keyring.
	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")
	t.Setenv("GITHUB_TOKEN", "g")

	m, cmd := m.Update(savedMsg{})
	assert.Equal(t, ModeList, m.mode)
	changed, ok := cmd().(ChangedMsg)
	require.True(t, ok)
	assert.Same(t, cfg, changed.Config)
}
