package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/devdash/internal/ai"
	"github.com/nhle/devdash/internal/credential"
	"github.com/nhle/devdash/internal/generate"
	"github.com/nhle/devdash/internal/issues"
	"github.com/nhle/devdash/internal/model"
	"github.com/nhle/devdash/internal/store"
	appsync "github.com/nhle/devdash/internal/sync"
)

// Services are the collaborators built from configuration and
// credentials. A field is nil when its credential is not set.
type Services struct {
	Generator *generate.Generator
	GitHub    *issues.Client
	Mirror    *issues.Mirror
	Poller    *appsync.Poller

	// Warnings explain why a service is missing.
	Warnings []string
}

// BuildServices resolves credentials and constructs the AI generator,
// GitHub client, task mirror and issue poller. Missing credentials are
// not an error; the dependent service is left nil and a warning added.
func BuildServices(cfg *model.AppConfig, s store.Store, logger *slog.Logger) (*Services, error) {
	svc := &Services{}

	keyName, err := credential.KeyForProvider(cfg.AI.Provider)
	if err != nil {
		return nil, err
	}
	switch apiKey, err := credential.Lookup(keyName); {
	case err == nil:
		completer, err := ai.NewCompleter(cfg.AI, apiKey)
		if err != nil {
			return nil, fmt.Errorf("creating %s completer: %w", cfg.AI.Provider, err)
		}
		svc.Generator = generate.NewGenerator(completer,
			generate.WithTimeout(time.Duration(cfg.AI.TimeoutSec)*time.Second),
			generate.WithMaxTokens(cfg.AI.MaxTokens),
			generate.WithLogger(logger.With("component", "generate")),
		)
	case errors.Is(err, credential.ErrNotSet):
		svc.Warnings = append(svc.Warnings, fmt.Sprintf(
			"content generation disabled: set $%s or store %s in settings",
			credential.EnvVar(keyName), keyName))
	default:
		logger.Warn("reading AI credential failed", "key", keyName, "error", err)
		svc.Warnings = append(svc.Warnings, fmt.Sprintf("content generation disabled: %v", err))
	}

	switch token, err := credential.Lookup(credential.KeyGitHub); {
	case err == nil:
		svc.GitHub = issues.NewClient(cfg.GitHub.BaseURL, token)
		svc.Mirror = issues.NewMirror(svc.GitHub, s, cfg.GitHub.MaxConcurrency)
		svc.Poller = appsync.New(s, svc.GitHub, time.Duration(cfg.GitHub.PollIntervalSec)*time.Second)
	case errors.Is(err, credential.ErrNotSet):
		svc.Warnings = append(svc.Warnings, fmt.Sprintf(
			"issue mirroring disabled: set $%s or store %s in settings",
			credential.EnvVar(credential.KeyGitHub), credential.KeyGitHub))
	default:
		logger.Warn("reading GitHub credential failed", "error", err)
		svc.Warnings = append(svc.Warnings, fmt.Sprintf("issue mirroring disabled: %v", err))
	}

	return svc, nil
}

// Stop halts the background poller, if any.
func (s *Services) Stop() {
	if s != nil && s.Poller != nil {
		s.Poller.Stop()
	}
}
