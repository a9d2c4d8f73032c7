// Package credential stores API tokens in the OS keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"

	"github.com/nhle/devdash/internal/model"
)

const serviceName = "devdash"

// Known credential keys.
const (
	KeyAnthropic = "anthropic_api_key"
	KeyOpenAI    = "openai_api_key"
	KeyGitHub    = "github_token"
)

// envFallback maps each key to the environment variable consulted when
// the keyring has no entry.
var envFallback = map[string]string{
	KeyAnthropic: "ANTHROPIC_API_KEY",
	KeyOpenAI:    "OPENAI_API_KEY",
	KeyGitHub:    "GITHUB_TOKEN",
}

// ErrNotSet is returned when a credential is in neither the keyring nor
// the environment.
var ErrNotSet = errors.New("credential not set")

// openKeyring is replaced in tests.
var openKeyring = func() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(model.ConfigDir(), "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("devdash-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// KeyForProvider returns the credential key of an AI provider.
func KeyForProvider(provider string) (string, error) {
	switch provider {
	case model.ProviderAnthropic:
		return KeyAnthropic, nil
	case model.ProviderOpenAI:
		return KeyOpenAI, nil
	default:
		return "", fmt.Errorf("unknown ai provider %q", provider)
	}
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Lookup returns the credential for key, preferring the environment
// variable over the keyring so that CI and containers need no keyring.
func Lookup(key string) (string, error) {
	if env, ok := envFallback[key]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}

	v, err := Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("%s: %w", key, ErrNotSet)
		}
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s: %w", key, ErrNotSet)
	}
	return v, nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "devdash " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Where a credential was found.
const (
	SourceEnv     = "env"
	SourceKeyring = "keyring"
	SourceNone    = ""
)

// Status reports where Lookup would find key without returning the value.
func Status(key string) string {
	if env, ok := envFallback[key]; ok && strings.TrimSpace(os.Getenv(env)) != "" {
		return SourceEnv
	}
	if v, err := Get(key); err == nil && strings.TrimSpace(v) != "" {
		return SourceKeyring
	}
	return SourceNone
}

// EnvVar returns the environment variable consulted for key.
func EnvVar(key string) string {
	return envFallback[key]
}
