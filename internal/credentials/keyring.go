// Package credentials finds the API key for the generation service: first
// in the environment, then in the OS keychain, then in a JSON file for hosts
// without a keychain.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const DefaultService = "mindmatch"

// ErrNotFound is returned when no secret is stored under the name.
var ErrNotFound = keyring.ErrNotFound

// Store wraps the OS keychain with an optional file fallback.
type Store struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

func NewStore(service, fallbackPath string) *Store {
	if strings.TrimSpace(service) == "" {
		service = DefaultService
	}
	return &Store{service: service, fallbackPath: fallbackPath}
}

func (k *Store) Set(name, value string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("credentials: secret name is required")
	}
	if err := keyring.Set(k.service, name, value); err == nil {
		return nil
	} else if !isKeyringUnavailable(err) {
		return fmt.Errorf("credentials: keyring set %s: %w", name, err)
	}
	return k.setFallback(name, value)
}

func (k *Store) Get(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("credentials: secret name is required")
	}
	val, err := keyring.Get(k.service, name)
	if err == nil {
		return val, nil
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("credentials: keyring get %s: %w", name, err)
	}

	fallback, ferr := k.getFallback(name)
	if ferr == nil {
		return fallback, nil
	}
	if errors.Is(err, keyring.ErrNotFound) || errors.Is(ferr, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return "", ferr
}

func (k *Store) Delete(name string) error {
	err := keyring.Delete(k.service, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		_ = k.deleteFallback(name)
		return fmt.Errorf("credentials: keyring delete %s: %w", name, err)
	}
	return k.deleteFallback(name)
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "the specified item could not be found in the keychain") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

func (k *Store) setFallback(name, value string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return fmt.Errorf("credentials: keyring unavailable and no fallback path configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	data[name] = value
	return k.writeFallbackUnlocked(data)
}

func (k *Store) getFallback(name string) (string, error) {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return "", fmt.Errorf("credentials: fallback path not configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return "", err
	}
	val, ok := data[name]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return val, nil
}

func (k *Store) deleteFallback(name string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	if _, ok := data[name]; !ok {
		return nil
	}
	delete(data, name)
	return k.writeFallbackUnlocked(data)
}

func (k *Store) readFallbackUnlocked() (map[string]string, error) {
	out := map[string]string{}
	raw, err := os.ReadFile(k.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("credentials: read fallback secrets: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("credentials: decode fallback secrets: %w", err)
	}
	return out, nil
}

func (k *Store) writeFallbackUnlocked(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(k.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("credentials: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("credentials: encode fallback secrets: %w", err)
	}
	if err := os.WriteFile(k.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("credentials: write fallback secrets: %w", err)
	}
	return nil
}
