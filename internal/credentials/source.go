package credentials

import (
	"errors"
	"os"
	"strings"
)

// APIKeyName is the name the generation service key is stored under.
const APIKeyName = "api-key"

// EnvVars are checked in order before the keychain.
var EnvVars = []string{"MINDMATCH_API_KEY", "GEMINI_API_KEY", "API_KEY"}

// Source resolves the API key on every call.
type Source struct {
	store     *Store
	envVars   []string
	lookupEnv func(string) (string, bool)
}

// NewSource returns a Source reading EnvVars and then store. store may be
// nil to disable the keychain lookup.
func NewSource(store *Store) *Source {
	return &Source{store: store, envVars: EnvVars, lookupEnv: os.LookupEnv}
}

// APIKey returns the first non-empty key found. No key at all is an empty
// string and a nil error.
func (s *Source) APIKey() (string, error) {
	for _, name := range s.envVars {
		if v, ok := s.lookupEnv(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	if s.store == nil {
		return "", nil
	}
	v, err := s.store.Get(APIKeyName)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// SetAPIKey stores key in the keychain (or the fallback file).
func (s *Source) SetAPIKey(key string) error {
	if s.store == nil {
		return errors.New("credentials: no keychain store configured")
	}
	return s.store.Set(APIKeyName, strings.TrimSpace(key))
}
