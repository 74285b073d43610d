// Package prefs handles thingscout user preferences persistence.
// Preferences are stored in ~/.config/thingscout/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for thingscout.
type Prefs struct {
	UserName string `toml:"username"`
}

const defaultPrefsPath = "~/.config/thingscout/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{}, nil
	}

	var prefs Prefs

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{}, nil // Graceful degradation
	}

	prefs.UserName = strings.TrimSpace(prefs.UserName)

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// Store wraps a preferences file with in-memory state and change
// notification, so setting changes made through the UI propagate to
// subscribed observers.
type Store struct {
	path string

	mu    sync.Mutex
	prefs Prefs
	subs  []func()
}

// NewStore loads the preferences at path (default path when empty) and
// returns a store around them.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, prefs: p}, nil
}

// UserName returns the configured Thingiverse user name, empty when unset.
func (s *Store) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.UserName
}

// SetUserName persists a new user name and notifies subscribers.
func (s *Store) SetUserName(name string) error {
	s.mu.Lock()
	s.prefs.UserName = strings.TrimSpace(name)
	prefs := s.prefs
	subs := append([]func(){}, s.subs...)
	s.mu.Unlock()

	if err := Save(s.path, prefs); err != nil {
		return err
	}
	for _, fn := range subs {
		fn()
	}
	return nil
}

// Subscribe registers a callback invoked after every successful change.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
