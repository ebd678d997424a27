// Package config provides the engine's persistent configuration: a
// nested YAML document addressed by dotted keys, plus first-match
// discovery of the config file location.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	projectConfigName = "inspectflow.yaml"
	homeConfigDir     = ".inspectflow"
	homeConfigName    = "config.yaml"
)

// DiscoverPath resolves the config file location with first-match
// semantics: an explicit path (which must exist), then
// ./inspectflow.yaml, then ~/.inspectflow/config.yaml. The boolean
// reports whether any candidate was found.
func DiscoverPath(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve user home: %w", err)
	}
	return DiscoverPathFrom(explicitPath, cwd, homeDir)
}

// DiscoverPathFrom is a testable variant of DiscoverPath.
func DiscoverPathFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	candidates := make([]string, 0, 3)
	if clean := strings.TrimSpace(explicitPath); clean != "" {
		candidates = append(candidates, filepath.Clean(clean))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		candidates = append(candidates, filepath.Join(homeDir, homeConfigDir, homeConfigName))
	}

	for i, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			// An explicit path that does not exist is an error.
			if i == 0 && strings.TrimSpace(explicitPath) != "" {
				return "", false, fmt.Errorf("config file %q not found", candidate)
			}
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("checking config path %q: %w", candidate, err)
		}
	}
	return "", false, nil
}

// Store is a nested configuration document addressed by dotted keys
// ("camera.exposure", "run.interval_ms"). Reads and writes are
// goroutine-safe; Save writes the whole document back atomically via a
// temp file rename.
type Store struct {
	mu   sync.RWMutex
	path string
	doc  map[string]any
}

// New creates an empty in-memory store. An empty path disables Save
// and Reload.
func New(path string) *Store {
	return &Store{path: path, doc: make(map[string]any)}
}

// Load reads the YAML document at path into a new store. A missing
// file yields an empty store bound to the path.
func Load(path string) (*Store, error) {
	s := New(path)
	if err := s.Reload(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

// Path returns the bound file path.
func (s *Store) Path() string { return s.path }

// Reload replaces the document with the file's current contents.
func (s *Store) Reload() error {
	if s.path == "" {
		return errors.New("config: store has no path")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading config %q: %w", s.path, err)
	}
	doc := make(map[string]any)
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config %q: %w", s.path, err)
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

// Save writes the document back to the bound path, creating parent
// directories as needed.
func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("config: store has no path")
	}
	s.mu.RLock()
	data, err := yaml.Marshal(s.doc)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing config %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing config %q: %w", s.path, err)
	}
	return nil
}

// Get returns the value at a dotted key, or def when the key or any
// intermediate map is absent.
func (s *Store) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node := any(s.doc)
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(node)
		if !ok {
			return def
		}
		node, ok = m[part]
		if !ok {
			return def
		}
	}
	return node
}

// GetString returns the value at key as a string, or def.
func (s *Store) GetString(key, def string) string {
	if v, ok := s.Get(key, nil).(string); ok {
		return v
	}
	return def
}

// GetInt returns the value at key as an int, or def.
func (s *Store) GetInt(key string, def int) int {
	switch v := s.Get(key, nil).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// GetFloat returns the value at key as a float64, or def.
func (s *Store) GetFloat(key string, def float64) float64 {
	switch v := s.Get(key, nil).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// GetBool returns the value at key as a bool, or def.
func (s *Store) GetBool(key string, def bool) bool {
	if v, ok := s.Get(key, nil).(bool); ok {
		return v
	}
	return def
}

// Set writes value at a dotted key, creating intermediate maps. A
// path segment that exists as a non-map value is replaced by a map.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(key, ".")
	node := s.doc
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}

// Delete removes the value at a dotted key and reports whether it was
// present. Intermediate maps are left in place.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(key, ".")
	node := s.doc
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			return false
		}
		node = child
	}
	last := parts[len(parts)-1]
	if _, ok := node[last]; !ok {
		return false
	}
	delete(node, last)
	return true
}

// Section returns a copy of the map at a dotted key, or an empty map.
func (s *Store) Section(key string) map[string]any {
	m, ok := asMap(s.Get(key, nil))
	if !ok {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// asMap normalizes the two map shapes yaml.v3 can produce.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}
