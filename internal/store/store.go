// Package store persists small JSON records under the library directory.
// It backs custom templates, usage counts, favorites, recent projects and
// the cached usage statistics.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	apperrors "claudecast/internal/errors"
)

// Well-known record keys.
const (
	KeyCustomTemplates = "custom_templates"
	KeyUsageCounts     = "usage_counts"
	KeyFavorites       = "favorites"
	KeyRecentProjects  = "recent_projects"
	KeyStatsCache      = "stats_cache"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// envelope wraps every stored value with its write time so readers can
// apply a freshness window.
type envelope struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Value     json.RawMessage `json:"value"`
}

// Store is a file-per-key JSON store. All methods are safe for concurrent
// use within a single process.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.StorageError("create store directory", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory records are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Get reads the record for key into v. It returns false with no error when
// the key has never been written.
func (s *Store) Get(key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, ok, err := s.read(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(env.Value, v); err != nil {
		return false, apperrors.StorageError(fmt.Sprintf("decode record %q", key), err)
	}
	return true, nil
}

// GetFresh behaves like Get but treats records older than ttl as absent.
func (s *Store) GetFresh(key string, ttl time.Duration, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, ok, err := s.read(key)
	if err != nil || !ok {
		return false, err
	}
	if time.Since(env.UpdatedAt) > ttl {
		return false, nil
	}
	if err := json.Unmarshal(env.Value, v); err != nil {
		return false, apperrors.StorageError(fmt.Sprintf("decode record %q", key), err)
	}
	return true, nil
}

// Set writes v under key, replacing any previous value. The write is
// atomic: a temp file is renamed into place.
func (s *Store) Set(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateKey(key); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return apperrors.StorageError(fmt.Sprintf("encode record %q", key), err)
	}
	data, err := json.MarshalIndent(envelope{UpdatedAt: time.Now().UTC(), Value: raw}, "", "  ")
	if err != nil {
		return apperrors.StorageError(fmt.Sprintf("encode record %q", key), err)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.StorageError(fmt.Sprintf("write record %q", key), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.StorageError(fmt.Sprintf("write record %q", key), err)
	}
	return nil
}

// Delete removes the record for key. Deleting a missing key is not an
// error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return apperrors.StorageError(fmt.Sprintf("delete record %q", key), err)
	}
	return nil
}

// Keys lists every record currently on disk, sorted by filename.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.StorageError("list records", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

func (s *Store) read(key string) (*envelope, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.StorageError(fmt.Sprintf("read record %q", key), err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, apperrors.StorageError(fmt.Sprintf("decode record %q", key), err)
	}
	return &env, true, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return apperrors.ValidationError(fmt.Sprintf("invalid record key %q", key))
	}
	return nil
}
