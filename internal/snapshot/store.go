// Package snapshot persists the whole ledger state as one JSON blob that is
// rewritten after every mutation.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tinytelemetry/msglog/internal/ledger"
	"github.com/tinytelemetry/msglog/internal/model"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// ErrCorrupt is returned by Load when the snapshot exists but cannot be decoded.
var ErrCorrupt = errors.New("snapshot: corrupt state file")

// Store reads and atomically replaces the state file at path.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open prepares a store at path, creating its parent directory.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("snapshot: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("snapshot: mkdir: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Load decodes the stored state. It reports false when no snapshot exists.
func (s *Store) Load() (*ledger.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("snapshot: read: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, false, nil
	}

	st := ledger.New(model.DefaultAppConfig())
	if err := json.Unmarshal(data, st); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return st, true, nil
}

// Save replaces the state file with st.
func (s *Store) Save(st *ledger.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.path, data)
}

// Quarantine moves an unreadable state file aside so a fresh state can be
// written, returning the new location.
func (s *Store) Quarantine() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.path + ".corrupt"
	if err := os.Rename(s.path, dst); err != nil {
		return "", fmt.Errorf("snapshot: quarantine: %w", err)
	}
	return dst, nil
}

func writeAtomic(path string, payload []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return fmt.Errorf("snapshot: open tmp: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: write tmp: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: sync tmp: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: close tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}
