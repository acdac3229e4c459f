// Package history keeps all-time hub counters on disk so they survive
// restarts.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	totalsVersion = 1
	totalsFile    = "totals.json"
)

// Totals is the persistent aggregate of every session the hub has seen.
type Totals struct {
	Version int `json:"version"`

	Logins         uint64 `json:"logins"`
	LoginFailures  uint64 `json:"loginFailures"`
	UpdateFailures uint64 `json:"updateFailures"`
	Logouts        uint64 `json:"logouts"`

	PeakUsers   int       `json:"peakUsers"`
	PeakUsersAt time.Time `json:"peakUsersAt,omitempty"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// Add folds the counters of one run into t.
func (t *Totals) Add(run Totals) {
	t.Logins += run.Logins
	t.LoginFailures += run.LoginFailures
	t.UpdateFailures += run.UpdateFailures
	t.Logouts += run.Logouts
	if run.PeakUsers > t.PeakUsers {
		t.PeakUsers = run.PeakUsers
		t.PeakUsersAt = run.PeakUsersAt
	}
}

// Store loads and saves Totals in a directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Path() string {
	return filepath.Join(s.dir, totalsFile)
}

// Load reads the totals. A missing file yields zero totals.
func (s *Store) Load() (*Totals, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &Totals{Version: totalsVersion}, nil
		}
		return nil, fmt.Errorf("reading totals: %w", err)
	}

	var t Totals
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing totals: %w", err)
	}
	if t.Version > totalsVersion {
		return nil, fmt.Errorf("totals version %d is newer than supported %d", t.Version, totalsVersion)
	}
	return &t, nil
}

// Save writes t with a temp-file-then-rename so a crash never leaves a
// partial file behind.
func (s *Store) Save(t *Totals) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	t.Version = totalsVersion
	t.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling totals: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".totals-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming totals file: %w", err)
	}
	committed = true

	return nil
}
