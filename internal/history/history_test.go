package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_Path(t *testing.T) {
	s := NewStore("/tmp/test-dir")
	want := "/tmp/test-dir/totals.json"
	if got := s.Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore(t.TempDir())

	tot, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tot.Version != totalsVersion || tot.Logins != 0 {
		t.Errorf("Load() = %+v", tot)
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewStore(dir)

	peakAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := &Totals{Logins: 42, LoginFailures: 3, UpdateFailures: 1, Logouts: 40, PeakUsers: 17, PeakUsersAt: peakAt}
	if err := s.Save(in); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if out.Logins != 42 || out.LoginFailures != 3 || out.UpdateFailures != 1 || out.Logouts != 40 {
		t.Errorf("counters = %+v", out)
	}
	if out.PeakUsers != 17 || !out.PeakUsersAt.Equal(peakAt) {
		t.Errorf("peak = %d at %v", out.PeakUsers, out.PeakUsersAt)
	}
	if out.LastUpdated.IsZero() {
		t.Error("LastUpdated not set")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the totals file, found %d entries", len(entries))
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestStore_LoadNewerVersion(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := os.WriteFile(s.Path(), []byte(`{"version": 99}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); err == nil {
		t.Error("expected error for newer version")
	}
}

func TestTotals_Add(t *testing.T) {
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	tot := Totals{Logins: 10, Logouts: 9, PeakUsers: 5, PeakUsersAt: earlier}
	tot.Add(Totals{Logins: 3, LoginFailures: 2, Logouts: 3, PeakUsers: 4, PeakUsersAt: later})

	if tot.Logins != 13 || tot.LoginFailures != 2 || tot.Logouts != 12 {
		t.Errorf("counters = %+v", tot)
	}
	if tot.PeakUsers != 5 || !tot.PeakUsersAt.Equal(earlier) {
		t.Errorf("peak = %d at %v, want 5 at %v", tot.PeakUsers, tot.PeakUsersAt, earlier)
	}

	tot.Add(Totals{PeakUsers: 8, PeakUsersAt: later})
	if tot.PeakUsers != 8 || !tot.PeakUsersAt.Equal(later) {
		t.Errorf("peak = %d at %v, want 8 at %v", tot.PeakUsers, tot.PeakUsersAt, later)
	}
}
