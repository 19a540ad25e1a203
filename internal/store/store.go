// Package store owns the two on-disk repair collections (active, archive)
// plus the reference list of standard electric-bike breakdowns. Collections
// are plain JSON arrays rewritten in full on every mutation; a single mutex
// spans each load-mutate-save cycle so concurrent conversations never issue
// duplicate ids or lose updates to a stale in-memory copy.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mexan-workshop/mexanbot/internal/repair"
)

const (
	activeFile    = "active.json"
	archiveFile   = "archive.json"
	standardsFile = "e_bike_breakdowns.json"

	// SourceAll disables source filtering.
	SourceAll = "all"
)

type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// SetNow overrides the clock (for testing date-window logic).
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}

func (s *Store) activePath() string    { return filepath.Join(s.dir, activeFile) }
func (s *Store) archivePath() string   { return filepath.Join(s.dir, archiveFile) }
func (s *Store) standardsPath() string { return filepath.Join(s.dir, standardsFile) }

// today returns the current calendar date with the time of day dropped, so
// window comparisons are date-inclusive regardless of wall-clock time.
func (s *Store) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today exposes the store's notion of the current date, so callers stamping
// dates stay on the same (possibly injected) clock.
func (s *Store) Today() time.Time {
	return s.today()
}

func loadRecords(path string) ([]repair.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var recs []repair.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return recs, nil
}

// saveRecords rewrites a collection atomically: marshal, write a temp file
// in the same directory, rename over the original. A crash mid-write leaves
// the prior durable state untouched.
func saveRecords(path string, recs []repair.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if recs == nil {
		recs = []repair.Record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ListActive returns every active repair in collection order.
func (s *Store) ListActive() ([]repair.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loadRecords(s.activePath())
}

// ListArchived returns archived repairs, optionally filtered by source.
func (s *Store) ListArchived(sourceFilter string) ([]repair.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := loadRecords(s.archivePath())
	if err != nil {
		return nil, err
	}
	return filterBySource(recs, sourceFilter), nil
}

func filterBySource(recs []repair.Record, sourceFilter string) []repair.Record {
	if sourceFilter == "" || sourceFilter == SourceAll {
		return recs
	}
	out := make([]repair.Record, 0, len(recs))
	for _, r := range recs {
		if r.Source == sourceFilter {
			out = append(out, r)
		}
	}
	return out
}

// GetActive looks up an active repair by id with a linear scan.
func (s *Store) GetActive(id int) (repair.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := loadRecords(s.activePath())
	if err != nil {
		return repair.Record{}, false, err
	}
	for _, r := range recs {
		if r.ID == id {
			return r.Clone(), true, nil
		}
	}
	return repair.Record{}, false, nil
}

// NextID returns max(id) + 1 across both collections, or 1 when empty.
func (s *Store) NextID() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextIDLocked()
}

func (s *Store) nextIDLocked() (int, error) {
	active, err := loadRecords(s.activePath())
	if err != nil {
		return 0, err
	}
	archive, err := loadRecords(s.archivePath())
	if err != nil {
		return 0, err
	}
	max := 0
	for _, r := range active {
		if r.ID > max {
			max = r.ID
		}
	}
	for _, r := range archive {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1, nil
}

// Add appends a repair to the active collection. When the record carries no
// id yet (zero), one is assigned within the same critical section, so
// concurrent creations cannot collide.
func (s *Store) Add(rec repair.Record) (repair.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == 0 {
		id, err := s.nextIDLocked()
		if err != nil {
			return repair.Record{}, err
		}
		rec.ID = id
	}
	recs, err := loadRecords(s.activePath())
	if err != nil {
		return repair.Record{}, err
	}
	recs = append(recs, rec)
	if err := saveRecords(s.activePath(), recs); err != nil {
		return repair.Record{}, err
	}
	return rec, nil
}

// UpdateField applies one field mutation to an active repair. Returns false
// (and leaves the file untouched) when the id is absent.
func (s *Store) UpdateField(id int, upd repair.FieldUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateIn(s.activePath(), id, upd)
}

// UpdateArchivedField is UpdateField against the archive collection. Used
// for correcting archive dates.
func (s *Store) UpdateArchivedField(id int, upd repair.FieldUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateIn(s.archivePath(), id, upd)
}

func updateIn(path string, id int, upd repair.FieldUpdate) (bool, error) {
	recs, err := loadRecords(path)
	if err != nil {
		return false, err
	}
	for i := range recs {
		if recs[i].ID == id {
			upd.Apply(&recs[i])
			if err := saveRecords(path, recs); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// Archive moves an active repair to the archive, stamping today's date.
func (s *Store) Archive(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := loadRecords(s.activePath())
	if err != nil {
		return false, err
	}
	archive, err := loadRecords(s.archivePath())
	if err != nil {
		return false, err
	}

	idx := -1
	for i, r := range active {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	moved := active[idx]
	moved.Archived = s.today().Format(repair.DateLayout)
	archive = append(archive, moved)
	active = append(active[:idx], active[idx+1:]...)

	if err := saveRecords(s.archivePath(), archive); err != nil {
		return false, err
	}
	if err := saveRecords(s.activePath(), active); err != nil {
		return false, err
	}
	return true, nil
}

// Restore moves an archived repair back to active, clearing the archive
// date.
func (s *Store) Restore(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := loadRecords(s.activePath())
	if err != nil {
		return false, err
	}
	archive, err := loadRecords(s.archivePath())
	if err != nil {
		return false, err
	}

	idx := -1
	for i, r := range archive {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	moved := archive[idx]
	moved.Archived = ""
	active = append(active, moved)
	archive = append(archive[:idx], archive[idx+1:]...)

	if err := saveRecords(s.activePath(), active); err != nil {
		return false, err
	}
	if err := saveRecords(s.archivePath(), archive); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteArchived permanently removes an archived repair. No undo.
func (s *Store) DeleteArchived(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	archive, err := loadRecords(s.archivePath())
	if err != nil {
		return false, err
	}
	kept := archive[:0:0]
	for _, r := range archive {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(archive) {
		return false, nil
	}
	if err := saveRecords(s.archivePath(), kept); err != nil {
		return false, err
	}
	return true, nil
}

// RecentArchived returns archived repairs whose archive date falls within
// the trailing window, inclusive of the cutoff day. Records with malformed
// dates are skipped, not fatal.
func (s *Store) RecentArchived(windowDays int, sourceFilter string) ([]repair.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	archive, err := loadRecords(s.archivePath())
	if err != nil {
		return nil, err
	}
	cutoff := s.today().AddDate(0, 0, -windowDays)
	out := make([]repair.Record, 0)
	for _, r := range filterBySource(archive, sourceFilter) {
		when, err := time.Parse(repair.DateLayout, r.Archived)
		if err != nil {
			continue
		}
		if !when.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

// StandardBreakdowns loads the reference list of standard electric-bike
// breakdown descriptions. A missing file reads as an empty list.
func (s *Store) StandardBreakdowns() ([]string, error) {
	data, err := os.ReadFile(s.standardsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", standardsFile, err)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", standardsFile, err)
	}
	return list, nil
}

// SaveStandardBreakdowns writes the reference list (used by onboarding).
func (s *Store) SaveStandardBreakdowns(list []string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", standardsFile, err)
	}
	return os.WriteFile(s.standardsPath(), data, 0644)
}

// Paths returns the collection file paths, for snapshotting.
func (s *Store) Paths() []string {
	return []string{s.activePath(), s.archivePath(), s.standardsPath()}
}
