// Package backup snapshots the JSON data files on a cron schedule. The
// store rewrites whole files, so a copy taken between mutations is always a
// consistent collection.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mexan-workshop/mexanbot/internal/config"
)

const stampLayout = "20060102-150405"

type Service struct {
	cfg   config.BackupConfig
	paths []string
	cron  *cron.Cron
	now   func() time.Time
	log   zerolog.Logger
}

// New builds a snapshot service for the given data files.
func New(cfg config.BackupConfig, paths []string, log zerolog.Logger) *Service {
	return &Service{
		cfg:   cfg,
		paths: paths,
		now:   time.Now,
		log:   log.With().Str("component", "backup").Logger(),
	}
}

// SetNow overrides the clock (for testing)
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// Start schedules the nightly snapshot. No-op when backups are disabled.
func (s *Service) Start() error {
	if !s.cfg.Enabled {
		s.log.Info().Msg("backups disabled")
		return nil
	}
	s.cron = cron.New(cron.WithSeconds())
	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		if err := s.Snapshot(); err != nil {
			s.log.Error().Err(err).Msg("snapshot failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule backup %q: %w", s.cfg.Spec, err)
	}
	s.cron.Start()
	s.log.Info().Str("spec", s.cfg.Spec).Msg("backups scheduled")
	return nil
}

func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Snapshot copies every existing data file into the backup dir with a
// timestamp suffix, then prunes old copies down to the retention count.
func (s *Service) Snapshot() error {
	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	stamp := s.now().Format(stampLayout)

	for _, path := range s.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		name := snapshotName(filepath.Base(path), stamp)
		if err := os.WriteFile(filepath.Join(s.cfg.Dir, name), data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := s.prune(filepath.Base(path)); err != nil {
			return err
		}
	}
	s.log.Info().Str("stamp", stamp).Msg("snapshot written")
	return nil
}

// snapshotName turns "active.json" into "active-20240717-033000.json".
func snapshotName(base, stamp string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + stamp + ext
}

// prune keeps the newest cfg.Keep snapshots of one source file. Timestamped
// names sort chronologically, so a lexical sort is enough.
func (s *Service) prune(base string) error {
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "-"

	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read backup dir: %w", err)
	}
	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ext) {
			matches = append(matches, name)
		}
	}
	if len(matches) <= s.cfg.Keep {
		return nil
	}
	sort.Strings(matches)
	for _, name := range matches[:len(matches)-s.cfg.Keep] {
		if err := os.Remove(filepath.Join(s.cfg.Dir, name)); err != nil {
			return fmt.Errorf("prune %s: %w", name, err)
		}
	}
	return nil
}
