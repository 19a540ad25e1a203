package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mexan-workshop/mexanbot/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshot_CopiesExistingFiles(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()
	active := filepath.Join(dataDir, "active.json")
	writeFile(t, active, `[{"id":1}]`)
	missing := filepath.Join(dataDir, "archive.json")

	svc := New(config.BackupConfig{Dir: backupDir, Keep: 5}, []string{active, missing}, zerolog.Nop())
	svc.SetNow(func() time.Time {
		return time.Date(2024, 7, 17, 3, 30, 0, 0, time.UTC)
	})

	if err := svc.Snapshot(); err != nil {
		t.Fatal(err)
	}

	copied, err := os.ReadFile(filepath.Join(backupDir, "active-20240717-033000.json"))
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if string(copied) != `[{"id":1}]` {
		t.Errorf("snapshot content = %s", copied)
	}

	entries, _ := os.ReadDir(backupDir)
	if len(entries) != 1 {
		t.Errorf("backup dir holds %d files, want 1 (missing source skipped)", len(entries))
	}
}

func TestSnapshot_PrunesToKeep(t *testing.T) {
	dataDir := t.TempDir()
	backupDir := t.TempDir()
	active := filepath.Join(dataDir, "active.json")
	writeFile(t, active, `[]`)

	svc := New(config.BackupConfig{Dir: backupDir, Keep: 2}, []string{active}, zerolog.Nop())

	day := 0
	svc.SetNow(func() time.Time {
		return time.Date(2024, 7, 10+day, 3, 30, 0, 0, time.UTC)
	})
	for ; day < 4; day++ {
		if err := svc.Snapshot(); err != nil {
			t.Fatal(err)
		}
	}

	entries, _ := os.ReadDir(backupDir)
	if len(entries) != 2 {
		t.Fatalf("backup dir holds %d files, want 2", len(entries))
	}
	// The two newest stamps survive.
	names := []string{entries[0].Name(), entries[1].Name()}
	for _, name := range names {
		if name != "active-20240712-033000.json" && name != "active-20240713-033000.json" {
			t.Errorf("unexpected survivor %s", name)
		}
	}
}

func TestStart_Disabled(t *testing.T) {
	svc := New(config.BackupConfig{Enabled: false}, nil, zerolog.Nop())
	if err := svc.Start(); err != nil {
		t.Fatal(err)
	}
	svc.Stop()
}

func TestStart_BadSpec(t *testing.T) {
	svc := New(config.BackupConfig{Enabled: true, Spec: "not a spec"}, nil, zerolog.Nop())
	if err := svc.Start(); err == nil {
		t.Error("expected error for malformed cron spec")
	}
	svc.Stop()
}
