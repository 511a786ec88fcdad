package importer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/kvstore"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

func TestBackupFilename(t *testing.T) {
	got := BackupFilename(time.Date(2025, 3, 1, 15, 4, 5, 0, time.UTC))
	if got != "backup_educamunicipio_2025-03-01.json" {
		t.Fatalf("BackupFilename = %q", got)
	}
}

func TestBackupRoundTripsThroughImport(t *testing.T) {
	store, err := registry.NewStore(kvstore.NewMemory(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	schoolsBefore, studentsBefore := store.Counts()

	out, err := WriteBackup(store)
	if err != nil {
		t.Fatalf("WriteBackup: %v", err)
	}
	if !strings.Contains(string(out), "\"schools\"") || !strings.Contains(string(out), "\"students\"") {
		t.Fatal("backup must carry both collections")
	}

	// Restoring the backup into a fresh registry reproduces the counts.
	fresh, err := registry.NewStore(kvstore.NewMemory(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	c := NewController(fresh, nil, nil)
	if _, err := c.Read("backup_educamunicipio_2025-03-01.json", out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, err := c.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	schools, students := fresh.Counts()
	if schools != schoolsBefore || students != studentsBefore {
		t.Fatalf("Counts = (%d, %d), want (%d, %d)", schools, students, schoolsBefore, studentsBefore)
	}
}

func TestWriteStudentsExport(t *testing.T) {
	store, err := registry.NewStore(kvstore.NewMemory(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	out, err := WriteStudentsExport(store)
	if err != nil {
		t.Fatalf("WriteStudentsExport: %v", err)
	}
	var students []registry.Student
	if err := json.Unmarshal(out, &students); err != nil {
		t.Fatalf("export is not a student array: %v", err)
	}
	if len(students) == 0 {
		t.Fatal("export must carry the seed students")
	}
}

func TestWriteRosterXLSX(t *testing.T) {
	store, err := registry.NewStore(kvstore.NewMemory(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	out, err := WriteRosterXLSX(store)
	if err != nil {
		t.Fatalf("WriteRosterXLSX: %v", err)
	}
	// xlsx is a zip container.
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Fatal("roster is not a valid xlsx payload")
	}
}
