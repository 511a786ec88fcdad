// CLAUDE:SUMMARY SQLite journal of import sessions: one row per terminal transition (committed, cancelled, error).
package importer

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one terminal import transition as recorded in the journal.
type Entry struct {
	ID            int64  `json:"id"`
	Filename      string `json:"filename"`
	Kind          Kind   `json:"kind,omitempty"`
	Status        State  `json:"status"`
	SchoolsAdded  int    `json:"schoolsAdded"`
	StudentsAdded int    `json:"studentsAdded"`
	Replaced      bool   `json:"replaced"`
	Error         string `json:"error,omitempty"`
	At            int64  `json:"at"`
}

// Journal persists the import history in SQLite.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) the SQLite database at path and ensures
// the import_journal table exists.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS import_journal (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		filename       TEXT NOT NULL,
		kind           TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL,
		schools_added  INTEGER NOT NULL DEFAULT 0,
		students_added INTEGER NOT NULL DEFAULT 0,
		replaced       INTEGER NOT NULL DEFAULT 0,
		error          TEXT NOT NULL DEFAULT '',
		at             INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create import_journal table: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the underlying SQLite connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one terminal transition to the journal.
func (j *Journal) Record(e Entry) error {
	replaced := 0
	if e.Replaced {
		replaced = 1
	}
	_, err := j.db.Exec(
		`INSERT INTO import_journal (filename, kind, status, schools_added, students_added, replaced, error, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Filename, string(e.Kind), string(e.Status), e.SchoolsAdded, e.StudentsAdded, replaced, e.Error, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// History returns the most recent entries, newest first.
func (j *Journal) History(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.Query(
		`SELECT id, filename, kind, status, schools_added, students_added, replaced, error, at
		 FROM import_journal ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var replaced int
		if err := rows.Scan(&e.ID, &e.Filename, &e.Kind, &e.Status, &e.SchoolsAdded, &e.StudentsAdded, &replaced, &e.Error, &e.At); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.Replaced = replaced == 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
