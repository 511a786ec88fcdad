package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/kvstore"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/normalize"
)

// Persistence keys. The web front end historically kept the collections
// under these names in browser storage; the server keeps them stable so
// exported backups stay interchangeable.
const (
	keySchools  = "educa_schools"
	keyStudents = "educa_students"
)

// Store owns the Schools and Students collections. All mutation goes through
// it; after every mutation both collections are written synchronously to the
// injected key-value store. There is no concurrent writer in the system, but
// reads may come from request goroutines, hence the RWMutex.
type Store struct {
	mu       sync.RWMutex
	schools  []School
	students []Student
	kv       kvstore.KV
	logger   *slog.Logger
}

// NewStore creates a store backed by kv. Collections are loaded from kv when
// present, otherwise from the embedded seed dataset.
func NewStore(kv kvstore.KV, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: kv, logger: logger}

	seed, err := loadSeed()
	if err != nil {
		return nil, err
	}
	s.schools = seed.Schools
	s.students = seed.Students

	if raw, ok, err := kv.Get(keySchools); err != nil {
		return nil, fmt.Errorf("load schools: %w", err)
	} else if ok {
		var schools []School
		if err := json.Unmarshal([]byte(raw), &schools); err != nil {
			logger.Warn("saved schools unreadable, using seed dataset", "error", err)
		} else {
			s.schools = schools
		}
	}

	if raw, ok, err := kv.Get(keyStudents); err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	} else if ok {
		var students []Student
		if err := json.Unmarshal([]byte(raw), &students); err != nil {
			logger.Warn("saved students unreadable, using seed dataset", "error", err)
		} else {
			s.students = students
		}
	}

	return s, nil
}

// persistLocked writes both collections to the key-value store. Called with
// the write lock held.
func (s *Store) persistLocked() {
	schools, err := json.Marshal(s.schools)
	if err == nil {
		err = s.kv.Set(keySchools, string(schools))
	}
	if err != nil {
		s.logger.Error("persist schools", "error", err)
	}

	students, err := json.Marshal(s.students)
	if err == nil {
		err = s.kv.Set(keyStudents, string(students))
	}
	if err != nil {
		s.logger.Error("persist students", "error", err)
	}
}

// Schools returns a copy of the schools collection.
func (s *Store) Schools() []School {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]School, len(s.schools))
	copy(out, s.schools)
	return out
}

// Students returns a copy of the students collection.
func (s *Store) Students() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Student, len(s.students))
	copy(out, s.students)
	return out
}

// Counts returns the sizes of both collections.
func (s *Store) Counts() (schools, students int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.schools), len(s.students)
}

// AppendSchool appends a single school (manual form path).
func (s *Store) AppendSchool(school School) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schools = append(s.schools, school)
	s.persistLocked()
}

// AppendStudent appends a single student (manual enrollment path).
func (s *Store) AppendStudent(student Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = append(s.students, student)
	s.persistLocked()
}

// MergeSchools appends every school whose ID is not already present.
// Existing records are never overwritten. Returns the number added.
func (s *Store) MergeSchools(batch []School) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := s.mergeSchoolsLocked(batch)
	if added > 0 {
		s.persistLocked()
	}
	return added
}

// MergeStudents appends every student whose ID is not already present.
// Existing records are never overwritten. Returns the number added.
func (s *Store) MergeStudents(batch []Student) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := s.mergeStudentsLocked(batch)
	if added > 0 {
		s.persistLocked()
	}
	return added
}

// Merge applies a school batch and a student batch as one operation: both
// collections change under a single lock hold with a single persist, so a
// bundle that carries a school plus its students lands whole.
func (s *Store) Merge(schools []School, students []Student) (schoolsAdded, studentsAdded int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schoolsAdded = s.mergeSchoolsLocked(schools)
	studentsAdded = s.mergeStudentsLocked(students)
	if schoolsAdded > 0 || studentsAdded > 0 {
		s.persistLocked()
	}
	return schoolsAdded, studentsAdded
}

func (s *Store) mergeSchoolsLocked(batch []School) int {
	existing := make(map[string]struct{}, len(s.schools))
	for _, sc := range s.schools {
		existing[sc.ID] = struct{}{}
	}
	added := 0
	for _, sc := range batch {
		if _, dup := existing[sc.ID]; dup {
			continue
		}
		existing[sc.ID] = struct{}{}
		s.schools = append(s.schools, sc)
		added++
	}
	return added
}

func (s *Store) mergeStudentsLocked(batch []Student) int {
	existing := make(map[string]struct{}, len(s.students))
	for _, st := range s.students {
		existing[st.ID] = struct{}{}
	}
	added := 0
	for _, st := range batch {
		if _, dup := existing[st.ID]; dup {
			continue
		}
		existing[st.ID] = struct{}{}
		s.students = append(s.students, st)
		added++
	}
	return added
}

// ReplaceAll replaces both collections wholesale. Used by full-backup
// restore, which is trusted as authoritative: no id-filtering. A nil slice
// leaves the corresponding collection untouched.
func (s *Store) ReplaceAll(schools []School, students []Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if schools != nil {
		s.schools = schools
	}
	if students != nil {
		s.students = students
	}
	s.persistLocked()
}

// Reset restores the embedded default dataset and clears persisted state.
func (s *Store) Reset() error {
	seed, err := loadSeed()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schools = seed.Schools
	s.students = seed.Students
	if err := s.kv.Remove(keySchools); err != nil {
		s.logger.Error("reset schools key", "error", err)
	}
	if err := s.kv.Remove(keyStudents); err != nil {
		s.logger.Error("reset students key", "error", err)
	}
	return nil
}

// ReallocateUnassigned assigns every student currently without a school
// (empty or the unassigned sentinel) to schoolName and marks them enrolled.
// Returns the number of students updated. This is an administrative bulk
// update over existing rows, distinct from import-time merge.
func (s *Store) ReallocateUnassigned(schoolName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for i := range s.students {
		if !s.students[i].Unassigned() {
			continue
		}
		s.students[i].School = schoolName
		s.students[i].Status = StatusMatriculado
		updated++
	}
	if updated > 0 {
		s.persistLocked()
	}
	return updated
}

// FindSchool locates a school by display name or INEP code (case- and
// accent-insensitive on the name). Returns nil when not found.
func (s *Store) FindSchool(nameOrCode string) *School {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := normalize.Key(nameOrCode)
	for i := range s.schools {
		if nameOrCode != "" && s.schools[i].INEP == nameOrCode {
			sc := s.schools[i]
			return &sc
		}
		if key != "" && normalize.Key(s.schools[i].Name) == key {
			sc := s.schools[i]
			return &sc
		}
	}
	return nil
}

// SearchStudents finds students whose name contains the query or whose CPF
// matches it after punctuation stripping (the status-lookup page accepts
// either).
func (s *Store) SearchStudents(query string) []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nameKey := normalize.Key(query)
	cpfDigits := normalize.Digits(query)

	var out []Student
	for _, st := range s.students {
		if cpfDigits != "" && st.CPF != "" && st.CPF == cpfDigits {
			out = append(out, st)
			continue
		}
		if nameKey != "" && strings.Contains(normalize.Key(st.Name), nameKey) {
			out = append(out, st)
		}
	}
	return out
}

// Stats are the dashboard aggregates.
type Stats struct {
	Schools     int `json:"schools"`
	Students    int `json:"students"`
	Matriculado int `json:"matriculado"`
	Pendente    int `json:"pendente"`
	EmAnalise   int `json:"em_analise"`
	Unassigned  int `json:"unassigned"`
	Transport   int `json:"transport"`
	Special     int `json:"special_needs"`
}

// Aggregate computes the dashboard counters in one pass.
func (s *Store) Aggregate() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Schools: len(s.schools), Students: len(s.students)}
	for _, stu := range s.students {
		switch stu.Status {
		case StatusMatriculado:
			st.Matriculado++
		case StatusPendente:
			st.Pendente++
		case StatusEmAnalise:
			st.EmAnalise++
		}
		if stu.Unassigned() {
			st.Unassigned++
		}
		if stu.TransportRequest {
			st.Transport++
		}
		if stu.SpecialNeeds {
			st.Special++
		}
	}
	return st
}
