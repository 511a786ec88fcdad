// CLAUDE:SUMMARY Row and JSON-payload classification: decides School vs Student from header signals and object keys.
package importer

import (
	"encoding/json"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/tabular"
)

// RowKind tags a classified row.
type RowKind int

const (
	Unclassified RowKind = iota
	SchoolCandidate
	StudentCandidate
)

// School signals win over student signals: a spreadsheet carrying
// coordinates or capacity is a school roster even when it also has a name
// column. "nome" alone defaults to Student only when no stronger signal
// fires.
var (
	schoolSignals  = []string{"lat", "latitude", "capacidade", "vagas", "endereco", "address", "tipo"}
	studentSignals = []string{"nascimento", "datadenascimento", "cpf", "turma", "aluno", "nome"}
)

// ClassifyRow decides what entity a row mapping represents by keyword-
// matching its normalized header keys.
func ClassifyRow(row tabular.Row) RowKind {
	for _, sig := range schoolSignals {
		if _, ok := row[sig]; ok {
			return SchoolCandidate
		}
	}
	for _, sig := range studentSignals {
		if _, ok := row[sig]; ok {
			return StudentCandidate
		}
	}
	return Unclassified
}

// ClassifyRows classifies a parsed CSV batch. All rows share the header
// line, so the first row decides.
func ClassifyRows(rows []tabular.Row) RowKind {
	if len(rows) == 0 {
		return Unclassified
	}
	return ClassifyRow(rows[0])
}

// jsonBackup is the full-backup document shape.
type jsonBackup struct {
	Schools  []registry.School  `json:"schools"`
	Students []registry.Student `json:"students"`
}

// classifyJSON decodes a JSON payload into a preview. Accepted shapes:
// a full backup object {schools, students}, or a bare array of School- or
// Student-shaped objects (classified by the first element's keys:
// availableSlots/lat mean schools, cpf/name/nome mean students).
func classifyJSON(content []byte) (*Preview, error) {
	// Full backup object.
	var backup jsonBackup
	if err := json.Unmarshal(content, &backup); err == nil && (backup.Schools != nil || backup.Students != nil) {
		return &Preview{Kind: KindBackup, Schools: backup.Schools, Students: backup.Students}, nil
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(content, &rawItems); err != nil {
		if json.Valid(content) {
			return nil, ErrNoRecognizableSchema
		}
		return nil, ErrReadFailure
	}
	if len(rawItems) == 0 {
		return nil, ErrNoRecognizableSchema
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal(rawItems[0], &first); err != nil {
		return nil, ErrNoRecognizableSchema
	}

	hasKey := func(keys ...string) bool {
		for _, k := range keys {
			if _, ok := first[k]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case hasKey("availableSlots", "lat"):
		var schools []registry.School
		if err := json.Unmarshal(content, &schools); err != nil {
			return nil, ErrReadFailure
		}
		p := &Preview{Kind: KindSchools}
		for i := range schools {
			p.Warnings = append(p.Warnings, applySchoolDefaults(&schools[i], i)...)
		}
		p.Schools = schools
		return p, nil

	case hasKey("cpf", "name", "nome"):
		var students []registry.Student
		if err := json.Unmarshal(content, &students); err != nil {
			return nil, ErrReadFailure
		}
		p := &Preview{Kind: KindStudents}
		for i := range students {
			p.Warnings = append(p.Warnings, applyStudentDefaults(&students[i], i)...)
		}
		p.Students = students
		return p, nil
	}

	return nil, ErrNoRecognizableSchema
}
