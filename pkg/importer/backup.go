// CLAUDE:SUMMARY Registry export: full JSON backup, students-only JSON, and an xlsx roster built with excelize.
package importer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

// BackupFilename returns the canonical backup name for a given day,
// backup_educamunicipio_2025-03-01.json.
func BackupFilename(t time.Time) string {
	return fmt.Sprintf("backup_educamunicipio_%s.json", t.Format("2006-01-02"))
}

// WriteBackup serializes the whole registry as an indented JSON backup
// object. The shape round-trips through the importer's full-backup path.
func WriteBackup(store *registry.Store) ([]byte, error) {
	doc := jsonBackup{
		Schools:  store.Schools(),
		Students: store.Students(),
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return out, nil
}

// WriteStudentsExport serializes only the student registry, the shape the
// students bare-array import path accepts.
func WriteStudentsExport(store *registry.Store) ([]byte, error) {
	out, err := json.MarshalIndent(store.Students(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal students export: %w", err)
	}
	return out, nil
}

var rosterHeader = []string{
	"Identificação", "Nome", "Data de Nascimento", "CPF", "Status",
	"Escola", "Série", "Turno", "Turma", "Transporte", "AEE",
}

// WriteRosterXLSX renders the student registry as a spreadsheet, one row
// per student, for secretariats that hand rosters back to schools in Excel.
func WriteRosterXLSX(store *registry.Store) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Alunos"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range rosterHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("roster header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("roster header: %w", err)
		}
	}

	for i, st := range store.Students() {
		transport := "Não"
		if st.TransportRequest {
			transport = "Sim"
			if st.TransportType != "" {
				transport = "Sim (" + st.TransportType + ")"
			}
		}
		aee := "Não"
		if st.SpecialNeeds {
			aee = "Sim"
		}
		values := []any{
			st.ID, st.Name, st.BirthDate, st.CPF, string(st.Status),
			st.School, st.Grade, st.Shift, st.ClassName, transport, aee,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("roster cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("roster row %d: %w", i+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write roster: %w", err)
	}
	return buf.Bytes(), nil
}
