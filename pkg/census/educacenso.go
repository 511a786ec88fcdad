// CLAUDE:SUMMARY Fixed-column Educacenso roster parser: metadata header block plus positional student table.
package census

import (
	"strings"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/normalize"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

// Zero-based column positions of the Educacenso student table. These indices
// are a contract with one specific export layout and must not be "fixed";
// the file has no normalized headers, so extraction is positional.
const (
	colStudentID    = 2
	colName         = 4
	colBirthDate    = 7
	colCPF          = 9
	colSpecialNeeds = 15
	colTransport    = 22
	colEnrollment   = 26
	colClassID      = 27
	colClassName    = 28
	colGradeAlt     = 30
	colGrade        = 31
	colSchedule     = 34
)

// Educacenso parses the Educacenso student-roster export: a metadata header
// block (school name, school code, municipality) followed by a
// semicolon-delimited data table.
type Educacenso struct{}

func (Educacenso) Parse(text string, schoolKnown func(string) bool) (*Result, error) {
	var (
		schoolName   string
		schoolCode   string
		municipality string
		inBody       bool
		students     []registry.Student
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !inBody {
			if isBodyHeader(line) {
				inBody = true
				continue
			}
			if v := metadataValue(line, "Escola"); v != "" && schoolName == "" {
				schoolName = v
			}
			if v := metadataValue(line, "Código"); v != "" && schoolCode == "" {
				schoolCode = normalize.Digits(v)
			} else if v := metadataValue(line, "INEP"); v != "" && schoolCode == "" {
				schoolCode = normalize.Digits(v)
			}
			if v := metadataValue(line, "Município"); v != "" && municipality == "" {
				municipality = v
			}
			continue
		}

		if st, ok := parseStudentRow(line); ok {
			students = append(students, st)
		}
	}

	if len(students) == 0 {
		return nil, ErrEmptyResult
	}

	res := &Result{Students: students}
	if schoolName != "" && !schoolKnown(schoolName) && (schoolCode == "" || !schoolKnown(schoolCode)) {
		res.School = synthesizeSchool(schoolName, schoolCode, municipality)
	}
	return res, nil
}

// isBodyHeader detects the start of the tabular block: the line carrying the
// three roster column labels together.
func isBodyHeader(line string) bool {
	return strings.Contains(line, "Identificação única") &&
		strings.Contains(line, "Nome") &&
		strings.Contains(line, "Data de nascimento")
}

// metadataValue extracts the value of a labeled metadata line: a
// semicolon-delimited line where one field carries the label and the value
// is the first non-empty field among the rest that is not itself the label.
func metadataValue(line, label string) string {
	if !strings.Contains(line, label) {
		return ""
	}
	fields := strings.Split(line, ";")
	labelSeen := false
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if strings.Contains(f, label) {
			labelSeen = true
			continue
		}
		if labelSeen {
			return f
		}
	}
	return ""
}

// parseStudentRow extracts one student from a positional data row. Rows
// missing the id or name are skipped silently; malformed rows never abort
// the batch.
func parseStudentRow(line string) (registry.Student, bool) {
	fields := strings.Split(line, ";")
	col := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	id := col(colStudentID)
	name := col(colName)
	if id == "" || name == "" {
		return registry.Student{}, false
	}

	grade := col(colGrade)
	if grade == "" {
		grade = col(colGradeAlt)
	}

	st := registry.Student{
		ID:           id,
		EnrollmentID: col(colEnrollment),
		Name:         strings.ToUpper(name),
		BirthDate:    normalize.FormatDate(col(colBirthDate)),
		CPF:          normalize.Digits(col(colCPF)),
		Status:       registry.StatusMatriculado,
		Grade:        grade,
		ClassID:      col(colClassID),
		ClassName:    col(colClassName),
		Shift:        inferShift(col(colSchedule), col(colClassName)),
	}

	if marker := col(colSpecialNeeds); marker != "" && marker != "--" {
		st.SpecialNeeds = true
	}
	if strings.EqualFold(col(colTransport), "sim") {
		st.TransportRequest = true
		st.TransportType = registry.DefaultTransportType
	}
	return st, true
}

// inferShift derives the shift from the schedule string or class name.
// Afternoon classes start at 13:00; a morning schedule mentions 08:00
// without the 17:00 end of a full-day stay.
func inferShift(schedule, className string) string {
	text := strings.ToUpper(schedule + " " + className)
	switch {
	case strings.Contains(text, "13:00") || strings.Contains(text, "VESPERTINO"):
		return registry.ShiftVespertino
	case (strings.Contains(text, "08:00") && !strings.Contains(text, "17:00")) ||
		strings.Contains(text, "MATUTINO"):
		return registry.ShiftMatutino
	default:
		return registry.ShiftIntegral
	}
}

// synthesizeSchool creates the School record for a census import that
// references a school the registry does not yet know.
func synthesizeSchool(name, code, municipality string) *registry.School {
	address := "Município não informado - BA"
	if municipality != "" {
		address = municipality + " - BA"
	}
	return &registry.School{
		ID:             "census_" + schoolID(name, code),
		INEP:           code,
		Name:           name,
		Address:        address,
		Types:          []registry.Stage{registry.StageInfantil, registry.StageFundamental1},
		Image:          registry.DefaultImage,
		Rating:         registry.DefaultRating,
		AvailableSlots: 0,
		Lat:            registry.FallbackLat,
		Lng:            registry.FallbackLng,
	}
}

// schoolID derives a stable identifier from the census code when present,
// else from the normalized name.
func schoolID(name, code string) string {
	if code != "" {
		return code
	}
	return normalize.Key(name)
}
