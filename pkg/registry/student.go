// CLAUDE:SUMMARY Student registry entity, enrollment status and shift labels, free-text status derivation.
package registry

import "strings"

// Status is the enrollment status of a registry student.
type Status string

const (
	StatusMatriculado Status = "Matriculado"
	StatusPendente    Status = "Pendente"
	StatusEmAnalise   Status = "Em Análise"
)

// Shift labels for the daily session a student attends.
const (
	ShiftMatutino   = "Matutino"
	ShiftVespertino = "Vespertino"
	ShiftIntegral   = "Integral"
)

// SchoolUnassigned is the sentinel a student carries when no school has been
// allocated yet. Mass reallocation targets it alongside the empty string.
const SchoolUnassigned = "Não alocada"

// DefaultTransportType is attached when a census row requests transport
// without detailing the vehicle.
const DefaultTransportType = "Vans/Kombis"

// Student is one row of the municipal student registry. School is a loose
// reference by display name, not by School.ID (deliberate denormalization
// carried over from the source spreadsheets).
type Student struct {
	ID               string `json:"id" yaml:"id"`
	EnrollmentID     string `json:"enrollmentId,omitempty" yaml:"enrollment_id,omitempty"`
	Name             string `json:"name" yaml:"name"`
	BirthDate        string `json:"birthDate" yaml:"birth_date"`
	CPF              string `json:"cpf" yaml:"cpf"`
	Status           Status `json:"status" yaml:"status"`
	School           string `json:"school,omitempty" yaml:"school,omitempty"`
	Grade            string `json:"grade,omitempty" yaml:"grade,omitempty"`
	Shift            string `json:"shift,omitempty" yaml:"shift,omitempty"`
	ClassName        string `json:"className,omitempty" yaml:"class_name,omitempty"`
	ClassID          string `json:"classId,omitempty" yaml:"class_id,omitempty"`
	TransportRequest bool   `json:"transportRequest" yaml:"transport_request"`
	TransportType    string `json:"transportType,omitempty" yaml:"transport_type,omitempty"`
	SpecialNeeds     bool   `json:"specialNeeds" yaml:"special_needs"`
}

// Unassigned reports whether the student has no school allocated.
func (s *Student) Unassigned() bool {
	return s.School == "" || s.School == SchoolUnassigned
}

// StatusFromText derives an enrollment status from a free-text field.
// Anything unrecognized counts as enrolled.
func StatusFromText(raw string) Status {
	text := strings.ToLower(raw)
	switch {
	case strings.Contains(text, "pendente"):
		return StatusPendente
	case strings.Contains(text, "analise"), strings.Contains(text, "análise"):
		return StatusEmAnalise
	default:
		return StatusMatriculado
	}
}

// YesMarker reports whether a free-text field is a Brazilian spreadsheet
// "yes" ("Sim", "sim", "SIM ...").
func YesMarker(raw string) bool {
	return strings.Contains(strings.ToLower(raw), "sim")
}
