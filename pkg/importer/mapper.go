// CLAUDE:SUMMARY Alias-tolerant field mapping from raw rows onto canonical School/Student records with inspectable defaults.
package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/normalize"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/tabular"
)

// Canonical default applied to an unnamed imported school.
const defaultSchoolName = "Escola Importada"

// pick returns the first non-empty value among the ordered aliases.
func pick(row tabular.Row, aliases ...string) string {
	for _, a := range aliases {
		if v, ok := row[a]; ok && v != "" {
			return v
		}
	}
	return ""
}

// truthy accepts the markers messy spreadsheets and JSON use for "yes".
func truthy(v string) bool {
	v = strings.TrimSpace(v)
	return v == "true" || v == "1" || registry.YesMarker(v)
}

// MapSchoolRow maps one raw row onto a School. It never fails: every
// canonical field has a deterministic default, and each default applied is
// recorded as a preview warning. Silent tolerance of messy sources is a
// product decision, not an accident — do not tighten it into validation.
func MapSchoolRow(row tabular.Row, idx int) (registry.School, []string) {
	var warnings []string

	sc := registry.School{
		ID:      pick(row, "id", "codigo", "codigoescola"),
		INEP:    pick(row, "inep", "codigoinep"),
		Name:    pick(row, "name", "nome", "escola", "unidade"),
		Address: pick(row, "address", "endereco", "localizacao"),
		Image:   pick(row, "image", "imagem", "foto"),
	}

	if sc.ID == "" {
		sc.ID = "imported_" + uuid.NewString()
	}
	if sc.Name == "" {
		sc.Name = defaultSchoolName
		warnings = append(warnings, fmt.Sprintf("linha %d: escola sem nome, usando %q", idx+1, defaultSchoolName))
	}
	if sc.Address == "" {
		sc.Address = "Endereço não informado"
	}
	if sc.Image == "" {
		sc.Image = registry.DefaultImage
	}

	sc.Types = registry.StagesFromText(pick(row, "tipo", "tipos", "types", "modalidade"))

	if raw := pick(row, "rating", "avaliacao", "nota"); raw != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
			sc.Rating = v
		}
	}
	if sc.Rating == 0 {
		sc.Rating = registry.DefaultRating
	}

	if raw := pick(row, "capacidade", "vagas", "availableslots"); raw != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			sc.AvailableSlots = v
		}
	}

	sc.Lat = normalize.ParseCoordinate(pick(row, "lat", "latitude"))
	sc.Lng = normalize.ParseCoordinate(pick(row, "lng", "longitude", "long"))
	if sc.Lat == 0 || sc.Lng == 0 {
		sc.Lat = registry.FallbackLat
		sc.Lng = registry.FallbackLng
		warnings = append(warnings, fmt.Sprintf("linha %d: coordenadas ausentes, usando ponto central do município", idx+1))
	}

	return sc, warnings
}

// MapStudentRow maps one raw row onto a Student, with the same
// never-fails/default-everything contract as MapSchoolRow. CPF validity is
// not enforced here: bulk imports keep whatever digits the source carried.
func MapStudentRow(row tabular.Row, idx int) (registry.Student, []string) {
	var warnings []string

	st := registry.Student{
		ID:           pick(row, "id", "identificacao", "identificacaounica", "numeromatricula"),
		EnrollmentID: pick(row, "enrollmentid", "matricula", "codigomatricula", "protocolo"),
		Name:         strings.ToUpper(pick(row, "nome", "aluno", "name", "nomedoaluno")),
		BirthDate:    normalize.FormatDate(pick(row, "nascimento", "datadenascimento", "datanascimento", "birthdate")),
		CPF:          normalize.Digits(pick(row, "cpf")),
		School:       pick(row, "escola", "unidade", "school"),
		Grade:        pick(row, "serie", "etapa", "ano", "grade"),
		Shift:        pick(row, "turno", "shift"),
		ClassName:    pick(row, "turma", "nomedaturma", "classname"),
		ClassID:      pick(row, "codigodaturma", "codturma", "classid"),
	}

	if st.ID == "" {
		st.ID = "imported_" + uuid.NewString()
	}
	if st.Name == "" {
		st.Name = "ALUNO SEM NOME"
		warnings = append(warnings, fmt.Sprintf("linha %d: aluno sem nome", idx+1))
	}

	st.Status = registry.StatusFromText(pick(row, "status", "situacao"))
	st.TransportRequest = truthy(pick(row, "transporte", "transporteescolar", "transportrequest"))
	st.TransportType = pick(row, "tipotransporte", "transporttype")
	st.SpecialNeeds = truthy(pick(row, "aee", "necessidadesespeciais", "atendimentoespecializado", "specialneeds"))

	return st, warnings
}

// MapRows maps a whole classified batch, concatenating warnings.
func MapRows(rows []tabular.Row, kind RowKind) ([]registry.School, []registry.Student, []string) {
	var (
		schools  []registry.School
		students []registry.Student
		warnings []string
	)
	for i, row := range rows {
		switch kind {
		case SchoolCandidate:
			sc, w := MapSchoolRow(row, i)
			schools = append(schools, sc)
			warnings = append(warnings, w...)
		case StudentCandidate:
			st, w := MapStudentRow(row, i)
			students = append(students, st)
			warnings = append(warnings, w...)
		}
	}
	return schools, students, warnings
}

// applySchoolDefaults fills holes in a School decoded from a trusted JSON
// array so the registry invariants (non-empty id and types, non-null
// coordinate) hold.
func applySchoolDefaults(sc *registry.School, idx int) []string {
	var warnings []string
	if sc.ID == "" {
		sc.ID = "imported_" + uuid.NewString()
	}
	if sc.Name == "" {
		sc.Name = defaultSchoolName
		warnings = append(warnings, fmt.Sprintf("registro %d: escola sem nome, usando %q", idx+1, defaultSchoolName))
	}
	if len(sc.Types) == 0 {
		sc.Types = []registry.Stage{registry.StageInfantil}
	}
	if sc.Image == "" {
		sc.Image = registry.DefaultImage
	}
	if sc.Rating == 0 {
		sc.Rating = registry.DefaultRating
	}
	if sc.Lat == 0 || sc.Lng == 0 {
		sc.Lat = registry.FallbackLat
		sc.Lng = registry.FallbackLng
		warnings = append(warnings, fmt.Sprintf("registro %d: coordenadas ausentes, usando ponto central do município", idx+1))
	}
	return warnings
}

// applyStudentDefaults fills holes in a Student decoded from a trusted JSON
// array.
func applyStudentDefaults(st *registry.Student, idx int) []string {
	var warnings []string
	if st.ID == "" {
		st.ID = "imported_" + uuid.NewString()
	}
	st.Name = strings.ToUpper(st.Name)
	if st.Name == "" {
		st.Name = "ALUNO SEM NOME"
		warnings = append(warnings, fmt.Sprintf("registro %d: aluno sem nome", idx+1))
	}
	st.BirthDate = normalize.FormatDate(st.BirthDate)
	st.CPF = normalize.Digits(st.CPF)
	if st.Status == "" {
		st.Status = registry.StatusMatriculado
	}
	return warnings
}
