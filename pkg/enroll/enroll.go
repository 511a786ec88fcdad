// CLAUDE:SUMMARY Manual enrollment requests: validated form, protocol number, pending-analysis student creation, school suggestions.
package enroll

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/normalize"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

// PendingDefinition marks grade and shift of a request that the secretariat
// has not yet allocated.
const PendingDefinition = "Definição Pendente"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// "cpf" checks the two mod-11 verification digits; empty passes via
	// omitempty so guardians without the document can still enroll.
	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return normalize.ValidCPF(fl.Field().String())
	})
	return v
}

// Form is a manual enrollment request as submitted by a guardian.
type Form struct {
	StudentName      string `json:"studentName" validate:"required,min=3"`
	BirthDate        string `json:"birthDate" validate:"required"`
	CPF              string `json:"cpf" validate:"omitempty,cpf"`
	GuardianName     string `json:"guardianName" validate:"required,min=3"`
	GuardianCPF      string `json:"guardianCpf" validate:"required,cpf"`
	Address          string `json:"address" validate:"required"`
	School           string `json:"school" validate:"omitempty"`
	TransportRequest bool   `json:"transportRequest"`
	SpecialNeeds     bool   `json:"specialNeeds"`
}

// Validate checks the form against its declared rules.
func (f *Form) Validate() error {
	return validate.Struct(f)
}

// SchoolForm is a manual school registration.
type SchoolForm struct {
	Name           string  `json:"name" validate:"required,min=3"`
	Address        string  `json:"address" validate:"required"`
	Types          string  `json:"types" validate:"omitempty"`
	AvailableSlots int     `json:"availableSlots" validate:"gte=0"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
}

// Validate checks the form against its declared rules.
func (f *SchoolForm) Validate() error {
	return validate.Struct(f)
}

// Service turns validated forms into registry records.
type Service struct {
	store  *registry.Store
	logger *slog.Logger
}

func NewService(store *registry.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Suggestions geocodes the guardian's address and returns up to limit
// schools ordered by distance.
func (s *Service) Suggestions(address string, limit int) []registry.School {
	lat, lng := registry.Geocode(address)
	nearest := registry.Nearest(s.store.Schools(), lat, lng)
	if limit > 0 && len(nearest) > limit {
		nearest = nearest[:limit]
	}
	return nearest
}

// Submit validates the form and appends a student awaiting analysis. The
// protocol number is the guardian's receipt; grade and shift stay pending
// until the secretariat allocates the request.
func (s *Service) Submit(form Form) (registry.Student, error) {
	if err := form.Validate(); err != nil {
		return registry.Student{}, fmt.Errorf("validar solicitação: %w", err)
	}

	school := strings.TrimSpace(form.School)
	if school == "" {
		school = registry.SchoolUnassigned
	}

	st := registry.Student{
		ID:               "enroll_" + uuid.NewString(),
		EnrollmentID:     newProtocol(),
		Name:             strings.ToUpper(strings.TrimSpace(form.StudentName)),
		BirthDate:        normalize.FormatDate(form.BirthDate),
		CPF:              normalize.Digits(form.CPF),
		Status:           registry.StatusEmAnalise,
		School:           school,
		Grade:            PendingDefinition,
		Shift:            PendingDefinition,
		TransportRequest: form.TransportRequest,
		SpecialNeeds:     form.SpecialNeeds,
	}
	s.store.AppendStudent(st)

	s.logger.Info("enrollment request received",
		"protocol", st.EnrollmentID,
		"school", st.School,
		"transport", st.TransportRequest)
	return st, nil
}

// AddSchool validates and appends a manually registered school. A missing
// coordinate is geocoded from the address.
func (s *Service) AddSchool(form SchoolForm) (registry.School, error) {
	if err := form.Validate(); err != nil {
		return registry.School{}, fmt.Errorf("validar escola: %w", err)
	}

	lat, lng := form.Lat, form.Lng
	if lat == 0 || lng == 0 {
		lat, lng = registry.Geocode(form.Address)
	}

	sc := registry.School{
		ID:             "manual_" + uuid.NewString(),
		Name:           strings.TrimSpace(form.Name),
		Address:        strings.TrimSpace(form.Address),
		Types:          registry.StagesFromText(form.Types),
		Image:          registry.DefaultImage,
		Rating:         registry.DefaultRating,
		AvailableSlots: form.AvailableSlots,
		Lat:            lat,
		Lng:            lng,
	}
	s.store.AppendSchool(sc)

	s.logger.Info("school registered", "name", sc.Name, "slots", sc.AvailableSlots)
	return sc, nil
}

// newProtocol issues the PROT-xxxxx receipt number printed on the
// confirmation screen.
func newProtocol() string {
	return fmt.Sprintf("PROT-%05d", 10000+rand.IntN(90000))
}
