package enroll

import (
	"strings"
	"testing"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/kvstore"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

func newTestService(t *testing.T) (*Service, *registry.Store) {
	t.Helper()
	store, err := registry.NewStore(kvstore.NewMemory(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return NewService(store, nil), store
}

func validForm() Form {
	return Form{
		StudentName:  "Pedro Henrique Costa",
		BirthDate:    "2017-08-22",
		CPF:          "111.444.777-35",
		GuardianName: "Fernanda Costa",
		GuardianCPF:  "111.444.777-35",
		Address:      "Rua das Palmeiras, 45",
	}
}

func TestSubmitCreatesPendingAnalysisStudent(t *testing.T) {
	s, store := newTestService(t)
	_, before := store.Counts()

	st, err := s.Submit(validForm())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if st.Status != registry.StatusEmAnalise {
		t.Errorf("Status = %q, want Em Análise", st.Status)
	}
	if st.Grade != PendingDefinition || st.Shift != PendingDefinition {
		t.Errorf("Grade/Shift = %q/%q, want pending definition", st.Grade, st.Shift)
	}
	if !strings.HasPrefix(st.EnrollmentID, "PROT-") || len(st.EnrollmentID) != len("PROT-00000") {
		t.Errorf("EnrollmentID = %q, want PROT-xxxxx protocol", st.EnrollmentID)
	}
	if st.Name != "PEDRO HENRIQUE COSTA" {
		t.Errorf("Name = %q, want upper-cased", st.Name)
	}
	if st.BirthDate != "22/08/2017" {
		t.Errorf("BirthDate = %q, want 22/08/2017", st.BirthDate)
	}
	if st.CPF != "11144477735" {
		t.Errorf("CPF = %q, want digits only", st.CPF)
	}
	if st.School != registry.SchoolUnassigned {
		t.Errorf("School = %q, want unassigned sentinel", st.School)
	}
	if _, after := store.Counts(); after != before+1 {
		t.Errorf("students %d -> %d, want +1", before, after)
	}
}

func TestSubmitRejectsInvalidCPF(t *testing.T) {
	s, _ := newTestService(t)
	f := validForm()
	f.CPF = "123.456.789-00"
	if _, err := s.Submit(f); err == nil {
		t.Fatal("Submit accepted an invalid CPF")
	}
}

func TestSubmitAllowsEmptyCPF(t *testing.T) {
	s, _ := newTestService(t)
	f := validForm()
	f.CPF = ""
	if _, err := s.Submit(f); err != nil {
		t.Fatalf("Submit with empty CPF: %v", err)
	}
}

func TestSubmitRequiresGuardianCPF(t *testing.T) {
	s, _ := newTestService(t)
	f := validForm()
	f.GuardianCPF = ""
	if _, err := s.Submit(f); err == nil {
		t.Fatal("Submit accepted a missing guardian CPF")
	}
}

func TestSubmitRequiresStudentName(t *testing.T) {
	s, _ := newTestService(t)
	f := validForm()
	f.StudentName = ""
	if _, err := s.Submit(f); err == nil {
		t.Fatal("Submit accepted an empty student name")
	}
}

func TestSubmitKeepsChosenSchool(t *testing.T) {
	s, _ := newTestService(t)
	f := validForm()
	f.School = "EM Castro Alves"
	st, err := s.Submit(f)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if st.School != "EM Castro Alves" {
		t.Errorf("School = %q", st.School)
	}
}

func TestSuggestionsOrderedByDistance(t *testing.T) {
	s, _ := newTestService(t)
	got := s.Suggestions("Rua das Palmeiras, 45", 3)
	if len(got) == 0 || len(got) > 3 {
		t.Fatalf("Suggestions = %d schools, want 1..3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Distance > got[i].Distance {
			t.Fatalf("suggestions out of order at %d: %v > %v", i, got[i-1].Distance, got[i].Distance)
		}
	}
}

func TestAddSchoolGeocodesMissingCoordinates(t *testing.T) {
	s, store := newTestService(t)
	before, _ := store.Counts()

	sc, err := s.AddSchool(SchoolForm{
		Name:           "EM Rui Barbosa",
		Address:        "Av. Central, 200",
		Types:          "Fundamental I e II",
		AvailableSlots: 80,
	})
	if err != nil {
		t.Fatalf("AddSchool: %v", err)
	}
	if sc.Lat == 0 || sc.Lng == 0 {
		t.Error("coordinates must be geocoded when absent")
	}
	if len(sc.Types) != 2 {
		t.Errorf("Types = %v, want Fundamental I and II", sc.Types)
	}
	if after, _ := store.Counts(); after != before+1 {
		t.Errorf("schools %d -> %d, want +1", before, after)
	}
}

func TestAddSchoolRejectsMissingName(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.AddSchool(SchoolForm{Address: "Rua X"}); err == nil {
		t.Fatal("AddSchool accepted an empty name")
	}
}
