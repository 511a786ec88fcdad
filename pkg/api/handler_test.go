package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/enroll"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/importer"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/kvstore"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

func newTestServer(t *testing.T) (*httptest.Server, *registry.Store) {
	t.Helper()
	store, err := registry.NewStore(kvstore.NewMemory(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	router := NewRouter(Deps{
		Store:      store,
		Imports:    importer.NewController(store, nil, nil),
		Enrollment: enroll.NewService(store, nil),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, url string, body any, out any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	var got healthResponse
	resp := getJSON(t, srv.URL+"/v1/health", &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got.Status != "ok" || got.Schools == 0 {
		t.Fatalf("health = %+v", got)
	}
}

func TestListSchoolsByProximity(t *testing.T) {
	srv, store := newTestServer(t)
	var got schoolsResponse
	resp := getJSON(t, srv.URL+"/v1/schools?lat=-23.55&lng=-46.63&limit=2", &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(got.Schools) != 2 {
		t.Fatalf("schools = %d, want limit 2", len(got.Schools))
	}
	if got.Schools[0].Distance > got.Schools[1].Distance {
		t.Error("schools not ordered by distance")
	}
	all, _ := store.Counts()
	if all <= 2 {
		t.Fatalf("seed must carry more than 2 schools, got %d", all)
	}
}

func TestSearchStudentsByCPF(t *testing.T) {
	srv, _ := newTestServer(t)
	var got studentsResponse
	getJSON(t, srv.URL+"/v1/students?q=111.444.777-35", &got)
	if len(got.Students) != 1 {
		t.Fatalf("students = %d, want exact CPF match", len(got.Students))
	}
}

func TestEnrollEndpointCreatesProtocol(t *testing.T) {
	srv, _ := newTestServer(t)
	form := enroll.Form{
		StudentName:  "Lucas Andrade",
		BirthDate:    "2018-02-10",
		GuardianName: "Paula Andrade",
		GuardianCPF:  "111.444.777-35",
		Address:      "Rua Um, 10",
	}
	var st registry.Student
	resp := postJSON(t, srv.URL+"/v1/students", form, &st)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(st.EnrollmentID, "PROT-") {
		t.Errorf("EnrollmentID = %q", st.EnrollmentID)
	}
	if st.Status != registry.StatusEmAnalise {
		t.Errorf("Status = %q", st.Status)
	}
}

func TestEnrollEndpointRejectsInvalidForm(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/students", enroll.Form{StudentName: "X"}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func uploadFile(t *testing.T, url, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(content)
	mw.Close()

	resp, err := http.Post(url+"/v1/imports", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /v1/imports: %v", err)
	}
	return resp
}

func TestImportFlowOverHTTP(t *testing.T) {
	srv, store := newTestServer(t)
	_, before := store.Counts()

	csv := "nome;cpf;turma\nNOVO ALUNO;;6B\n"
	resp := uploadFile(t, srv.URL, "alunos.csv", []byte(csv))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	var preview importPreviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&preview); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if preview.State != importer.StateAwaitingConfirm || preview.StudentsTotal != 1 {
		t.Fatalf("preview = %+v", preview)
	}

	var res importer.Result
	confirm := postJSON(t, srv.URL+"/v1/imports/confirm", nil, &res)
	if confirm.StatusCode != http.StatusOK || res.StudentsAdded != 1 {
		t.Fatalf("confirm status %d result %+v", confirm.StatusCode, res)
	}
	if _, after := store.Counts(); after != before+1 {
		t.Errorf("students %d -> %d", before, after)
	}
}

func TestImportRejectsXLSXUpload(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := uploadFile(t, srv.URL, "dados.xlsx", []byte("PK..."))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}
}

func TestConfirmWithoutUploadConflicts(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/imports/confirm", nil, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestReallocateEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	var got map[string]int
	resp := postJSON(t, srv.URL+"/v1/reallocate", map[string]string{"school": "EM Castro Alves"}, &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got["moved"] == 0 {
		t.Error("seed carries an unassigned student; moved must be > 0")
	}
	for _, st := range store.Students() {
		if st.Unassigned() {
			t.Errorf("student %s still unassigned", st.ID)
		}
	}
}

func TestBackupDownloadRoundTrips(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/backup")
	if err != nil {
		t.Fatalf("GET /v1/backup: %v", err)
	}
	defer resp.Body.Close()
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "backup_educamunicipio_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var doc struct {
		Schools  []registry.School  `json:"schools"`
		Students []registry.Student `json:"students"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if len(doc.Schools) == 0 || len(doc.Students) == 0 {
		t.Error("backup must carry both collections")
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	var got registry.Stats
	getJSON(t, srv.URL+"/v1/stats", &got)
	if got.Schools == 0 || got.Students == 0 {
		t.Fatalf("stats = %+v", got)
	}
}

func TestChatUnavailableWithoutAssistant(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/v1/chat", map[string]string{"message": "oi"}, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/schools", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
