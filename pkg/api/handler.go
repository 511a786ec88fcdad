// CLAUDE:SUMMARY HTTP router: registry queries, enrollment forms, import sessions, exports, chat streaming.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/assist"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/enroll"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/importer"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/kit"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

// Deps carries everything the router serves. Assistant and Journal may be
// nil; their routes then answer 503.
type Deps struct {
	Store      *registry.Store
	Imports    *importer.Controller
	Journal    *importer.Journal
	Enrollment *enroll.Service
	Assistant  *assist.Assistant
	Logger     *slog.Logger
}

// NewRouter returns an http.Handler with all registry API routes.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	h := &handler{
		deps:           deps,
		searchStudents: instrument(logger, "search_students")(searchStudentsEndpoint(deps.Store)),
		listSchools:    instrument(logger, "list_schools")(listSchoolsEndpoint(deps.Store)),
		stats:          instrument(logger, "registry_stats")(statsEndpoint(deps.Store)),
	}

	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.HandleFunc("GET /v1/stats", h.handleStats)

	mux.HandleFunc("GET /v1/schools", h.handleListSchools)
	mux.HandleFunc("POST /v1/schools", h.handleAddSchool)
	mux.HandleFunc("GET /v1/students", h.handleSearchStudents)
	mux.HandleFunc("POST /v1/students", h.handleEnroll)
	mux.HandleFunc("GET /v1/suggestions", h.handleSuggestions)

	mux.HandleFunc("POST /v1/imports", h.handleImportUpload)
	mux.HandleFunc("GET /v1/imports/current", h.handleImportStatus)
	mux.HandleFunc("POST /v1/imports/confirm", h.handleImportConfirm)
	mux.HandleFunc("POST /v1/imports/cancel", h.handleImportCancel)
	mux.HandleFunc("GET /v1/imports", h.handleImportHistory)

	mux.HandleFunc("POST /v1/reallocate", h.handleReallocate)
	mux.HandleFunc("GET /v1/backup", h.handleBackup)
	mux.HandleFunc("GET /v1/export/students", h.handleStudentsExport)
	mux.HandleFunc("GET /v1/roster.xlsx", h.handleRoster)
	mux.HandleFunc("POST /v1/reset", h.handleReset)

	mux.HandleFunc("POST /v1/chat", h.handleChat)

	return cors(mux)
}

type handler struct {
	deps           Deps
	searchStudents kit.Endpoint
	listSchools    kit.Endpoint
	stats          kit.Endpoint
}

// --- registry queries ---

func (h *handler) handleListSchools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := &listSchoolsReq{
		Lat: parseFloat(q.Get("lat")),
		Lng: parseFloat(q.Get("lng")),
	}
	if v := q.Get("limit"); v != "" {
		req.Limit, _ = strconv.Atoi(v)
	}
	resp, err := h.listSchools(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleSearchStudents(w http.ResponseWriter, r *http.Request) {
	resp, err := h.searchStudents(r.Context(), &searchStudentsReq{Query: r.URL.Query().Get("q")})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.stats(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- enrollment ---

func (h *handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var form enroll.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "corpo JSON inválido")
		return
	}
	st, err := h.deps.Enrollment.Submit(form)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *handler) handleAddSchool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var form enroll.SchoolForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "corpo JSON inválido")
		return
	}
	sc, err := h.deps.Enrollment.AddSchool(form)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (h *handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "informe o endereço")
		return
	}
	limit := 3
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	writeJSON(w, http.StatusOK, schoolsResponse{Schools: h.deps.Enrollment.Suggestions(address, limit)})
}

// --- import sessions ---

// importMaxBytes caps an uploaded file. Census exports for a whole school
// stay well under this.
const importMaxBytes = 16 << 20

type importPreviewResponse struct {
	State         importer.State   `json:"state"`
	Preview       importer.Preview `json:"preview"`
	SchoolsTotal  int              `json:"schoolsTotal"`
	StudentsTotal int              `json:"studentsTotal"`
}

func (h *handler) handleImportUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, importMaxBytes)
	if err := r.ParseMultipartForm(importMaxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "envie o arquivo no campo multipart \"file\"")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "envie o arquivo no campo multipart \"file\"")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, importer.ErrReadFailure.Error())
		return
	}

	preview, err := h.deps.Imports.Read(header.Filename, content)
	if err != nil {
		writeError(w, importStatusCode(err), err.Error())
		return
	}

	sample, schools, students := preview.Sample()
	state, _, _ := h.deps.Imports.Status()
	writeJSON(w, http.StatusOK, importPreviewResponse{
		State:         state,
		Preview:       sample,
		SchoolsTotal:  schools,
		StudentsTotal: students,
	})
}

func (h *handler) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	state, progress, msg := h.deps.Imports.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":    state,
		"progress": progress,
		"error":    msg,
	})
}

func (h *handler) handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Imports.Confirm()
	if err != nil {
		writeError(w, importStatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleImportCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Imports.Cancel(); err != nil {
		writeError(w, importStatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(importer.StateCancelled)})
}

func (h *handler) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.Journal == nil {
		writeError(w, http.StatusServiceUnavailable, "histórico de importações indisponível")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	entries, err := h.deps.Journal.History(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imports": entries})
}

func importStatusCode(err error) int {
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, importer.ErrNoPreview):
		return http.StatusConflict
	case errors.Is(err, importer.ErrReadFailure),
		errors.Is(err, importer.ErrNoRecognizableSchema):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// --- maintenance ---

func (h *handler) handleReallocate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		School string `json:"school"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.School == "" {
		writeError(w, http.StatusBadRequest, "informe a escola de destino")
		return
	}
	moved := h.deps.Store.ReallocateUnassigned(req.School)
	writeJSON(w, http.StatusOK, map[string]int{"moved": moved})
}

func (h *handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	out, err := importer.WriteBackup(h.deps.Store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+importer.BackupFilename(time.Now()))
	w.Write(out)
}

func (h *handler) handleStudentsExport(w http.ResponseWriter, r *http.Request) {
	out, err := importer.WriteStudentsExport(h.deps.Store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=alunos.json")
	w.Write(out)
}

func (h *handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	out, err := importer.WriteRosterXLSX(h.deps.Store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=alunos.xlsx")
	w.Write(out)
}

func (h *handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Store.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	schools, students := h.deps.Store.Counts()
	writeJSON(w, http.StatusOK, map[string]int{"schools": schools, "students": students})
}

// --- chat ---

func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.deps.Assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "assistente indisponível")
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "informe a mensagem")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	flusher, _ := w.(http.Flusher)
	for fragment := range h.deps.Assistant.Send(r.Context(), req.Message) {
		if _, err := io.WriteString(w, fragment); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// --- health ---

type healthResponse struct {
	Status   string `json:"status"`
	Schools  int    `json:"schools"`
	Students int    `json:"students"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	schools, students := h.deps.Store.Counts()
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Schools: schools, Students: students})
}

// --- helpers ---

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
