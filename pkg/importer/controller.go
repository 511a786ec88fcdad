// CLAUDE:SUMMARY Import session state machine: read/classify into a preview, then confirm (commit) or cancel.
package importer

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/census"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/tabular"
)

// State of an import session. Transitions:
//
//	Idle -> Reading -> AwaitingConfirm -> Committed
//	                                   -> Cancelled
//	        Reading -> Error
//
// Committed, Cancelled and Error all return to Idle on the next Read.
type State string

const (
	StateIdle            State = "idle"
	StateReading         State = "reading"
	StateAwaitingConfirm State = "awaiting_confirm"
	StateCommitted       State = "committed"
	StateCancelled       State = "cancelled"
	StateError           State = "error"
)

// Kind tags what a parsed preview contains.
type Kind string

const (
	KindSchools  Kind = "schools"
	KindStudents Kind = "students"
	KindCensus   Kind = "census"
	KindBackup   Kind = "backup"
)

// PreviewLimit caps how many rows of each entity a preview sample carries.
const PreviewLimit = 10

// Preview is the staged outcome of a Read, held until confirm or cancel.
// Nothing in it has touched the registry yet.
type Preview struct {
	Kind         Kind               `json:"kind"`
	Schools      []registry.School  `json:"schools,omitempty"`
	Students     []registry.Student `json:"students,omitempty"`
	CensusSchool *registry.School   `json:"censusSchool,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// Sample returns a copy of the preview with each entity list capped at
// PreviewLimit, plus the full counts, for display to the operator.
func (p *Preview) Sample() (sample Preview, schoolTotal, studentTotal int) {
	sample = *p
	schoolTotal = len(p.Schools)
	studentTotal = len(p.Students)
	if schoolTotal > PreviewLimit {
		sample.Schools = p.Schools[:PreviewLimit]
	}
	if studentTotal > PreviewLimit {
		sample.Students = p.Students[:PreviewLimit]
	}
	return sample, schoolTotal, studentTotal
}

// Result summarizes a committed import.
type Result struct {
	Kind          Kind   `json:"kind"`
	Filename      string `json:"filename"`
	SchoolsAdded  int    `json:"schoolsAdded"`
	StudentsAdded int    `json:"studentsAdded"`
	Replaced      bool   `json:"replaced"`
}

// Controller runs one import session at a time against a shared registry
// store. All methods are safe for concurrent use; a Read while another
// session awaits confirmation discards the stale preview.
type Controller struct {
	store   *registry.Store
	journal *Journal
	logger  *slog.Logger
	census  census.Parser

	mu       sync.Mutex
	state    State
	progress int
	filename string
	preview  *Preview
	lastErr  error
}

// NewController wires the import state machine to a store. journal may be
// nil when import history persistence is not wanted (tests).
func NewController(store *registry.Store, journal *Journal, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:   store,
		journal: journal,
		logger:  logger,
		census:  census.Educacenso{},
		state:   StateIdle,
	}
}

// Status returns the current state, progress percentage and, in the Error
// state, the user-facing failure message.
func (c *Controller) Status() (State, int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := ""
	if c.lastErr != nil {
		msg = c.lastErr.Error()
	}
	return c.state, c.progress, msg
}

// Preview returns the staged preview, or nil when no import awaits
// confirmation.
func (c *Controller) Preview() *Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingConfirm {
		return nil
	}
	return c.preview
}

// Read parses an uploaded file into a preview and moves the session to
// AwaitingConfirm. The extension gate runs before any content is touched:
// only .json and .csv are read. Failures land in the Error state and are
// also returned.
func (c *Controller) Read(filename string, content []byte) (*Preview, error) {
	c.mu.Lock()
	c.state = StateReading
	c.progress = 0
	c.filename = filename
	c.preview = nil
	c.lastErr = nil
	c.mu.Unlock()

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".json" && ext != ".csv" {
		return nil, c.fail(ErrUnsupportedFormat)
	}

	var (
		preview *Preview
		err     error
	)
	switch ext {
	case ".json":
		preview, err = classifyJSON(content)
	case ".csv":
		preview, err = c.readDelimited(content)
	}
	if err != nil {
		return nil, c.fail(err)
	}

	c.mu.Lock()
	c.state = StateAwaitingConfirm
	c.progress = 100
	c.preview = preview
	c.mu.Unlock()

	c.logger.Info("import preview ready",
		"filename", filename,
		"kind", preview.Kind,
		"schools", len(preview.Schools),
		"students", len(preview.Students),
		"warnings", len(preview.Warnings))
	return preview, nil
}

// readDelimited handles .csv content: transcode Latin-1 exports, route
// census exports to the fixed-column parser, everything else through the
// generic delimited parser plus header classification.
func (c *Controller) readDelimited(content []byte) (*Preview, error) {
	if !utf8.Valid(content) {
		decoded, err := transcodeLatin1(content)
		if err != nil {
			return nil, ErrReadFailure
		}
		content = decoded
	}
	text := string(content)

	if census.IsExport(text) {
		return c.readCensus(text)
	}

	rows := tabular.Parse(text)
	c.setProgress(60)
	if len(rows) == 0 {
		return nil, ErrNoRecognizableSchema
	}

	kind := ClassifyRows(rows)
	if kind == Unclassified {
		return nil, ErrNoRecognizableSchema
	}

	schools, students, warnings := MapRows(rows, kind)
	p := &Preview{Warnings: warnings}
	switch kind {
	case SchoolCandidate:
		p.Kind = KindSchools
		p.Schools = schools
	case StudentCandidate:
		p.Kind = KindStudents
		p.Students = students
	}
	return p, nil
}

// readCensus routes an Educacenso export through the fixed-column parser.
// School synthesis is suppressed when the export's school already exists in
// the registry.
func (c *Controller) readCensus(text string) (*Preview, error) {
	result, err := c.census.Parse(text, func(nameOrCode string) bool {
		return c.store.FindSchool(nameOrCode) != nil
	})
	if err != nil {
		return nil, err
	}
	c.setProgress(80)

	p := &Preview{Kind: KindCensus, Students: result.Students, CensusSchool: result.School}
	if result.School != nil {
		p.Warnings = append(p.Warnings,
			fmt.Sprintf("escola %q não encontrada no cadastro, será criada automaticamente", result.School.Name))
	}
	return p, nil
}

// Confirm commits the staged preview into the registry and records it in
// the import journal. Each kind commits through a single store operation,
// and the commit is guarded by a recover so that a panic in a merge cannot
// wedge the session: it degrades into the Error state.
func (c *Controller) Confirm() (res Result, err error) {
	c.mu.Lock()
	if c.state != StateAwaitingConfirm || c.preview == nil {
		c.mu.Unlock()
		return Result{}, ErrNoPreview
	}
	preview := c.preview
	filename := c.filename
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = c.fail(fmt.Errorf("falha ao aplicar importação: %v", r))
		}
	}()

	res = Result{Kind: preview.Kind, Filename: filename}
	switch preview.Kind {
	case KindBackup:
		c.store.ReplaceAll(preview.Schools, preview.Students)
		res.Replaced = true
		res.SchoolsAdded = len(preview.Schools)
		res.StudentsAdded = len(preview.Students)
	case KindSchools:
		res.SchoolsAdded = c.store.MergeSchools(preview.Schools)
	case KindStudents:
		res.StudentsAdded = c.store.MergeStudents(preview.Students)
	case KindCensus:
		var schools []registry.School
		if preview.CensusSchool != nil {
			schools = []registry.School{*preview.CensusSchool}
		}
		res.SchoolsAdded, res.StudentsAdded = c.store.Merge(schools, preview.Students)
	}

	c.record(Entry{
		Filename:      filename,
		Kind:          res.Kind,
		Status:        StateCommitted,
		SchoolsAdded:  res.SchoolsAdded,
		StudentsAdded: res.StudentsAdded,
		Replaced:      res.Replaced,
	})

	c.mu.Lock()
	c.state = StateCommitted
	c.preview = nil
	c.mu.Unlock()

	c.logger.Info("import committed",
		"filename", filename,
		"kind", res.Kind,
		"schools_added", res.SchoolsAdded,
		"students_added", res.StudentsAdded,
		"replaced", res.Replaced)
	return res, nil
}

// Cancel discards the staged preview without touching the registry.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.state != StateAwaitingConfirm {
		c.mu.Unlock()
		return ErrNoPreview
	}
	kind := c.preview.Kind
	filename := c.filename
	c.state = StateCancelled
	c.preview = nil
	c.progress = 0
	c.mu.Unlock()

	c.record(Entry{Filename: filename, Kind: kind, Status: StateCancelled})
	return nil
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	filename := c.filename
	c.state = StateError
	c.lastErr = err
	c.preview = nil
	c.mu.Unlock()

	c.logger.Warn("import failed", "filename", filename, "error", err)
	c.record(Entry{Filename: filename, Status: StateError, Error: err.Error()})
	return err
}

// record writes a terminal transition to the journal, when one is attached.
func (c *Controller) record(e Entry) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Record(e); err != nil {
		c.logger.Warn("import journal write failed", "error", err)
	}
}

func (c *Controller) setProgress(p int) {
	c.mu.Lock()
	c.progress = p
	c.mu.Unlock()
}

// transcodeLatin1 decodes ISO-8859-1 bytes, the encoding legacy municipal
// spreadsheets are exported in, into UTF-8.
func transcodeLatin1(content []byte) ([]byte, error) {
	enc, err := htmlindex.Get("iso-8859-1")
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), content)
	if err != nil {
		return nil, err
	}
	return out, nil
}
