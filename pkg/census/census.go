// CLAUDE:SUMMARY Census-export detection and the Parser interface isolating layout-specific positional contracts.
package census

import (
	"errors"
	"strings"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

// ErrEmptyResult signals that census markers were detected but the
// positional extraction yielded zero valid student rows. Surfaced distinctly
// from a generic schema failure so the operator knows the file was
// recognized.
var ErrEmptyResult = errors.New("exportação do censo reconhecida, mas nenhuma linha válida de aluno foi encontrada")

// Result is the outcome of parsing one census export: the extracted student
// roster and, when the export references a school the registry does not yet
// know, a synthesized School record (nil otherwise).
type Result struct {
	Students []registry.Student
	School   *registry.School
}

// Parser extracts a Result from raw census-export text. Each government
// layout gets its own implementation; the fixed column positions are a
// contract with that layout, not a general parsing strategy.
type Parser interface {
	// Parse extracts students and an optional synthesized school.
	// schoolKnown reports whether a school matching the given display name
	// or registry code already exists, suppressing synthesis.
	Parse(text string, schoolKnown func(nameOrCode string) bool) (*Result, error)
}

// IsExport reports whether the content is a government census export,
// recognizable by its ministry header markers. Checked before the generic
// CSV path.
func IsExport(text string) bool {
	return strings.Contains(text, "Ministério da Educação") ||
		strings.Contains(text, "Educacenso")
}
