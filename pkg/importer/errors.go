// CLAUDE:SUMMARY Sentinel errors of the import pipeline, with user-facing Portuguese messages.
package importer

import "errors"

// Parse-level failures are caught at the controller boundary and converted
// into the Error state with these user-facing messages; none crash the
// caller. Row-level malformations are not errors at all: they are skipped or
// defaulted, because source spreadsheets are assumed inconsistent.
var (
	// ErrUnsupportedFormat: extension not recognized; no read is attempted.
	ErrUnsupportedFormat = errors.New("formato não suportado. Use .json ou .csv")

	// ErrReadFailure: the decode/read step failed.
	ErrReadFailure = errors.New("erro ao ler o arquivo. Verifique o formato")

	// ErrNoRecognizableSchema: content parsed but no row matched a School or
	// Student signal, or zero rows resulted.
	ErrNoRecognizableSchema = errors.New("não foi possível identificar dados válidos no arquivo. Verifique os cabeçalhos das colunas")

	// ErrNoPreview: confirm/cancel called without a parsed preview.
	ErrNoPreview = errors.New("nenhuma importação aguardando confirmação")
)
