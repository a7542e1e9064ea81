package store

import (
	"github.com/Aman-CERP/coderag/internal/config"
	cerrors "github.com/Aman-CERP/coderag/internal/errors"
)

// NewLexicalScorer returns an unfit scorer for the configured backend.
//
// backend options:
//   - "okapi" (default): in-process BM25 statistics
//   - "bleve": in-memory bleve index with the code tokenizer
func NewLexicalScorer(backend string) (LexicalScorer, error) {
	switch backend {
	case config.LexicalBackendOkapi, "":
		return NewOkapiScorer(), nil
	case config.LexicalBackendBleve:
		return NewBleveScorer(), nil
	default:
		return nil, cerrors.InvalidArgument("unknown lexical backend: %s (valid options: okapi, bleve)", backend)
	}
}
