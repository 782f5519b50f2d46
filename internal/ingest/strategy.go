package ingest

import (
	"context"
	"mime"
	"strings"

	"github.com/bhagyaj/Markr/internal/model"
)

// Content kinds the ingest entry point accepts.
const (
	ContentKindXML   = "text/xml+markr"
	ContentKindExcel = "application/vnd.markr.results+xlsx"
)

// Parser turns a raw batch payload into candidate records. A parser
// reports only syntactic malformation; field presence is the
// validator's job.
type Parser interface {
	// Parse returns the batch's candidate records, or a
	// MalformedDocumentError when the bytes are not well-formed.
	Parse(ctx context.Context, data []byte) ([]model.Candidate, error)
}

func newParsers() map[string]Parser {
	return map[string]Parser{
		ContentKindXML:   NewXMLParser(),
		ContentKindExcel: NewExcelParser(),
	}
}

// NormalizeContentKind strips media-type parameters such as charset.
func NormalizeContentKind(contentKind string) string {
	mediaType, _, err := mime.ParseMediaType(contentKind)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentKind))
	}
	return mediaType
}
