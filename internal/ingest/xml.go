package ingest

import (
	"context"
	"encoding/xml"

	"github.com/bhagyaj/Markr/internal/model"
	"github.com/bhagyaj/Markr/pkg/errors"
)

// problemInvalidXML is the caller-facing wording for unparseable XML.
const problemInvalidXML = "Invalid XML syntax"

// XMLParser reads mcq-test-results batch documents.
type XMLParser struct{}

func NewXMLParser() *XMLParser {
	return &XMLParser{}
}

type xmlBatch struct {
	XMLName xml.Name
	Results []xmlResult `xml:"mcq-test-result"`
}

// Pointer fields keep absent elements distinguishable from empty ones;
// the validator depends on that distinction.
type xmlResult struct {
	ScannedOn     string           `xml:"scanned-on,attr"`
	FirstName     *string          `xml:"first-name"`
	LastName      *string          `xml:"last-name"`
	StudentNumber *string          `xml:"student-number"`
	TestID        *string          `xml:"test-id"`
	SummaryMarks  *xmlSummaryMarks `xml:"summary-marks"`
}

type xmlSummaryMarks struct {
	Available string `xml:"available,attr"`
	Obtained  string `xml:"obtained,attr"`
}

func (p *XMLParser) Parse(ctx context.Context, data []byte) ([]model.Candidate, error) {
	var batch xmlBatch
	if err := xml.Unmarshal(data, &batch); err != nil {
		return nil, &errors.MalformedDocumentError{Problem: problemInvalidXML}
	}

	candidates := make([]model.Candidate, 0, len(batch.Results))
	for _, r := range batch.Results {
		c := model.Candidate{
			FirstName:     r.FirstName,
			LastName:      r.LastName,
			StudentNumber: r.StudentNumber,
			TestID:        r.TestID,
			ScannedOn:     r.ScannedOn,
		}
		if r.SummaryMarks != nil {
			c.SummaryMarks = &model.SummaryMarks{
				Available: r.SummaryMarks.Available,
				Obtained:  r.SummaryMarks.Obtained,
			}
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}
