package ingest

import (
	"bytes"
	"context"
	"strings"

	"github.com/bhagyaj/Markr/internal/model"
	"github.com/bhagyaj/Markr/pkg/errors"

	"github.com/xuri/excelize/v2"
)

const problemInvalidSpreadsheet = "Invalid spreadsheet format"

// Spreadsheet column headers, matched case-insensitively.
const (
	colFirstName     = "first_name"
	colLastName      = "last_name"
	colStudentNumber = "student_number"
	colTestID        = "test_id"
	colScannedOn     = "scanned_on"
	colAvailable     = "available"
	colObtained      = "obtained"
)

// ExcelParser reads result batches from the first worksheet of an xlsx
// workbook: one header row, one result per data row. Rows flow through
// the same validator as XML batches, so missing columns and empty
// cells are reported there, not here.
type ExcelParser struct{}

func NewExcelParser() *ExcelParser {
	return &ExcelParser{}
}

func (p *ExcelParser) Parse(ctx context.Context, data []byte) ([]model.Candidate, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.MalformedDocumentError{Problem: problemInvalidSpreadsheet}
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, &errors.MalformedDocumentError{Problem: problemInvalidSpreadsheet}
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, &errors.MalformedDocumentError{Problem: problemInvalidSpreadsheet}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columnMap := make(map[string]int)
	for i, col := range rows[0] {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}

	candidates := make([]model.Candidate, 0, len(rows)-1)
	for _, row := range rows[1:] {
		candidates = append(candidates, p.parseRow(row, columnMap))
	}

	return candidates, nil
}

func (p *ExcelParser) parseRow(row []string, columnMap map[string]int) model.Candidate {
	// Returns nil when the column itself is absent, a pointer to the
	// (possibly empty) cell text otherwise.
	getCell := func(colName string) *string {
		idx, exists := columnMap[colName]
		if !exists {
			return nil
		}
		value := ""
		if idx < len(row) {
			value = strings.TrimSpace(row[idx])
		}
		return &value
	}

	c := model.Candidate{
		FirstName:     getCell(colFirstName),
		LastName:      getCell(colLastName),
		StudentNumber: getCell(colStudentNumber),
		TestID:        getCell(colTestID),
	}

	if scanned := getCell(colScannedOn); scanned != nil {
		c.ScannedOn = *scanned
	}

	available := getCell(colAvailable)
	obtained := getCell(colObtained)
	if available != nil || obtained != nil {
		c.SummaryMarks = &model.SummaryMarks{}
		if available != nil {
			c.SummaryMarks.Available = *available
		}
		if obtained != nil {
			c.SummaryMarks.Obtained = *obtained
		}
	}

	return c
}
