package ingest

import (
	"fmt"
	"strings"

	"github.com/bhagyaj/Markr/internal/model"
)

// Caller-facing problem wordings. The field names and declaration
// order come from the original scanner feed format and are part of the
// external contract, regardless of which parser produced the batch.
const (
	problemNoRecords      = "No mcq-test-result elements found"
	problemMissingSummary = "Missing summary-marks element"
	problemEmptyMarks     = "Missing or empty available or obtained attributes in summary-marks"
)

type identityField struct {
	name string
	get  func(model.Candidate) *string
}

// Validator checks candidate batches against the structural rules. A
// batch with any problem is rejected whole; there is no partial import.
type Validator struct {
	mandatory []identityField
}

func NewValidator() *Validator {
	return &Validator{
		mandatory: []identityField{
			{name: "first-name", get: func(c model.Candidate) *string { return c.FirstName }},
			{name: "last-name", get: func(c model.Candidate) *string { return c.LastName }},
			{name: "student-number", get: func(c model.Candidate) *string { return c.StudentNumber }},
			{name: "test-id", get: func(c model.Candidate) *string { return c.TestID }},
		},
	}
}

// Validate produces the batch verdict. Problems keep input record
// order, then rule order within a record.
func (v *Validator) Validate(candidates []model.Candidate) model.Verdict {
	if len(candidates) == 0 {
		return model.Verdict{Problems: []model.Problem{{Message: problemNoRecords}}}
	}

	var problems []model.Problem
	for _, c := range candidates {
		problems = append(problems, v.check(c)...)
	}

	return model.Verdict{OK: len(problems) == 0, Problems: problems}
}

func (v *Validator) check(c model.Candidate) []model.Problem {
	var missing []string
	for _, f := range v.mandatory {
		if f.get(c) == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		// A field reported missing is never also reported empty.
		return []model.Problem{{
			Message: fmt.Sprintf("Missing fields: %s", strings.Join(missing, ", ")),
		}}
	}

	var problems []model.Problem

	if c.SummaryMarks == nil {
		problems = append(problems, model.Problem{Message: problemMissingSummary})
	} else if strings.TrimSpace(c.SummaryMarks.Available) == "" || strings.TrimSpace(c.SummaryMarks.Obtained) == "" {
		problems = append(problems, model.Problem{Message: problemEmptyMarks})
	}

	var empty []string
	for _, f := range v.mandatory {
		if strings.TrimSpace(*f.get(c)) == "" {
			empty = append(empty, f.name)
		}
	}
	if len(empty) > 0 {
		problems = append(problems, model.Problem{
			Message: fmt.Sprintf("Missing values for fields: %s", strings.Join(empty, ", ")),
		})
	}

	return problems
}
