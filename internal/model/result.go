package model

import "time"

// Candidate is one parsed, not yet validated test-result record.
// Identity fields are pointers so the validator can tell an absent
// element apart from one that is present with empty text.
type Candidate struct {
	FirstName     *string
	LastName      *string
	StudentNumber *string
	TestID        *string
	ScannedOn     string
	SummaryMarks  *SummaryMarks
}

// SummaryMarks holds the raw available/obtained attribute text of a
// candidate's summary-marks element. Conversion to integers happens
// after validation.
type SummaryMarks struct {
	Available string
	Obtained  string
}

// TestResult is the durable record for one student's result on one test.
// (StudentNumber, TestID) is the primary identity; the store keeps at
// most one row per pair.
type TestResult struct {
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name" db:"last_name"`
	StudentNumber  string    `json:"student_number" db:"student_number"`
	TestID         string    `json:"test_id" db:"test_id"`
	ScannedOn      time.Time `json:"scanned_on" db:"scanned_on"`
	AvailableMarks int       `json:"available_marks" db:"available_marks"`
	ObtainedMarks  int       `json:"obtained_marks" db:"obtained_marks"`
}
