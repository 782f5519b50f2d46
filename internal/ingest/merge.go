package ingest

import "github.com/bhagyaj/Markr/internal/model"

type resultKey struct {
	studentNumber string
	testID        string
}

func keyOf(rec model.TestResult) resultKey {
	return resultKey{studentNumber: rec.StudentNumber, testID: rec.TestID}
}

// resolve applies the merge policy for one candidate against the
// current record for its key, if any. The candidate wins only when its
// scan timestamp is strictly later; ties keep the existing record.
// The same rule covers duplicates within a batch and records already
// in the store, so replaying an identical batch is a no-op.
func resolve(candidate model.TestResult, existing *model.TestResult) model.TestResult {
	if existing == nil {
		return candidate
	}
	if candidate.ScannedOn.After(existing.ScannedOn) {
		return candidate
	}
	return *existing
}
