package model

// Problem describes one validation defect found in a batch.
type Problem struct {
	Message string `json:"error"`
}

// Verdict is the validator's decision for a whole batch. Problems are
// ordered by input record, then by rule within a record.
type Verdict struct {
	OK       bool
	Problems []Problem
}

// ImportSummary reports a successfully merged batch.
type ImportSummary struct {
	BatchID       string   `json:"batch_id"`
	RecordsMerged int      `json:"records_merged"`
	TestIDs       []string `json:"-"`
}

// Statistics holds the aggregate figures for one test. Mean, stddev,
// min and max are raw mark values; the percentiles are rescaled to a
// percentage of the available marks.
type Statistics struct {
	Mean   float64 `json:"mean"`
	Stddev float64 `json:"stddev"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Count  int     `json:"count"`
}
