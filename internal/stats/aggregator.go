// Package stats computes descriptive statistics over stored test results.
package stats

import (
	"math"
	"sort"

	"github.com/bhagyaj/Markr/internal/model"
	"github.com/bhagyaj/Markr/pkg/errors"
)

// Aggregate computes the statistics for a non-empty set of results
// belonging to one test. Mean, stddev, min and max are raw mark
// values; percentiles are rescaled to a percentage of the available
// marks. Callers handle the empty set before calling.
func Aggregate(results []model.TestResult) (*model.Statistics, error) {
	count := len(results)
	if count == 0 {
		return nil, errors.ErrTestNotFound
	}

	obtained := make([]float64, count)
	for i, r := range results {
		obtained[i] = float64(r.ObtainedMarks)
	}
	sort.Float64s(obtained)

	available := availableMarks(results)
	if available <= 0 {
		return nil, errors.ErrNoAvailableMarks
	}

	mean := sum(obtained) / float64(count)
	scale := 100 / float64(available)

	return &model.Statistics{
		Mean:   mean,
		Stddev: populationStddev(obtained, mean),
		Min:    int(obtained[0]),
		Max:    int(obtained[count-1]),
		P25:    percentile(obtained, 25) * scale,
		P50:    percentile(obtained, 50) * scale,
		P75:    percentile(obtained, 75) * scale,
		Count:  count,
	}, nil
}

// availableMarks picks the available-marks value for the test: the one
// from the most recently scanned record. All records for one test are
// expected to share a single value; distinctAvailable reports when
// they do not so callers can log it.
func availableMarks(results []model.TestResult) int {
	latest := results[0]
	for _, r := range results[1:] {
		if r.ScannedOn.After(latest.ScannedOn) {
			latest = r
		}
	}
	return latest.AvailableMarks
}

// distinctAvailable returns the distinct available-marks values, sorted.
func distinctAvailable(results []model.TestResult) []int {
	seen := make(map[int]bool)
	var values []int
	for _, r := range results {
		if !seen[r.AvailableMarks] {
			seen[r.AvailableMarks] = true
			values = append(values, r.AvailableMarks)
		}
	}
	sort.Ints(values)
	return values
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func populationStddev(values []float64, mean float64) float64 {
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// percentile uses linear interpolation between closest ranks over an
// ascending-sorted slice: rank = p/100 * (n-1), interpolating between
// the two bracketing values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
