package stats_test

import (
	"math"
	"testing"
	"time"

	"github.com/bhagyaj/Markr/internal/model"
	"github.com/bhagyaj/Markr/internal/stats"
	markrerrors "github.com/bhagyaj/Markr/pkg/errors"

	. "github.com/smartystreets/goconvey/convey"
)

func resultsFor(testID string, available int, obtained ...int) []model.TestResult {
	scanned := time.Date(2017, 12, 4, 13, 0, 0, 0, time.UTC)
	out := make([]model.TestResult, 0, len(obtained))
	for i, marks := range obtained {
		out = append(out, model.TestResult{
			FirstName:      "Sample",
			LastName:       "Student",
			StudentNumber:  string(rune('A' + i)),
			TestID:         testID,
			ScannedOn:      scanned.Add(time.Duration(i) * time.Minute),
			AvailableMarks: available,
			ObtainedMarks:  marks,
		})
	}
	return out
}

func TestAggregate(t *testing.T) {
	Convey("Given stored results for one test", t, func() {
		Convey("When aggregating marks 65,70,75,80,85 out of 100", func() {
			statistics, err := stats.Aggregate(resultsFor("123", 100, 65, 70, 75, 80, 85))

			Convey("Then the descriptive statistics match", func() {
				So(err, ShouldBeNil)
				So(statistics.Count, ShouldEqual, 5)
				So(statistics.Mean, ShouldEqual, 75.0)
				So(statistics.Min, ShouldEqual, 65)
				So(statistics.Max, ShouldEqual, 85)
				So(statistics.Stddev, ShouldAlmostEqual, math.Sqrt(50))
				So(statistics.P25, ShouldEqual, 70.0)
				So(statistics.P50, ShouldEqual, 75.0)
				So(statistics.P75, ShouldEqual, 80.0)
			})
		})

		Convey("When percentile ranks fall between values", func() {
			statistics, err := stats.Aggregate(resultsFor("124", 10, 1, 2, 3, 4))

			Convey("Then linear interpolation between closest ranks applies", func() {
				So(err, ShouldBeNil)
				// rank(p25) = 0.75 over sorted marks 1..4 -> 1.75 marks, 17.5%
				So(statistics.P25, ShouldAlmostEqual, 17.5)
				So(statistics.P50, ShouldAlmostEqual, 25.0)
				So(statistics.P75, ShouldAlmostEqual, 32.5)
			})
		})

		Convey("When percentiles are rescaled against available marks", func() {
			statistics, err := stats.Aggregate(resultsFor("125", 20, 17))

			Convey("Then the raw mark figures stay raw and percentiles become percentages", func() {
				So(err, ShouldBeNil)
				So(statistics.Count, ShouldEqual, 1)
				So(statistics.Mean, ShouldEqual, 17.0)
				So(statistics.Stddev, ShouldEqual, 0.0)
				So(statistics.Min, ShouldEqual, 17)
				So(statistics.Max, ShouldEqual, 17)
				So(statistics.P50, ShouldEqual, 85.0)
			})
		})

		Convey("When every record has the same mark", func() {
			statistics, err := stats.Aggregate(resultsFor("126", 100, 65, 65, 65))

			Convey("Then zero variance is a normal result", func() {
				So(err, ShouldBeNil)
				So(statistics.Count, ShouldEqual, 3)
				So(statistics.Stddev, ShouldEqual, 0.0)
			})
		})

		Convey("When no records exist", func() {
			_, err := stats.Aggregate(nil)

			Convey("Then the empty set is signaled, never computed", func() {
				So(err, ShouldEqual, markrerrors.ErrTestNotFound)
			})
		})

		Convey("When records disagree on available marks", func() {
			results := resultsFor("127", 20, 10)
			later := resultsFor("127", 40, 30)
			later[0].StudentNumber = "Z"
			later[0].ScannedOn = later[0].ScannedOn.Add(time.Hour)
			results = append(results, later[0])

			statistics, err := stats.Aggregate(results)

			Convey("Then the most recently scanned value is used for rescaling", func() {
				So(err, ShouldBeNil)
				// marks 10,30 -> p50 = 20 marks of 40 available = 50%
				So(statistics.P50, ShouldEqual, 50.0)
			})
		})

		Convey("When available marks are zero", func() {
			_, err := stats.Aggregate(resultsFor("128", 0, 0))

			Convey("Then rescaling is refused", func() {
				So(err, ShouldEqual, markrerrors.ErrNoAvailableMarks)
			})
		})
	})
}
