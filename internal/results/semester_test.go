package results

import (
	"context"
	"errors"
	"jntuh-results-backend/internal/components/telemetry"
	"jntuh-results-backend/internal/portal"
	"jntuh-results-backend/internal/rollno"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const regularRoll = "20E51A0501"

func newJob(t testing.TB, fetcher Fetcher, semester string, codes ...string) (semesterJob, *telemetry.MemoryAPI) {
	t.Helper()
	class, err := rollno.Classify(regularRoll)
	require.NoError(t, err)
	tel := &telemetry.MemoryAPI{}
	return semesterJob{
		roll:     regularRoll,
		semester: semester,
		class:    class,
		codes:    codes,
		fetcher:  fetcher,
		tel:      tel,
	}, tel
}

func TestAggregateSemesterFirstPassingCodeWins(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := newFakeFetcher()
	fetcher.set("1662", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "B+"},
		subjectRow{code: "CS503PC", grade: "A"},
	))
	fetcher.set("1703", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "O"},
	))

	job, _ := newJob(t, fetcher, "3-1", "1662", "1703")
	result, err := aggregateSemester(context.Background(), job)
	require.NoError(t, err)

	require.Equal(t, OutcomePassed, result.Outcome)
	require.Equal(t, "B+", result.Result["CS501PC"].Grade)
	require.Len(t, result.Result, 2)
	require.Equal(t, regularRoll, result.Details.RollNo)

	require.EqualValues(t, 2, fetcher.total.Load())
	require.Equal(t, 0, fetcher.count("1703", portal.VariantRegular))
	require.Equal(t, 0, fetcher.count("1703", portal.VariantRevaluation))
}

func TestAggregateSemesterRevaluationOverwritesRegular(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set("1662", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "B+"},
		subjectRow{code: "CS502PC", grade: "F"},
	))
	fetcher.set("1662", portal.VariantRevaluation, resultPage(regularRoll,
		subjectRow{code: "CS502PC", grade: "P", rcrv: true},
	))

	job, _ := newJob(t, fetcher, "3-1", "1662", "1703")
	result, err := aggregateSemester(context.Background(), job)
	require.NoError(t, err)

	require.Equal(t, OutcomePassed, result.Outcome)
	require.Equal(t, "P", result.Result["CS502PC"].Grade)
	require.True(t, result.Result["CS502PC"].Rcrv)
	require.False(t, result.Result["CS501PC"].Rcrv)
	require.EqualValues(t, 2, fetcher.total.Load())
}

func TestAggregateSemesterLaterCodeClearsFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set("1662", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "B+"},
		subjectRow{code: "CS502PC", grade: "F"},
	))
	fetcher.set("1703", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS502PC", grade: "C"},
	))

	job, _ := newJob(t, fetcher, "3-1", "1662", "1703", "1750")
	result, err := aggregateSemester(context.Background(), job)
	require.NoError(t, err)

	require.Equal(t, OutcomePassed, result.Outcome)
	require.Equal(t, "C", result.Result["CS502PC"].Grade)
	require.Equal(t, "B+", result.Result["CS501PC"].Grade)
	require.EqualValues(t, 4, fetcher.total.Load())
	require.Equal(t, 0, fetcher.count("1750", portal.VariantRegular))
}

func TestAggregateSemesterPartial(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set("1662", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "B+"},
		subjectRow{code: "CS502PC", grade: "Ab"},
	))

	job, _ := newJob(t, fetcher, "3-1", "1662", "1703")
	result, err := aggregateSemester(context.Background(), job)
	require.NoError(t, err)

	require.Equal(t, OutcomePartial, result.Outcome)
	require.Equal(t, "Ab", result.Result["CS502PC"].Grade)
	require.EqualValues(t, 4, fetcher.total.Load())
}

func TestAggregateSemesterInvalid(t *testing.T) {
	t.Run("no page has results", func(t *testing.T) {
		fetcher := newFakeFetcher()
		job, _ := newJob(t, fetcher, "3-1", "1662", "1703")
		result, err := aggregateSemester(context.Background(), job)
		require.NoError(t, err)

		require.Equal(t, OutcomeInvalid, result.Outcome)
		require.Equal(t, InvalidHallticket, result.Details.RollNo)
		require.Empty(t, result.Result)
		require.EqualValues(t, 4, fetcher.total.Load())
	})

	t.Run("no exam codes", func(t *testing.T) {
		fetcher := newFakeFetcher()
		job, _ := newJob(t, fetcher, "4-2")
		result, err := aggregateSemester(context.Background(), job)
		require.NoError(t, err)

		require.Equal(t, OutcomeInvalid, result.Outcome)
		require.Equal(t, InvalidHallticket, result.Details.RollNo)
		require.EqualValues(t, 0, fetcher.total.Load())
	})
}

func TestAggregateSemesterLateralEntry(t *testing.T) {
	class, err := rollno.Classify("21E55A0501")
	require.NoError(t, err)
	require.True(t, class.Lateral)

	for _, semester := range []string{"1-1", "1-2"} {
		fetcher := newFakeFetcher()
		result, err := aggregateSemester(context.Background(), semesterJob{
			roll:     "21E55A0501",
			semester: semester,
			class:    class,
			codes:    []string{"1500"},
			fetcher:  fetcher,
			tel:      &telemetry.MemoryAPI{},
		})
		require.NoError(t, err)
		require.Equal(t, OutcomeNoData, result.Outcome, semester)
		require.EqualValues(t, 0, fetcher.total.Load(), semester)
	}
}

func TestAggregateSemesterIsolatesFailures(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.fail("1662", portal.VariantRegular, &portal.FetchError{URL: "/results/resultAction", StatusCode: 503})
	fetcher.set("1662", portal.VariantRevaluation, "<html><body><p>Service Unavailable</p></body></html>")
	fetcher.set("1703", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "A"},
	))

	job, tel := newJob(t, fetcher, "3-1", "1662", "1703")
	result, err := aggregateSemester(context.Background(), job)
	require.NoError(t, err)

	require.Equal(t, OutcomePassed, result.Outcome)
	require.Len(t, tel.Reports("warning", report_semester_fetch), 1)
	require.Len(t, tel.Reports("warning", report_semester_parse), 1)
}

func TestAggregateSemesterIgnoresOtherStudents(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set("1662", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS502PC", grade: "F"},
	))
	fetcher.set("1662", portal.VariantRevaluation, resultPage("20E51A0502",
		subjectRow{code: "CS502PC", grade: "A"},
	))

	job, tel := newJob(t, fetcher, "3-1", "1662")
	result, err := aggregateSemester(context.Background(), job)
	require.NoError(t, err)

	require.Equal(t, OutcomePartial, result.Outcome)
	require.Equal(t, "F", result.Result["CS502PC"].Grade)
	require.Equal(t, regularRoll, result.Details.RollNo)
	require.Len(t, tel.Reports("warning", report_semester_identity), 1)
}

func TestAggregateSemesterCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := newFakeFetcher()
	fetcher.before = func(context.Context, portal.ResultQuery) {
		cancel()
	}

	job, _ := newJob(t, fetcher, "3-1", "1662", "1703")
	_, err := aggregateSemester(ctx, job)
	require.True(t, errors.Is(err, context.Canceled), err)
	require.EqualValues(t, 2, fetcher.total.Load())
}
