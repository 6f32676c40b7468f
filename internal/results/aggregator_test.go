package results

import (
	"context"
	"encoding/json"
	"errors"
	"jntuh-results-backend/internal/components/telemetry"
	"jntuh-results-backend/internal/curriculum"
	"jntuh-results-backend/internal/portal"
	"jntuh-results-backend/internal/rollno"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestAggregator(dir DirectorySource, fetcher Fetcher) *Aggregator {
	return NewAggregator(dir, fetcher, Options{
		CacheSize: 16,
		CacheTTL:  time.Minute,
		PoolSize:  4,
	}, &telemetry.MemoryAPI{})
}

func TestSemesterResultCachesByRollAndSemester(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set("1662", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "A"},
	))
	dir := &fakeDirectory{dir: directoryWith(curriculum.BTech, curriculum.R18, "3-1", "1662")}
	aggregator := newTestAggregator(dir, fetcher)
	ctx := context.Background()

	first, err := aggregator.SemesterResult(ctx, regularRoll, "3-1")
	require.NoError(t, err)
	require.Equal(t, OutcomePassed, first.Outcome)
	require.EqualValues(t, 2, fetcher.total.Load())

	second, err := aggregator.SemesterResult(ctx, regularRoll, "3-1")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 2, fetcher.total.Load())

	// a different semester of the same roll is a different key
	_, err = aggregator.SemesterResult(ctx, regularRoll, "3-2")
	require.NoError(t, err)
	require.EqualValues(t, 2, fetcher.total.Load())
	require.EqualValues(t, 2, dir.calls.Load())

	// callers cannot reach into the cache
	delete(second.Result, "CS501PC")
	third, err := aggregator.SemesterResult(ctx, regularRoll, "3-1")
	require.NoError(t, err)
	require.Len(t, third.Result, 1)
}

func TestSemesterResultCollapsesConcurrentRequests(t *testing.T) {
	release := make(chan struct{})
	fetcher := newFakeFetcher()
	fetcher.set("1662", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "A"},
	))
	fetcher.before = func(context.Context, portal.ResultQuery) {
		<-release
	}
	dir := &fakeDirectory{dir: directoryWith(curriculum.BTech, curriculum.R18, "3-1", "1662")}
	aggregator := newTestAggregator(dir, fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := aggregator.SemesterResult(context.Background(), regularRoll, "3-1")
			if err != nil || result.Outcome != OutcomePassed {
				t.Errorf("unexpected result: %v %v", result.Outcome, err)
			}
		}()
	}
	time.Sleep(time.Millisecond * 50)
	close(release)
	wg.Wait()

	require.EqualValues(t, 2, fetcher.total.Load())
}

func TestSemesterResultOutlivesCancelledCaller(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set("1662", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "A"},
	))
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	blocking := fetcherFunc(func(ctx context.Context, q portal.ResultQuery) ([]byte, error) {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return fetcher.ResultPage(ctx, q)
	})
	dir := &fakeDirectory{dir: directoryWith(curriculum.BTech, curriculum.R18, "3-1", "1662")}
	aggregator := newTestAggregator(dir, blocking)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	firstErr := make(chan error, 1)
	go func() {
		_, err := aggregator.SemesterResult(firstCtx, regularRoll, "3-1")
		firstErr <- err
	}()
	<-started

	type outcome struct {
		result SemesterResult
		err    error
	}
	second := make(chan outcome, 1)
	go func() {
		result, err := aggregator.SemesterResult(context.Background(), regularRoll, "3-1")
		second <- outcome{result: result, err: err}
	}()
	time.Sleep(time.Millisecond * 50)

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)

	got := <-second
	require.NoError(t, got.err)
	require.Equal(t, OutcomePassed, got.result.Outcome)
	require.EqualValues(t, 1, dir.calls.Load())
	require.EqualValues(t, 2, fetcher.total.Load())

	// the finished aggregation was cached for later callers
	_, err := aggregator.SemesterResult(context.Background(), regularRoll, "3-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, fetcher.total.Load())
}

func TestSemesterResultLateralSkipsDirectory(t *testing.T) {
	fetcher := newFakeFetcher()
	dir := &fakeDirectory{err: errors.New("unreachable")}
	aggregator := newTestAggregator(dir, fetcher)

	for _, semester := range []string{"1-1", "1-2"} {
		result, err := aggregator.SemesterResult(context.Background(), "22E55A0501", semester)
		require.NoError(t, err)
		require.Equal(t, OutcomeNoData, result.Outcome)
	}
	require.EqualValues(t, 0, fetcher.total.Load())
	require.EqualValues(t, 0, dir.calls.Load())
}

func TestSemesterResultErrors(t *testing.T) {
	dirErr := errors.New("unreachable")
	aggregator := newTestAggregator(&fakeDirectory{err: dirErr}, newFakeFetcher())
	ctx := context.Background()

	_, err := aggregator.SemesterResult(ctx, "20E5", "3-1")
	require.ErrorIs(t, err, rollno.ErrMalformedRollNumber)

	_, err = aggregator.SemesterResult(ctx, regularRoll, "3-3")
	require.ErrorIs(t, err, ErrUnknownSemester)

	_, err = aggregator.SemesterResult(ctx, regularRoll, "3-1")
	require.ErrorIs(t, err, dirErr)
}

func TestAcademicResult(t *testing.T) {
	dir := directoryWith(curriculum.BTech, curriculum.R18, "1-1", "1500")
	dir[curriculum.BTech][curriculum.R18]["2-1"] = []string{"1600"}
	dir[curriculum.BTech][curriculum.R18]["3-1"] = []string{"1662"}

	fetcher := newFakeFetcher()
	fetcher.set("1600", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS301PC", grade: "A"},
		subjectRow{code: "CS302PC", grade: "B"},
		subjectRow{code: "CS303PC", grade: "O"},
		subjectRow{code: "CS304PC", grade: "C"},
		subjectRow{code: "CS305PC", grade: "A+"},
	))
	fetcher.set("1662", portal.VariantRegular, resultPage(regularRoll,
		subjectRow{code: "CS501PC", grade: "F"},
	))

	aggregator := newTestAggregator(&fakeDirectory{dir: dir}, fetcher)
	result, err := aggregator.AcademicResult(context.Background(), regularRoll)
	require.NoError(t, err)

	require.Equal(t, regularRoll, result.Details.RollNo)
	require.Len(t, result.Results, 2)
	require.Equal(t, "2-1", result.Results[0].Semester)
	require.Len(t, result.Results[0].Result, 5)
	require.Equal(t, "3-1", result.Results[1].Semester)
	require.Equal(t, "F", result.Results[1].Result["CS501PC"].Grade)
}

func TestAcademicResultInvalid(t *testing.T) {
	dir := directoryWith(curriculum.BTech, curriculum.R18, "1-1", "1500")
	aggregator := newTestAggregator(&fakeDirectory{dir: dir}, newFakeFetcher())

	result, err := aggregator.AcademicResult(context.Background(), regularRoll)
	require.NoError(t, err)
	require.Equal(t, InvalidHallticket, result.Details.RollNo)
	require.Empty(t, result.Results)

	buff, err := json.Marshal(result)
	require.NoError(t, err)
	require.JSONEq(t, `{"Details": {"Roll_No": "Invalid Hallticket Number"}, "results": []}`, string(buff))
}

func TestAcademicResultPropagatesDirectoryErrors(t *testing.T) {
	dirErr := errors.New("unreachable")
	aggregator := newTestAggregator(&fakeDirectory{err: dirErr}, newFakeFetcher())

	_, err := aggregator.AcademicResult(context.Background(), regularRoll)
	require.ErrorIs(t, err, dirErr)

	_, err = aggregator.AcademicResult(context.Background(), "E5")
	require.ErrorIs(t, err, rollno.ErrMalformedRollNumber)
}

func TestSemesterEntryJSON(t *testing.T) {
	entry := SemesterEntry{
		Semester: "2-1",
		Result: map[string]portal.Subject{
			"CS301PC": {Code: "CS301PC", Grade: "A", Credits: "3"},
		},
	}
	buff, err := json.Marshal(entry)
	require.NoError(t, err)
	require.JSONEq(t, `{"2-1": {"CS301PC": {
		"code": "CS301PC", "name": "", "internal": "", "external": "", "total": "",
		"grade": "A", "credits": "3", "rcrv": false
	}}}`, string(buff))

	var decoded SemesterEntry
	require.NoError(t, json.Unmarshal(buff, &decoded))
	require.Equal(t, entry, decoded)
}
