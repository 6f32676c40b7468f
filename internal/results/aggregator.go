package results

import (
	"context"
	"errors"
	"fmt"
	"jntuh-results-backend/internal/components/assert"
	"jntuh-results-backend/internal/components/telemetry"
	"jntuh-results-backend/internal/curriculum"
	"jntuh-results-backend/internal/examcodes"
	"jntuh-results-backend/internal/rollno"
	"maps"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	report_aggregator_directory = "aggregator.directory"
	report_aggregator_cache     = "aggregator.cache"

	// an aggregation is shared by every caller asking for the same key, so it
	// runs detached from them under this bound instead.
	aggregationTimeout = time.Minute * 2
)

var ErrUnknownSemester = errors.New("unknown semester")

var meter = otel.Meter("jntuh-results/results")
var semesterCounter, _ = meter.Int64Counter(
	"results.semester",
	metric.WithDescription("semester aggregations by outcome"),
)

// DirectorySource is satisfied by *examcodes.Provider.
type DirectorySource interface {
	Get(ctx context.Context) (examcodes.Directory, error)
}

type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	// PoolSize bounds the result pages fetched at once.
	PoolSize int64
}

func DefaultOptions() Options {
	return Options{
		CacheSize: 1024,
		CacheTTL:  time.Minute * 30,
		PoolSize:  DefaultPoolSize,
	}
}

type cacheKey struct {
	roll     string
	semester string
}

// Aggregator is safe for concurrent use. It owns the result cache and the
// fetch pool, every aggregation it runs gets its own accumulator.
type Aggregator struct {
	directory DirectorySource
	pool      *Pool
	cache     *expirable.LRU[cacheKey, SemesterResult]
	group     singleflight.Group
	tel       telemetry.API
}

func NewAggregator(directory DirectorySource, fetcher Fetcher, opts Options, tel telemetry.API) *Aggregator {
	assert.NotNil(directory, "directory")
	assert.NotNil(fetcher, "fetcher")
	assert.NotNil(tel, "telemetry")

	defaults := DefaultOptions()
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaults.CacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaults.CacheTTL
	}

	return &Aggregator{
		directory: directory,
		pool:      NewPool(fetcher, opts.PoolSize),
		cache:     expirable.NewLRU[cacheKey, SemesterResult](opts.CacheSize, nil, opts.CacheTTL),
		tel:       telemetry.NewScopedAPI("results", tel),
	}
}

// SemesterResult returns the result of roll for one semester. Errors are
// returned for malformed roll numbers, unknown semesters and an unavailable
// exam code directory, everything else is an Outcome.
func (a *Aggregator) SemesterResult(ctx context.Context, roll, semester string) (SemesterResult, error) {
	if !curriculum.IsSemester(semester) {
		return SemesterResult{}, fmt.Errorf("%w: %q", ErrUnknownSemester, semester)
	}
	class, err := rollno.Classify(roll)
	if err != nil {
		return SemesterResult{}, err
	}
	if class.SkipsSemester(semester) {
		semesterCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", OutcomeNoData.String())))
		return noData(), nil
	}

	key := cacheKey{roll: roll, semester: semester}
	if cached, ok := a.cache.Get(key); ok {
		a.tel.ReportDebug(report_aggregator_cache, roll, semester)
		return copyResult(cached), nil
	}

	shared := a.group.DoChan(roll+"/"+semester, func() (any, error) {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), aggregationTimeout)
		defer cancel()

		dir, err := a.directory.Get(workCtx)
		if err != nil {
			a.tel.ReportBroken(report_aggregator_directory, err)
			return SemesterResult{}, err
		}
		result, err := aggregateSemester(workCtx, semesterJob{
			roll:     roll,
			semester: semester,
			class:    class,
			codes:    dir.Codes(class.Degree, class.Regulation, semester),
			fetcher:  a.pool,
			tel:      a.tel,
		})
		if err != nil {
			return SemesterResult{}, err
		}
		semesterCounter.Add(workCtx, 1, metric.WithAttributes(attribute.String("outcome", result.Outcome.String())))
		a.cache.Add(key, result)
		return result, nil
	})

	select {
	case res := <-shared:
		if res.Err != nil {
			return SemesterResult{}, res.Err
		}
		return copyResult(res.Val.(SemesterResult)), nil
	case <-ctx.Done():
		// the aggregation keeps going for the other callers and the cache
		return SemesterResult{}, ctx.Err()
	}
}

// AcademicResult aggregates every semester of roll concurrently and assembles
// them in semester order. Details come from the earliest semester with
// results.
func (a *Aggregator) AcademicResult(ctx context.Context, roll string) (AcademicResult, error) {
	_, err := rollno.Classify(roll)
	if err != nil {
		return AcademicResult{}, err
	}

	semesters := make([]SemesterResult, len(curriculum.Semesters))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, semester := range curriculum.Semesters {
		group.Go(func() error {
			result, err := a.SemesterResult(groupCtx, roll, semester)
			if err != nil {
				return err
			}
			semesters[i] = result
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		return AcademicResult{}, err
	}

	out := AcademicResult{Results: []SemesterEntry{}}
	for i, result := range semesters {
		if !result.Outcome.Contributes() {
			continue
		}
		if out.Details.Empty() {
			out.Details = result.Details
		}
		out.Results = append(out.Results, SemesterEntry{
			Semester: curriculum.Semesters[i],
			Result:   result.Result,
		})
	}
	if out.Details.Empty() {
		out.Details.RollNo = InvalidHallticket
	}

	return out, nil
}

// cached results are shared, callers get their own map.
func copyResult(result SemesterResult) SemesterResult {
	result.Result = maps.Clone(result.Result)
	return result
}
