package results

import (
	"context"
	"jntuh-results-backend/internal/components/telemetry"
	"jntuh-results-backend/internal/portal"
	"jntuh-results-backend/internal/rollno"
	"sync"
)

const (
	report_semester_fetch    = "semester.fetch"
	report_semester_parse    = "semester.parse"
	report_semester_identity = "semester.identity"
)

// semesterJob is everything one (roll, semester) aggregation needs. The
// accumulator lives on the stack of aggregateSemester, so concurrent jobs
// never share state.
type semesterJob struct {
	roll     string
	semester string
	class    rollno.Classification
	// codes are tried in order.
	codes   []string
	fetcher Fetcher
	tel     telemetry.API
}

type accumulator struct {
	details  portal.StudentDetails
	subjects map[string]portal.Subject
}

// merge folds a page into the accumulator, later subjects overwrite earlier
// ones with the same code. Once details are known, pages about a different
// roll number are dropped whole.
func (a *accumulator) merge(page portal.ResultPage, tel telemetry.API) {
	if page.Empty() {
		return
	}
	if !a.details.Empty() && page.Details.RollNo != a.details.RollNo {
		tel.ReportWarning(
			report_semester_identity,
			telemetry.KV{Key: "expected", Value: a.details.RollNo},
			telemetry.KV{Key: "got", Value: page.Details.RollNo},
		)
		return
	}
	if a.details.Empty() {
		a.details = page.Details
	}
	for _, subject := range page.Subjects {
		a.subjects[subject.Code] = subject
	}
}

func (a *accumulator) passed() bool {
	if len(a.subjects) == 0 {
		return false
	}
	for _, subject := range a.subjects {
		if !subject.Passed() {
			return false
		}
	}
	return true
}

// aggregateSemester tries the exam codes of a semester in order and stops at
// the first one after which every subject is passed. The only error it returns
// is the error of ctx, fetch and parse failures count as pages without results.
func aggregateSemester(ctx context.Context, job semesterJob) (SemesterResult, error) {
	if job.class.SkipsSemester(job.semester) {
		return noData(), nil
	}
	if len(job.codes) == 0 {
		return invalid(), nil
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	acc := accumulator{subjects: map[string]portal.Subject{}}
	for _, code := range job.codes {
		if fetchCtx.Err() != nil {
			break
		}
		for _, page := range fetchVariants(fetchCtx, job, code) {
			acc.merge(page, job.tel)
		}
		if acc.passed() {
			return SemesterResult{
				Details: acc.details,
				Result:  acc.subjects,
				Outcome: OutcomePassed,
			}, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return SemesterResult{}, err
	}
	if len(acc.subjects) == 0 {
		return invalid(), nil
	}
	return SemesterResult{
		Details: acc.details,
		Result:  acc.subjects,
		Outcome: OutcomePartial,
	}, nil
}

// fetchVariants fetches every variant of a code concurrently and returns the
// parsed pages in merge order. Pages that failed are empty.
func fetchVariants(ctx context.Context, job semesterJob, code string) []portal.ResultPage {
	pages := make([]portal.ResultPage, len(portal.Variants))

	var wg sync.WaitGroup
	for i, variant := range portal.Variants {
		wg.Add(1)
		go func() {
			defer wg.Done()

			q := portal.ResultQuery{
				ExamCode: code,
				Variant:  variant,
				Degree:   job.class.Degree,
				RollNo:   job.roll,
			}
			body, err := job.fetcher.ResultPage(ctx, q)
			if err != nil {
				if ctx.Err() == nil {
					job.tel.ReportWarning(report_semester_fetch, err, code, string(variant))
				}
				return
			}
			page, err := portal.ParseResultPage(body)
			if err != nil {
				job.tel.ReportWarning(report_semester_parse, err, code, string(variant))
				return
			}
			pages[i] = page
		}()
	}
	wg.Wait()

	return pages
}
