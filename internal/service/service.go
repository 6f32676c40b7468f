// Package service is the boundary between the result aggregation and its
// callers. Nothing crosses it as a Go error, failures are rendered into the
// responses with the HTTP status they map to.
package service

import (
	"context"
	"errors"
	"fmt"
	"jntuh-results-backend/internal/components/assert"
	"jntuh-results-backend/internal/components/telemetry"
	"jntuh-results-backend/internal/curriculum"
	"jntuh-results-backend/internal/examcodes"
	"jntuh-results-backend/internal/portal"
	"jntuh-results-backend/internal/results"
	"jntuh-results-backend/internal/rollno"
	"jntuh-results-backend/lib/textutil"
	"net/http"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	report_service_semester  = "service.semester-result"
	report_service_academic  = "service.academic-result"
	report_service_exam_code = "service.exam-codes"

	noDataMessage = "No data available for this semester"

	// suggestions below this similarity are not worth showing
	minSuggestionSimilarity = 0.7

	// nginx's status for a client that went away before the response
	statusClientClosedRequest = 499
)

// ResultsAPI is satisfied by *results.Aggregator.
type ResultsAPI interface {
	SemesterResult(ctx context.Context, roll, semester string) (results.SemesterResult, error)
	AcademicResult(ctx context.Context, roll string) (results.AcademicResult, error)
}

// ExamCodesAPI is satisfied by *examcodes.Provider.
type ExamCodesAPI interface {
	Get(ctx context.Context) (examcodes.Directory, error)
}

type SemesterResponse struct {
	Details portal.StudentDetails     `json:"Details"`
	Result  map[string]portal.Subject `json:"Result"`
	Error   string                    `json:"error,omitempty"`
	Status  int                       `json:"-"`
}

type AcademicResponse struct {
	Details portal.StudentDetails   `json:"Details"`
	Results []results.SemesterEntry `json:"results"`
	Error   string                  `json:"error,omitempty"`
	Status  int                     `json:"-"`
}

type ExamCodesResponse struct {
	Data   examcodes.Directory `json:"data,omitempty"`
	Error  string              `json:"error,omitempty"`
	Status int                 `json:"-"`
}

type Service struct {
	results   ResultsAPI
	examCodes ExamCodesAPI
	tel       telemetry.API
}

type serviceConfig struct {
	tel telemetry.API
}

type Option func(cfg *serviceConfig)

func WithCustomTelemetryAPI(tel telemetry.API) Option {
	return func(cfg *serviceConfig) {
		cfg.tel = tel
	}
}

func NewService(resultsAPI ResultsAPI, examCodes ExamCodesAPI, options ...Option) Service {
	assert.NotNil(resultsAPI, "results")
	assert.NotNil(examCodes, "exam codes")

	cfg := serviceConfig{tel: telemetry.SlogAPI{}}
	for _, opt := range options {
		opt(&cfg)
	}

	return Service{
		results:   resultsAPI,
		examCodes: examCodes,
		tel:       telemetry.NewScopedAPI("service", cfg.tel),
	}
}

// SuggestSemester returns the semester label closest to label, or "" when
// nothing is close enough.
func SuggestSemester(label string) string {
	best := ""
	bestSimilarity := 0.0
	for _, semester := range curriculum.Semesters {
		similarity := matchr.JaroWinkler(label, semester, false)
		if similarity > bestSimilarity {
			best = semester
			bestSimilarity = similarity
		}
	}
	if bestSimilarity < minSuggestionSimilarity {
		return ""
	}
	return best
}

// describe maps an error to the message and status shown to the caller.
func (s Service) describe(id string, err error, semester string) (string, int) {
	switch {
	case errors.Is(err, rollno.ErrMalformedRollNumber):
		return err.Error(), http.StatusBadRequest
	case errors.Is(err, results.ErrUnknownSemester):
		msg := fmt.Sprintf("unknown semester %q, expected one of %s", semester, strings.Join(curriculum.Semesters, ", "))
		if suggestion := SuggestSemester(semester); suggestion != "" {
			msg = fmt.Sprintf("unknown semester %q, did you mean %q?", semester, suggestion)
		}
		return msg, http.StatusBadRequest
	case errors.Is(err, examcodes.ErrNetwork), errors.Is(err, examcodes.ErrNoExamCodes):
		s.tel.ReportBroken(id, err)
		return "exam codes are unavailable, the results portal could not be reached", http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		s.tel.ReportWarning(id, err)
		return "the results portal took too long to respond", http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		s.tel.ReportDebug(id, err)
		return "request cancelled", statusClientClosedRequest
	}
	s.tel.ReportBroken(id, err)
	return "internal error", http.StatusInternalServerError
}

func (s Service) SemesterResult(ctx context.Context, htno, semester string) SemesterResponse {
	roll := textutil.NormalizeIdentifier(htno)
	semester = textutil.Compact(semester)

	result, err := s.results.SemesterResult(ctx, roll, semester)
	if err != nil {
		msg, status := s.describe(report_service_semester, err, semester)
		return SemesterResponse{
			Details: portal.StudentDetails{},
			Result:  map[string]portal.Subject{},
			Error:   msg,
			Status:  status,
		}
	}

	res := SemesterResponse{
		Details: result.Details,
		Result:  result.Result,
		Status:  http.StatusOK,
	}
	if result.Outcome == results.OutcomeNoData {
		res.Error = noDataMessage
	}
	return res
}

func (s Service) AcademicResult(ctx context.Context, htno string) AcademicResponse {
	roll := textutil.NormalizeIdentifier(htno)

	result, err := s.results.AcademicResult(ctx, roll)
	if err != nil {
		msg, status := s.describe(report_service_academic, err, "")
		return AcademicResponse{
			Results: []results.SemesterEntry{},
			Error:   msg,
			Status:  status,
		}
	}

	return AcademicResponse{
		Details: result.Details,
		Results: result.Results,
		Status:  http.StatusOK,
	}
}

func (s Service) ExamCodes(ctx context.Context) ExamCodesResponse {
	dir, err := s.examCodes.Get(ctx)
	if err != nil {
		msg, status := s.describe(report_service_exam_code, err, "")
		return ExamCodesResponse{Error: msg, Status: status}
	}
	return ExamCodesResponse{Data: dir, Status: http.StatusOK}
}
