// Package results aggregates the result pages of a student into semester and
// academic results.
package results

import (
	"bytes"
	"encoding/json"
	"jntuh-results-backend/internal/portal"
)

// InvalidHallticket is put in place of the roll number when no exam code
// produced a result for the student.
const InvalidHallticket = "Invalid Hallticket Number"

// Outcome is how a semester aggregation ended.
type Outcome int

const (
	// OutcomePassed means every subject was passed, later exam codes were not fetched.
	OutcomePassed Outcome = iota
	// OutcomePartial means every exam code was tried and some subjects remain failed or absent.
	OutcomePartial
	// OutcomeNoData means the student cannot have results for the semester.
	OutcomeNoData
	// OutcomeInvalid means no exam code produced a result for the student.
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassed:
		return "passed"
	case OutcomePartial:
		return "partial"
	case OutcomeNoData:
		return "no_data"
	case OutcomeInvalid:
		return "invalid"
	}
	return "unknown"
}

// Contributes reports whether a semester with this outcome is part of an
// academic result.
func (o Outcome) Contributes() bool {
	return o == OutcomePassed || o == OutcomePartial
}

// SemesterResult is the result of one student for one semester, keyed by
// subject code.
type SemesterResult struct {
	Details portal.StudentDetails     `json:"Details"`
	Result  map[string]portal.Subject `json:"Result"`
	Outcome Outcome                   `json:"-"`
}

func noData() SemesterResult {
	return SemesterResult{
		Result:  map[string]portal.Subject{},
		Outcome: OutcomeNoData,
	}
}

func invalid() SemesterResult {
	return SemesterResult{
		Details: portal.StudentDetails{RollNo: InvalidHallticket},
		Result:  map[string]portal.Subject{},
		Outcome: OutcomeInvalid,
	}
}

// SemesterEntry is one semester of an academic result, it renders as
// {"<semester>": {<subject code>: <subject>}}.
type SemesterEntry struct {
	Semester string
	Result   map[string]portal.Subject
}

func (e SemesterEntry) MarshalJSON() ([]byte, error) {
	label, err := json.Marshal(e.Semester)
	if err != nil {
		return nil, err
	}
	result, err := json.Marshal(e.Result)
	if err != nil {
		return nil, err
	}

	buff := bytes.NewBuffer(nil)
	buff.WriteByte('{')
	buff.Write(label)
	buff.WriteByte(':')
	buff.Write(result)
	buff.WriteByte('}')
	return buff.Bytes(), nil
}

func (e *SemesterEntry) UnmarshalJSON(buff []byte) error {
	var entry map[string]map[string]portal.Subject
	err := json.Unmarshal(buff, &entry)
	if err != nil {
		return err
	}
	for semester, result := range entry {
		e.Semester = semester
		e.Result = result
	}
	return nil
}

// AcademicResult is every semester result of a student in semester order.
// Semesters without results are left out.
type AcademicResult struct {
	Details portal.StudentDetails `json:"Details"`
	Results []SemesterEntry       `json:"results"`
}
