package portal

import (
	"bytes"
	"errors"
	"fmt"
	"jntuh-results-backend/lib/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnexpectedPageShape means the portal returned a page that is neither a
// "no result" form nor the two tables a result page is made of.
var ErrUnexpectedPageShape = errors.New("unexpected result page shape")

type StudentDetails struct {
	Name        string `json:"NAME,omitempty"`
	RollNo      string `json:"Roll_No,omitempty"`
	FatherName  string `json:"FATHER_NAME,omitempty"`
	CollegeCode string `json:"COLLEGE_CODE,omitempty"`
}

func (d StudentDetails) Empty() bool {
	return d == StudentDetails{}
}

type Subject struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Internal string `json:"internal"`
	External string `json:"external"`
	Total    string `json:"total"`
	Grade    string `json:"grade"`
	Credits  string `json:"credits"`
	// Rcrv is set when the grade was changed by recounting or revaluation.
	Rcrv bool `json:"rcrv"`
}

const (
	GradeFail   = "F"
	GradeAbsent = "Ab"
)

// Passed is false for failed and absent grades.
func (s Subject) Passed() bool {
	return s.Grade != GradeFail && s.Grade != GradeAbsent
}

// ResultPage is everything one result page says about a student. The zero
// value is what a "no result" page parses to.
type ResultPage struct {
	Details  StudentDetails
	Subjects []Subject
}

func (p ResultPage) Empty() bool {
	return p.Details.Empty() && len(p.Subjects) == 0
}

const (
	column_subject_code = "SUBJECT CODE"
	column_subject_name = "SUBJECT NAME"
	column_grade        = "GRADE"
	column_credits      = "CREDITS(C)"
	column_internal     = "INTERNAL"
	column_external     = "EXTERNAL"
	column_total        = "TOTAL"

	rcrv_marker = "Change in Grade"
)

// ParseResultPage parses a result page. A page carrying the portal's "no
// result" form parses to an empty ResultPage and a nil error, anything else
// that does not look like a result page is ErrUnexpectedPageShape.
//
// Columns of the marks table are resolved by header name since their order
// differs between examinations.
func ParseResultPage(body []byte) (ResultPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ResultPage{}, fmt.Errorf("parse html: %w", err)
	}

	if doc.Find("form#myForm").Length() > 0 {
		return ResultPage{}, nil
	}

	tables := doc.Find("table")
	if tables.Length() < 2 {
		return ResultPage{}, fmt.Errorf(
			"%w: expected 2 tables, found %d",
			ErrUnexpectedPageShape, tables.Length(),
		)
	}

	details, err := parseDetails(tables.Eq(0))
	if err != nil {
		return ResultPage{}, err
	}
	subjects, err := parseSubjects(tables.Eq(1))
	if err != nil {
		return ResultPage{}, err
	}

	return ResultPage{
		Details:  details,
		Subjects: subjects,
	}, nil
}

// the details table is laid out as label/value pairs:
//
//	Hall Ticket No | <roll>        | Name         | <name>
//	Father Name    | <father name> | College Code | <code>
func parseDetails(table *goquery.Selection) (StudentDetails, error) {
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return StudentDetails{}, fmt.Errorf(
			"%w: details table has %d rows",
			ErrUnexpectedPageShape, rows.Length(),
		)
	}
	first := rows.Eq(0).Find("td")
	second := rows.Eq(1).Find("td")
	if first.Length() < 4 || second.Length() < 4 {
		return StudentDetails{}, fmt.Errorf(
			"%w: details table has %d and %d cells",
			ErrUnexpectedPageShape, first.Length(), second.Length(),
		)
	}

	return StudentDetails{
		RollNo:      htmlutil.SelectionText(first.Eq(1)),
		Name:        htmlutil.SelectionText(first.Eq(3)),
		FatherName:  htmlutil.SelectionText(second.Eq(1)),
		CollegeCode: htmlutil.SelectionText(second.Eq(3)),
	}, nil
}

type columns struct {
	code, name, grade, credits int
	internal, external, total  int
}

func (c columns) highestRequired() int {
	return max(c.code, c.name, c.grade, c.credits)
}

func resolveColumns(header *goquery.Selection) (columns, error) {
	index := map[string]int{}
	header.Find("b").Each(func(i int, b *goquery.Selection) {
		name := strings.ToUpper(htmlutil.SelectionText(b))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	})

	required := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return -1, fmt.Errorf("%w: missing column %q", ErrUnexpectedPageShape, name)
		}
		return i, nil
	}
	optional := func(name string) int {
		i, ok := index[name]
		if !ok {
			return -1
		}
		return i
	}

	var c columns
	var err error
	if c.code, err = required(column_subject_code); err != nil {
		return columns{}, err
	}
	if c.name, err = required(column_subject_name); err != nil {
		return columns{}, err
	}
	if c.grade, err = required(column_grade); err != nil {
		return columns{}, err
	}
	if c.credits, err = required(column_credits); err != nil {
		return columns{}, err
	}
	c.internal = optional(column_internal)
	c.external = optional(column_external)
	c.total = optional(column_total)

	return c, nil
}

func cellText(cells *goquery.Selection, i int) string {
	if i < 0 || i >= cells.Length() {
		return ""
	}
	return htmlutil.SelectionText(cells.Eq(i))
}

func parseSubjects(table *goquery.Selection) ([]Subject, error) {
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("%w: marks table is empty", ErrUnexpectedPageShape)
	}

	cols, err := resolveColumns(rows.Eq(0))
	if err != nil {
		return nil, err
	}

	var subjects []Subject
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		// spacer and footer rows
		if cells.Length() <= cols.highestRequired() {
			return
		}
		code := cellText(cells, cols.code)
		if code == "" {
			return
		}
		subjects = append(subjects, Subject{
			Code:     code,
			Name:     cellText(cells, cols.name),
			Internal: cellText(cells, cols.internal),
			External: cellText(cells, cols.external),
			Total:    cellText(cells, cols.total),
			Grade:    cellText(cells, cols.grade),
			Credits:  cellText(cells, cols.credits),
			Rcrv:     strings.Contains(htmlutil.SelectionText(cells.Last()), rcrv_marker),
		})
	})

	return subjects, nil
}
