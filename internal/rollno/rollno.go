// Package rollno derives a student's program from their hall ticket number.
//
// A hall ticket number such as "20E51A0501" is read positionally:
//
//	20    E5       1      A       0501
//	year  college  entry  degree  serial
//
// where an entry marker of '5' means the student joined in the second year
// (lateral entry) and a degree marker of 'A' means B.Tech.
package rollno

import (
	"errors"
	"fmt"
	"jntuh-results-backend/internal/curriculum"
)

var ErrMalformedRollNumber = errors.New("malformed roll number")

const minLength = 6

type Classification struct {
	Degree     curriculum.Degree
	Regulation curriculum.Regulation
	Lateral    bool
	// GraduationYear is the two digit year prefix, it is the year of admission.
	GraduationYear int
}

// Classify is pure and total over roll numbers of at least 6 characters whose
// first two characters are digits.
func Classify(roll string) (Classification, error) {
	if len(roll) < minLength {
		return Classification{}, fmt.Errorf("%w: %q is shorter than %d characters", ErrMalformedRollNumber, roll, minLength)
	}

	if !isDigit(roll[0]) || !isDigit(roll[1]) {
		return Classification{}, fmt.Errorf("%w: %q does not start with a two digit year", ErrMalformedRollNumber, roll)
	}
	year := int(roll[0]-'0')*10 + int(roll[1]-'0')

	degree := curriculum.BPharmacy
	if roll[5] == 'A' {
		degree = curriculum.BTech
	}
	lateral := roll[4] == '5'

	var regulation curriculum.Regulation
	switch {
	case year >= 23, year == 22 && !lateral:
		regulation = curriculum.R22
	case degree == curriculum.BTech:
		regulation = curriculum.R18
	default:
		regulation = curriculum.R17
	}

	return Classification{
		Degree:         degree,
		Regulation:     regulation,
		Lateral:        lateral,
		GraduationYear: year,
	}, nil
}

// SkipsSemester reports whether the student has no results for semester, this
// is true of first year semesters for lateral entry students.
func (c Classification) SkipsSemester(semester string) bool {
	return c.Lateral && curriculum.FirstYear(semester)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
