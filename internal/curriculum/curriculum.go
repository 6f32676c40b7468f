// Package curriculum holds the vocabulary the portal uses to describe a student's
// program: degrees, regulations and semester labels.
package curriculum

import "strings"

type Degree string

const (
	BTech     Degree = "btech"
	BPharmacy Degree = "bpharmacy"
)

// Degrees is in the order the portal home page lists their tables.
var Degrees = []Degree{BTech, BPharmacy}

type Regulation string

const (
	R17 Regulation = "R17"
	R18 Regulation = "R18"
	R22 Regulation = "R22"
)

// Regulations returns the regulations the portal lists for a degree.
func Regulations(degree Degree) []Regulation {
	switch degree {
	case BTech:
		return []Regulation{R18, R22}
	case BPharmacy:
		return []Regulation{R17, R22}
	}
	return nil
}

// Semesters is the canonical semester order, "1-1" through "4-2".
var Semesters = []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2", "4-1", "4-2"}

// IsSemester reports whether label is one of Semesters.
func IsSemester(label string) bool {
	return SemesterIndex(label) >= 0
}

// SemesterIndex returns the position of label in Semesters or -1.
func SemesterIndex(label string) int {
	for i, s := range Semesters {
		if s == label {
			return i
		}
	}
	return -1
}

// FirstYear reports whether label belongs to the first year, which lateral
// entry students skip.
func FirstYear(label string) bool {
	return label == "1-1" || label == "1-2"
}

type semesterToken struct {
	token string
	label string
}

// the padding on both sides keeps " I Year I " from matching inside " II Year I ".
var semesterTokens = []semesterToken{
	{token: " I Year I ", label: "1-1"},
	{token: " I Year II ", label: "1-2"},
	{token: " II Year I ", label: "2-1"},
	{token: " II Year II ", label: "2-2"},
	{token: " III Year I ", label: "3-1"},
	{token: " III Year II ", label: "3-2"},
	{token: " IV Year I ", label: "4-1"},
	{token: " IV Year II ", label: "4-2"},
}

// SemesterFromListing finds the semester label named in the text of a results
// listing, e.g. "B.Tech III Year I Semester (R18) Regular Examinations".
func SemesterFromListing(text string) (string, bool) {
	for _, t := range semesterTokens {
		if strings.Contains(text, t.token) {
			return t.label, true
		}
	}
	return "", false
}

// RegulationsFromListing returns every regulation of degree named in text.
func RegulationsFromListing(degree Degree, text string) []Regulation {
	var out []Regulation
	for _, r := range Regulations(degree) {
		if strings.Contains(text, string(r)) {
			out = append(out, r)
		}
	}
	return out
}
