// Package examcodes discovers the exam codes the results portal uses for every
// degree, regulation and semester, and keeps them in a snapshot file so the
// home page is scraped at most once a day.
package examcodes

import (
	"fmt"
	"jntuh-results-backend/internal/curriculum"
	"jntuh-results-backend/internal/portal"
	"net/url"
	"regexp"
	"slices"
)

// Directory maps degree -> regulation -> semester label -> exam codes. Codes
// are distinct and in ascending order. A Directory returned by this package
// must be treated as read only.
type Directory map[curriculum.Degree]map[curriculum.Regulation]map[string][]string

// NewDirectory returns a directory holding every known degree, regulation and
// semester with no codes.
func NewDirectory() Directory {
	dir := Directory{}
	for _, degree := range curriculum.Degrees {
		dir[degree] = map[curriculum.Regulation]map[string][]string{}
		for _, reg := range curriculum.Regulations(degree) {
			semesters := map[string][]string{}
			for _, sem := range curriculum.Semesters {
				semesters[sem] = []string{}
			}
			dir[degree][reg] = semesters
		}
	}
	return dir
}

// Codes returns the exam codes of a semester, nil if there are none.
func (d Directory) Codes(degree curriculum.Degree, reg curriculum.Regulation, semester string) []string {
	codes := d[degree][reg][semester]
	if len(codes) == 0 {
		return nil
	}
	return codes
}

// Count is the number of codes across the whole directory.
func (d Directory) Count() int {
	n := 0
	for _, regs := range d {
		for _, sems := range regs {
			for _, codes := range sems {
				n += len(codes)
			}
		}
	}
	return n
}

func (d Directory) add(degree curriculum.Degree, reg curriculum.Regulation, semester, code string) {
	regs, ok := d[degree]
	if !ok {
		regs = map[curriculum.Regulation]map[string][]string{}
		d[degree] = regs
	}
	sems, ok := regs[reg]
	if !ok {
		sems = map[string][]string{}
		regs[reg] = sems
	}
	sems[semester] = append(sems[semester], code)
}

// codes the portal lists under a semester they do not belong to.
var excluded = map[curriculum.Degree]map[curriculum.Regulation]map[string][]string{
	curriculum.BTech: {
		curriculum.R18: {
			"3-1": {"1690"},
		},
	},
}

// compareCodes orders exam codes numerically, a shorter code of digits is
// always the smaller one.
func compareCodes(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Directory) normalize() {
	for degree, regs := range d {
		for reg, sems := range regs {
			for sem, codes := range sems {
				codes = slices.DeleteFunc(codes, func(code string) bool {
					return slices.Contains(excluded[degree][reg][sem], code)
				})
				slices.SortFunc(codes, compareCodes)
				sems[sem] = slices.Compact(codes)
			}
		}
	}
}

var examCodeParam = regexp.MustCompile(`^\d+$`)

func examCodeFromHref(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	code := u.Query().Get("examCode")
	if !examCodeParam.MatchString(code) {
		return "", false
	}
	return code, true
}

// Extract builds a directory out of the portal home page. The first table on
// the page lists B.Tech examinations and the second B.Pharmacy ones. Rows that
// link somewhere but cannot be fully understood are skipped and described in
// the returned errors, they never fail the whole extraction.
func Extract(body []byte) (Directory, []error) {
	dir := NewDirectory()

	tables, err := portal.ParseHomePage(body)
	if err != nil {
		return dir, []error{err}
	}

	var errs []error
	for i, degree := range curriculum.Degrees {
		if i >= len(tables) {
			errs = append(errs, fmt.Errorf("home page is missing the %s table", degree))
			continue
		}
		for _, row := range tables[i] {
			if row.Href == "" {
				continue
			}
			err := extractRow(dir, degree, row)
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	dir.normalize()
	return dir, errs
}

func extractRow(dir Directory, degree curriculum.Degree, row portal.Listing) error {
	code, ok := examCodeFromHref(row.Href)
	if !ok {
		return fmt.Errorf("%s row %q: no exam code in %q", degree, row.Text, row.Href)
	}
	semester, ok := curriculum.SemesterFromListing(row.Text)
	if !ok {
		return fmt.Errorf("%s row %q: no semester", degree, row.Text)
	}
	regs := curriculum.RegulationsFromListing(degree, row.Text)
	if len(regs) == 0 {
		return fmt.Errorf("%s row %q: no regulation", degree, row.Text)
	}
	for _, reg := range regs {
		dir.add(degree, reg, semester, code)
	}
	return nil
}
