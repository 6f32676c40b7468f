package results

import (
	"context"
	"fmt"
	"jntuh-results-backend/internal/curriculum"
	"jntuh-results-backend/internal/examcodes"
	"jntuh-results-backend/internal/portal"
	"strings"
	"sync"
	"sync/atomic"
)

type subjectRow struct {
	code  string
	grade string
	rcrv  bool
}

const noResultPage = `<html><body><form id="myForm" action="resultAction"><input name="htno"></form></body></html>`

func resultPage(roll string, rows ...subjectRow) string {
	var body strings.Builder
	fmt.Fprintf(&body, `<html><body>
<table>
<tr><td><b>Hall Ticket No</b></td><td><b>%s</b></td><td><b>Name</b></td><td><b>RAVI KUMAR</b></td></tr>
<tr><td><b>Father Name</b></td><td><b>SRINIVAS RAO</b></td><td><b>College Code</b></td><td><b>E5</b></td></tr>
</table>
<table>
<tr><th><b>SUBJECT CODE</b></th><th><b>SUBJECT NAME</b></th><th><b>INTERNAL</b></th><th><b>EXTERNAL</b></th><th><b>TOTAL</b></th><th><b>GRADE</b></th><th><b>CREDITS(C)</b></th><th><b>STATUS</b></th></tr>
`, roll)
	for _, row := range rows {
		status := "No Change"
		if row.rcrv {
			status = "Change in Grade"
		}
		fmt.Fprintf(
			&body,
			"<tr><td>%s</td><td>SUBJECT %s</td><td>20</td><td>40</td><td>60</td><td>%s</td><td>3</td><td>%s</td></tr>\n",
			row.code, row.code, row.grade, status,
		)
	}
	body.WriteString("</table></body></html>")
	return body.String()
}

type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	calls  map[string]int
	total  atomic.Int32
	before func(ctx context.Context, q portal.ResultQuery)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func pageKey(code string, variant portal.Variant) string {
	return code + "/" + string(variant)
}

func (f *fakeFetcher) set(code string, variant portal.Variant, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[pageKey(code, variant)] = body
}

func (f *fakeFetcher) fail(code string, variant portal.Variant, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[pageKey(code, variant)] = err
}

func (f *fakeFetcher) count(code string, variant portal.Variant) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[pageKey(code, variant)]
}

func (f *fakeFetcher) ResultPage(ctx context.Context, q portal.ResultQuery) ([]byte, error) {
	f.total.Add(1)
	if f.before != nil {
		f.before(ctx, q)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := pageKey(q.ExamCode, q.Variant)
	f.calls[key]++
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if body, ok := f.pages[key]; ok {
		return []byte(body), nil
	}
	return []byte(noResultPage), nil
}

type fakeDirectory struct {
	dir   examcodes.Directory
	err   error
	calls atomic.Int32
}

func (d *fakeDirectory) Get(ctx context.Context) (examcodes.Directory, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.dir, nil
}

func directoryWith(degree curriculum.Degree, reg curriculum.Regulation, semester string, codes ...string) examcodes.Directory {
	dir := examcodes.NewDirectory()
	dir[degree][reg][semester] = codes
	return dir
}

type fetcherFunc func(ctx context.Context, q portal.ResultQuery) ([]byte, error)

func (f fetcherFunc) ResultPage(ctx context.Context, q portal.ResultQuery) ([]byte, error) {
	return f(ctx, q)
}
