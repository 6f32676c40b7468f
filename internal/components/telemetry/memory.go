package telemetry

import (
	"strings"
	"sync"
)

// Report is a single call made against MemoryAPI.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

// MemoryAPI records every report in memory so tests can assert on them.
// It is safe for concurrent use.
type MemoryAPI struct {
	mu      sync.Mutex
	reports []Report
}

func (m *MemoryAPI) add(kind, id string, params []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, Report{Kind: kind, ID: id, Params: params})
}

func (m *MemoryAPI) ReportBroken(id string, params ...any) {
	m.add("broken", id, params)
}

func (m *MemoryAPI) ReportWarning(id string, params ...any) {
	m.add("warning", id, params)
}

func (m *MemoryAPI) ReportDebug(msg string, params ...any) {
	m.add("debug", msg, params)
}

func (m *MemoryAPI) ReportCount(id string, count int64) {
	m.add("count", id, []any{count})
}

// Reports returns the reports of a given kind whose id contains `id`.
// An empty id matches everything.
func (m *MemoryAPI) Reports(kind, id string) []Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Report
	for _, r := range m.reports {
		if r.Kind != kind {
			continue
		}
		if id != "" && !strings.Contains(r.ID, id) {
			continue
		}
		out = append(out, r)
	}
	return out
}
