package examcodes

import (
	"context"
	"errors"
	"fmt"
	"jntuh-results-backend/internal/components/assert"
	"jntuh-results-backend/internal/components/chrono"
	"jntuh-results-backend/internal/components/telemetry"
	"os"
	"sync"
	"time"
)

const (
	report_provider_load     = "provider.load"
	report_provider_refresh  = "provider.refresh"
	report_provider_extract  = "provider.extract"
	report_provider_save     = "provider.save"
	report_provider_fallback = "provider.fallback"
	report_provider_codes    = "provider.codes"

	refreshTimeout = time.Minute * 2

	// RetryInterval is how long Get serves a stale snapshot after a failed
	// refresh before scraping again.
	RetryInterval = time.Minute * 5
)

// ErrNetwork means the home page could not be fetched.
var ErrNetwork = errors.New("portal home page unreachable")

// ErrNoExamCodes means the home page was fetched but listed nothing usable,
// usually because the page layout changed.
var ErrNoExamCodes = errors.New("portal home page listed no exam codes")

// HomePage is satisfied by *portal.Client.
type HomePage interface {
	HomePage(ctx context.Context) ([]byte, error)
}

// Provider serves the exam code directory, scraping the home page only when
// the snapshot is missing or stale.
type Provider struct {
	store Store
	home  HomePage
	time  chrono.TimeAPI
	tel   telemetry.API

	mu      sync.Mutex
	current *Snapshot
	// failedAt is when the last refresh failed, zero after a success.
	failedAt time.Time
}

func NewProvider(store Store, home HomePage, time chrono.TimeAPI, tel telemetry.API) *Provider {
	assert.NotNil(home, "home page")
	assert.NotNil(time, "time")
	assert.NotNil(tel, "telemetry")
	assert.NotEmptyStr(store.Path, "snapshot path")

	return &Provider{
		store: store,
		home:  home,
		time:  time,
		tel:   telemetry.NewScopedAPI("examcodes", tel),
	}
}

// Get returns the directory, rebuilding it if the snapshot is missing or
// stale. When rebuilding fails, the last snapshot is returned no matter its
// age, the error is only returned when there is no snapshot at all. A stale
// snapshot is served without rebuilding for RetryInterval after a failure.
func (p *Provider) Get(ctx context.Context) (Directory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.loadLocked()
	now := p.time.Now()
	if p.current != nil && p.store.Fresh(*p.current, now) {
		return p.current.Data, nil
	}
	if p.current != nil && !p.failedAt.IsZero() && now.Sub(p.failedAt) < RetryInterval {
		return p.current.Data, nil
	}

	dir, err := p.refreshLocked(ctx)
	if err == nil {
		return dir, nil
	}
	if p.current != nil {
		p.tel.ReportWarning(
			report_provider_fallback,
			err,
			telemetry.KV{Key: "snapshot_time", Value: p.current.Time()},
		)
		return p.current.Data, nil
	}
	return nil, err
}

// Refresh rebuilds the directory regardless of how fresh the snapshot is. It
// does not fall back to the snapshot on failure.
func (p *Provider) Refresh(ctx context.Context) (Directory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.loadLocked()
	return p.refreshLocked(ctx)
}

// Schedule refreshes the directory on the given cron spec.
func (p *Provider) Schedule(cron chrono.CronAPI, spec string) error {
	return cron.Cron(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		_, err := p.Refresh(ctx)
		if err != nil {
			p.tel.ReportBroken(report_provider_refresh, err, "scheduled")
		}
	})
}

func (p *Provider) loadLocked() {
	if p.current != nil {
		return
	}
	snapshot, err := p.store.Load()
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		p.tel.ReportBroken(report_provider_load, err)
		return
	}
	p.current = &snapshot
}

func (p *Provider) refreshLocked(ctx context.Context) (Directory, error) {
	dir, err := p.scrape(ctx)
	if err != nil {
		p.failedAt = p.time.Now()
		return nil, err
	}
	p.failedAt = time.Time{}

	snapshot := NewSnapshot(dir, p.time.Now())
	err = p.store.Save(snapshot)
	if err != nil {
		p.tel.ReportBroken(report_provider_save, err)
	}
	p.current = &snapshot

	return dir, nil
}

func (p *Provider) scrape(ctx context.Context) (Directory, error) {
	body, err := p.home.HomePage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	dir, errs := Extract(body)
	for _, err := range errs {
		p.tel.ReportWarning(report_provider_extract, err)
	}
	count := dir.Count()
	p.tel.ReportCount(report_provider_codes, int64(count))
	if count == 0 {
		return nil, ErrNoExamCodes
	}
	return dir, nil
}
