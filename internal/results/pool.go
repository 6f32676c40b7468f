package results

import (
	"context"
	"jntuh-results-backend/internal/portal"

	"golang.org/x/sync/semaphore"
)

// Fetcher fetches one result page, it is satisfied by *portal.Client.
type Fetcher interface {
	ResultPage(ctx context.Context, q portal.ResultQuery) ([]byte, error)
}

const DefaultPoolSize = 64

// Pool bounds the number of result pages being fetched at once across every
// aggregation in the process.
type Pool struct {
	fetcher Fetcher
	slots   *semaphore.Weighted
}

func NewPool(fetcher Fetcher, size int64) *Pool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Pool{
		fetcher: fetcher,
		slots:   semaphore.NewWeighted(size),
	}
}

// ResultPage waits for a free slot and fetches the page. A context cancelled
// while waiting returns the context's error without fetching.
func (p *Pool) ResultPage(ctx context.Context, q portal.ResultQuery) ([]byte, error) {
	err := p.slots.Acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer p.slots.Release(1)
	return p.fetcher.ResultPage(ctx, q)
}
