package sqs

import (
	"context"
	"sync"
)

type queueURLResult struct {
	url string
	err error
}

// queueURLResolver caches the queue URL and guarantees that at most one lookup
// is in flight at any time. Callers arriving while a lookup is running wait on
// it instead of issuing their own, and all of them are released together with
// its result.
//
// A successful result is kept for the lifetime of the resolver. A failed one is
// delivered to the current waiters and then forgotten, so the next call starts
// a new lookup.
type queueURLResolver struct {
	lookup func(ctx context.Context) (string, error)

	mu       sync.Mutex
	url      string
	fetching bool
	waiters  []chan queueURLResult
}

func newQueueURLResolver(lookup func(ctx context.Context) (string, error)) *queueURLResolver {
	return &queueURLResolver{
		lookup: lookup,
	}
}

// resolve returns the cached URL, or waits for the in-flight lookup (starting
// one if none is running). A cancelled ctx only abandons this caller's wait;
// the lookup keeps running for the remaining waiters.
func (r *queueURLResolver) resolve(ctx context.Context) (string, error) {
	r.mu.Lock()

	if r.url != "" {
		url := r.url
		r.mu.Unlock()
		return url, nil
	}

	// Buffered so that the completing lookup never blocks on a caller that gave up.
	ch := make(chan queueURLResult, 1)
	r.waiters = append(r.waiters, ch)

	if !r.fetching {
		r.fetching = true
		go r.fetch(context.WithoutCancel(ctx))
	}

	r.mu.Unlock()

	select {
	case res := <-ch:
		return res.url, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *queueURLResolver) fetch(ctx context.Context) {
	url, err := r.lookup(ctx)

	r.mu.Lock()

	if err == nil {
		r.url = url
	}

	r.fetching = false
	waiters := r.waiters
	r.waiters = nil

	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- queueURLResult{url: url, err: err}
	}
}
