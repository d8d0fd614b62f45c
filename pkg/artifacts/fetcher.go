package artifacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Plinth-Labs/maquette/pkg/canonical"
)

// DefaultFetchTimeout bounds a single artifact fetch.
const DefaultFetchTimeout = 30 * time.Second

// FetchSource resolves an artifact reference into raw bytes. A Store's
// Get method is one source; a render-service client is another.
type FetchSource func(ctx context.Context, ref string) ([]byte, error)

// Fetcher wraps a source with a rate cap and a per-call timeout. Its
// Fetch method satisfies drift.FetchFunc: a failed or slow fetch
// surfaces as an error the comparator degrades that panel on, never as
// a stall that holds the whole sheet.
type Fetcher struct {
	source  FetchSource
	limiter *rate.Limiter
	timeout time.Duration
}

// FetcherOption adjusts fetcher behavior.
type FetcherOption func(*Fetcher)

// WithFetchTimeout bounds each fetch attempt.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithFetchRate caps fetches at rps with the given burst.
func WithFetchRate(rps float64, burst int) FetcherOption {
	return func(f *Fetcher) { f.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewFetcher builds a fetcher over a content-addressed store.
func NewFetcher(store Store, opts ...FetcherOption) *Fetcher {
	return NewFetcherSource(store.Get, opts...)
}

// NewFetcherSource builds a fetcher over an arbitrary source.
func NewFetcherSource(source FetchSource, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source:  source,
		limiter: rate.NewLimiter(rate.Inf, 0),
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch resolves one reference under the rate cap and timeout. Refs
// that carry a sha256 prefix are verified against the fetched bytes, so
// a lying source cannot smuggle a swapped raster past the ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	data, err := f.source(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	if strings.HasPrefix(ref, canonical.HashPrefix) {
		if err := verifyRef(ref, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}
