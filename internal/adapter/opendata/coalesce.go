package opendata

import (
	"context"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/parking-violations-lookup/internal/domain"
)

// Fetcher returns the violation records for a plate.
type Fetcher interface {
	FetchByPlate(ctx context.Context, plate string) ([]domain.Violation, error)
}

// CoalescingFetcher wraps a Fetcher so concurrent lookups of the same plate
// share one upstream request. Nothing is cached once the request completes.
type CoalescingFetcher struct {
	inner Fetcher
	group singleflight.Group
}

// NewCoalescingFetcher creates a coalescing decorator around a fetcher.
func NewCoalescingFetcher(inner Fetcher) *CoalescingFetcher {
	return &CoalescingFetcher{inner: inner}
}

// FetchByPlate implements Fetcher. Each caller receives its own copy of the records.
func (c *CoalescingFetcher) FetchByPlate(ctx context.Context, plate string) ([]domain.Violation, error) {
	v, err, _ := c.group.Do(plate, func() (any, error) {
		// The shared request must not die with the first caller's context.
		return c.inner.FetchByPlate(context.WithoutCancel(ctx), plate)
	})
	if err != nil {
		return nil, err
	}
	records, _ := v.([]domain.Violation)
	out := slices.Clone(records)
	if out == nil {
		out = []domain.Violation{}
	}
	return out, nil
}
