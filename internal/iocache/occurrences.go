package iocache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gnames/gnbold/pkg/geocheck"
	"golang.org/x/sync/singleflight"
)

// occurrences is the cached form of an occurrence lookup.
type occurrences struct {
	NoData bool
	Occs   []geocheck.Occurrence
}

// Occurrences caches answers of an occurrence source, including the
// absence of data.
type Occurrences struct {
	cache *Cache
	next  geocheck.Source
	group singleflight.Group
}

// NewOccurrences wraps an occurrence source with the cache.
func NewOccurrences(c *Cache, src geocheck.Source) *Occurrences {
	return &Occurrences{cache: c, next: src}
}

// Occurrences implements geocheck.Source.
func (o *Occurrences) Occurrences(
	ctx context.Context,
	taxonKey string,
) ([]geocheck.Occurrence, error) {
	key := "occ|" + taxonKey

	var res occurrences
	ok, err := o.cache.get(key, &res)
	if err != nil {
		slog.Warn("Cannot read occurrence cache", "key", key, "error", err)
	}
	if ok {
		return res.result()
	}

	v, err, _ := o.group.Do(key, func() (any, error) {
		occs, err := o.next.Occurrences(ctx, taxonKey)
		if err != nil && !errors.Is(err, geocheck.ErrNoData) {
			return nil, err
		}
		res := occurrences{NoData: err != nil, Occs: occs}
		if err = o.cache.set(key, res); err != nil {
			slog.Warn("Cannot write occurrence cache", "key", key, "error", err)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(occurrences).result()
}

func (o occurrences) result() ([]geocheck.Occurrence, error) {
	if o.NoData {
		return nil, geocheck.ErrNoData
	}
	return o.Occs, nil
}
