// Package store defines the contract of the durable Record Store.
package store

import (
	"context"
	"errors"

	"github.com/gnames/gnbold/pkg/specimen"
)

// ErrNotFound is returned by Get for unknown identifiers.
var ErrNotFound = errors.New("record not found")

// DefaultPageSize is used by Scan when Filter.Limit is not set.
const DefaultPageSize = 10_000

// Filter selects records for Scan and Count. Zero values do not filter.
type Filter struct {
	// Include filters by the include flag.
	Include *bool

	// ChecksAll requires all these bits to be set.
	ChecksAll specimen.Checks

	// ChecksNone requires all these bits to be unset.
	ChecksNone specimen.Checks

	// TaxonKey filters by the verified taxon key.
	TaxonKey string

	// AfterID starts the scan after this identifier.
	AfterID int64

	// Limit is the size of a page passed to the Scan callback.
	Limit int
}

// Match tells if the record passes the filter. Stores use it when they
// cannot push the filter down to a query.
func (f Filter) Match(rec *specimen.Record) bool {
	switch {
	case rec.ID <= f.AfterID && f.AfterID != 0:
		return false
	case f.Include != nil && rec.Include != *f.Include:
		return false
	case rec.Checks&f.ChecksAll != f.ChecksAll:
		return false
	case rec.Checks&f.ChecksNone != 0:
		return false
	case f.TaxonKey != "" && rec.VerifiedTaxonKey != f.TaxonKey:
		return false
	}
	return true
}

// PageSize returns the effective page size.
func (f Filter) PageSize() int {
	if f.Limit > 0 {
		return f.Limit
	}
	return DefaultPageSize
}

// Store keeps specimen records keyed by their identifier. Implementations
// are safe for concurrent use.
type Store interface {
	// Get returns a record by its identifier, or ErrNotFound.
	Get(ctx context.Context, id int64) (specimen.Record, error)

	// Save inserts new records and replaces existing ones in one
	// transaction.
	Save(ctx context.Context, recs []specimen.Record) error

	// Scan walks records matching the filter in ascending id order and
	// passes them to fn page by page. An error from fn stops the scan
	// and is returned.
	Scan(
		ctx context.Context,
		f Filter,
		fn func([]specimen.Record) error,
	) error

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, f Filter) (int, error)

	// Close releases the store.
	Close() error
}

// Bool returns a pointer to b, handy for Filter.Include.
func Bool(b bool) *bool {
	return &b
}
