package iotesting

import (
	"context"
	"slices"
	"sync"

	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/store"
)

// MemStore is an in-memory store.Store.
type MemStore struct {
	mu    sync.RWMutex
	recs  map[int64]specimen.Record
	saves int
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{recs: make(map[int64]specimen.Record)}
}

// Get implements store.Store.
func (m *MemStore) Get(ctx context.Context, id int64) (specimen.Record, error) {
	if err := ctx.Err(); err != nil {
		return specimen.Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[id]
	if !ok {
		return specimen.Record{}, store.ErrNotFound
	}
	return clone(rec), nil
}

// Save implements store.Store.
func (m *MemStore) Save(ctx context.Context, recs []specimen.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.recs[rec.ID] = clone(rec)
	}
	m.saves += len(recs)
	return nil
}

// Scan implements store.Store. The callback runs without holding the
// lock, so it may save records.
func (m *MemStore) Scan(
	ctx context.Context,
	f store.Filter,
	fn func([]specimen.Record) error,
) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page := m.page(f)
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		f.AfterID = page[len(page)-1].ID
	}
}

func (m *MemStore) page(f store.Filter) []specimen.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.recs))
	for id, rec := range m.recs {
		if f.Match(&rec) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if len(ids) > f.PageSize() {
		ids = ids[:f.PageSize()]
	}
	res := make([]specimen.Record, len(ids))
	for i, id := range ids {
		res[i] = clone(m.recs[id])
	}
	return res
}

// Count implements store.Store.
func (m *MemStore) Count(ctx context.Context, f store.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res int
	for _, rec := range m.recs {
		if f.Match(&rec) {
			res++
		}
	}
	return res, nil
}

// Close implements store.Store.
func (m *MemStore) Close() error {
	return nil
}

// Saves returns the number of records written so far.
func (m *MemStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// All returns all records in ascending id order.
func (m *MemStore) All() []specimen.Record {
	m.mu.RLock()
	n := len(m.recs)
	m.mu.RUnlock()
	return m.page(store.Filter{Limit: n + 1})
}

func clone(rec specimen.Record) specimen.Record {
	if rec.Coordinates != nil {
		c := *rec.Coordinates
		rec.Coordinates = &c
	}
	if rec.GeoScore != nil {
		s := *rec.GeoScore
		rec.GeoScore = &s
	}
	return rec
}
