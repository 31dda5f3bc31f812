package seqcheck

import (
	"hash/maphash"
	"strings"
	"sync"

	"github.com/gnames/gnuuid"
	"github.com/google/uuid"
)

// Index finds curated sequences that equal or are contained in already
// admitted sequences. Equality goes through content hashes. Containment
// goes through minimizers: every window of w consecutive k-mers of an
// admitted sequence contributes its smallest k-mer hash, so the first
// window of any long enough substring shares a posting with its
// superstring. Candidates from postings are verified with an exact
// substring search.
//
// A query shorter than the minimizer span k+w-1 is only compared by its
// hash. NewIndexFor keeps the span within the minimal curated length, so
// every sequence that passes the length check goes through the postings.
//
// Index is safe for concurrent use. Admit checks and inserts under one
// lock, so two workers cannot both admit overlapping sequences.
type Index struct {
	k, w int
	seed maphash.Seed

	mu       sync.RWMutex
	byHash   map[uuid.UUID]int32
	entries  []entry
	postings map[uint64][]int32
	free     []int32
	live     int
}

const (
	defaultK = 16
	defaultW = 24
)

type entry struct {
	id  int64
	seq string
}

// NewIndex creates an empty index. Zero or negative k and w fall back to
// 16 and 24.
func NewIndex(k, w int) *Index {
	if k <= 0 {
		k = defaultK
	}
	if w <= 0 {
		w = defaultW
	}
	return &Index{
		k:        k,
		w:        w,
		seed:     maphash.MakeSeed(),
		byHash:   make(map[uuid.UUID]int32),
		postings: make(map[uint64][]int32),
	}
}

// NewIndexFor creates an empty index whose minimizer span does not exceed
// minLen.
func NewIndexFor(minLen int) *Index {
	if minLen >= defaultK+defaultW-1 {
		return NewIndex(defaultK, defaultW)
	}
	k := max(minLen/2, 1)
	w := max(minLen-k+1, 1)
	return NewIndex(k, w)
}

// Span is the shortest query length that goes through the postings.
func (x *Index) Span() int {
	return x.k + x.w - 1
}

// Len returns the number of admitted sequences.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.live
}

// Find returns the id of an admitted sequence that equals or contains seq.
// The record with id self is ignored.
func (x *Index) Find(seq string, self int64) (int64, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.find(seq, self)
}

// Admit inserts seq unless an admitted sequence of another record equals
// or contains it. In that case it returns the id of that record and true.
func (x *Index) Admit(id int64, seq string) (int64, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if dupOf, ok := x.find(seq, id); ok {
		return dupOf, true
	}

	h := gnuuid.New(seq)
	if slot, ok := x.byHash[h]; ok && x.entries[slot].id == id {
		return 0, false
	}

	var slot int32
	if n := len(x.free); n > 0 {
		slot = x.free[n-1]
		x.free = x.free[:n-1]
		x.entries[slot] = entry{id: id, seq: seq}
	} else {
		slot = int32(len(x.entries))
		x.entries = append(x.entries, entry{id: id, seq: seq})
	}
	x.byHash[h] = slot
	x.live++

	if len(seq) < x.Span() {
		return 0, false
	}
	for m := range x.minimizers(seq) {
		x.postings[m] = append(x.postings[m], slot)
	}
	return 0, false
}

// Remove forgets the sequence admitted for the record id.
func (x *Index) Remove(id int64, seq string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	h := gnuuid.New(seq)
	slot, ok := x.byHash[h]
	if !ok || x.entries[slot].id != id {
		return
	}
	if len(seq) >= x.Span() {
		for m := range x.minimizers(seq) {
			x.unpost(m, slot)
		}
	}
	x.entries[slot] = entry{}
	x.free = append(x.free, slot)
	delete(x.byHash, h)
	x.live--
}

// Postings returns the number of minimizer postings.
func (x *Index) Postings() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var res int
	for _, v := range x.postings {
		res += len(v)
	}
	return res
}

func (x *Index) unpost(m uint64, slot int32) {
	ps := x.postings[m]
	for i, v := range ps {
		if v == slot {
			ps[i] = ps[len(ps)-1]
			ps = ps[:len(ps)-1]
			break
		}
	}
	if len(ps) == 0 {
		delete(x.postings, m)
		return
	}
	x.postings[m] = ps
}

func (x *Index) find(seq string, self int64) (int64, bool) {
	if seq == "" {
		return 0, false
	}
	if slot, ok := x.byHash[gnuuid.New(seq)]; ok {
		if e := x.entries[slot]; e.id != self {
			return e.id, true
		}
	}

	if len(seq) < x.Span() {
		return 0, false
	}

	m := x.firstMinimizer(seq)
	for _, slot := range x.postings[m] {
		if e := x.entries[slot]; x.contains(e, seq, self) {
			return e.id, true
		}
	}
	return 0, false
}

func (x *Index) contains(e entry, seq string, self int64) bool {
	return e.id != self &&
		len(e.seq) > len(seq) &&
		strings.Contains(e.seq, seq)
}

func (x *Index) kmerHashes(seq string) []uint64 {
	res := make([]uint64, len(seq)-x.k+1)
	for i := range res {
		res[i] = maphash.String(x.seed, seq[i:i+x.k])
	}
	return res
}

func (x *Index) minimizers(seq string) map[uint64]struct{} {
	hs := x.kmerHashes(seq)
	res := make(map[uint64]struct{})
	for i := 0; i+x.w <= len(hs); i++ {
		res[minOf(hs[i:i+x.w])] = struct{}{}
	}
	return res
}

func (x *Index) firstMinimizer(seq string) uint64 {
	return minOf(x.kmerHashes(seq[:x.Span()]))
}

func minOf(hs []uint64) uint64 {
	res := hs[0]
	for _, h := range hs[1:] {
		if h < res {
			res = h
		}
	}
	return res
}
