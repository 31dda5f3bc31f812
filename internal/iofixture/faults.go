package iofixture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gnames/gnbold/pkg/geocheck"
	"github.com/gnames/gnbold/pkg/guard"
	"github.com/gnames/gnbold/pkg/misclass"
	"github.com/gnames/gnbold/pkg/namecheck"
)

// ErrInjected is the transient failure returned by fault-injecting
// collaborators.
var ErrInjected = errors.New("injected failure")

// ClassifierKey is the fault key of classifier calls.
const ClassifierKey = "classifier"

// NameKey is the fault key of a name query.
func NameKey(q namecheck.Query) string {
	return fmt.Sprintf("names:%s:%s", q.Rank, q.Name)
}

// OccurrenceKey is the fault key of an occurrence query.
func OccurrenceKey(taxonKey string) string {
	return "occurrences:" + taxonKey
}

// Faults decides which calls fail and counts calls by key. It is safe for
// concurrent use.
type Faults struct {
	mu      sync.Mutex
	pending map[string][]error
	always  map[string]error
	calls   map[string]int
}

// NewFaults creates Faults that let every call through.
func NewFaults() *Faults {
	return &Faults{
		pending: make(map[string][]error),
		always:  make(map[string]error),
		calls:   make(map[string]int),
	}
}

// FailNext makes the next n calls with the key fail transiently.
func (f *Faults) FailNext(key string, n int) {
	f.inject(key, n, ErrInjected)
}

// RateLimitNext makes the next n calls with the key report a rate limit.
func (f *Faults) RateLimitNext(key string, n int) {
	f.inject(key, n, guard.ErrRateLimited)
}

// FailAlways makes every call with the key fail until Heal is called.
func (f *Faults) FailAlways(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.always[key] = ErrInjected
}

// Heal removes pending failures of the key.
func (f *Faults) Heal(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, key)
	delete(f.always, key)
}

// Calls returns the number of calls made with the key.
func (f *Faults) Calls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *Faults) inject(key string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for range n {
		f.pending[key] = append(f.pending[key], err)
	}
}

// next registers a call and returns its injected error.
func (f *Faults) next(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if err, ok := f.always[key]; ok {
		return err
	}
	errs := f.pending[key]
	if len(errs) == 0 {
		return nil
	}
	f.pending[key] = errs[1:]
	return errs[0]
}

// Names wraps a name matcher with fault injection.
func (f *Faults) Names(m namecheck.Matcher) namecheck.Matcher {
	return faultyMatcher{m: m, f: f}
}

// Occurrences wraps an occurrence source with fault injection.
func (f *Faults) Occurrences(s geocheck.Source) geocheck.Source {
	return faultySource{s: s, f: f}
}

// Classifier wraps a classifier with fault injection.
func (f *Faults) Classifier(c misclass.Classifier) misclass.Classifier {
	return faultyClassifier{c: c, f: f}
}

type faultyMatcher struct {
	m namecheck.Matcher
	f *Faults
}

func (fm faultyMatcher) Match(
	ctx context.Context,
	q namecheck.Query,
) (namecheck.Match, error) {
	if err := fm.f.next(NameKey(q)); err != nil {
		return namecheck.Match{}, err
	}
	return fm.m.Match(ctx, q)
}

type faultySource struct {
	s geocheck.Source
	f *Faults
}

func (fs faultySource) Occurrences(
	ctx context.Context,
	taxonKey string,
) ([]geocheck.Occurrence, error) {
	if err := fs.f.next(OccurrenceKey(taxonKey)); err != nil {
		return nil, err
	}
	return fs.s.Occurrences(ctx, taxonKey)
}

type faultyClassifier struct {
	c misclass.Classifier
	f *Faults
}

func (fc faultyClassifier) Classify(
	ctx context.Context,
	qs []misclass.Query,
) ([]misclass.Prediction, error) {
	if err := fc.f.next(ClassifierKey); err != nil {
		return nil, err
	}
	return fc.c.Classify(ctx, qs)
}
