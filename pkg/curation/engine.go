// Package curation drives specimen records through the curation stages
// and keeps the Record Store consistent. It exposes three runs: Build for
// a fresh corpus, Update for merging new raw records into a curated
// corpus, and Review for retrying stages that could not be evaluated.
package curation

import (
	"context"
	"time"

	"github.com/gnames/gnbold/pkg/config"
	"github.com/gnames/gnbold/pkg/geocheck"
	"github.com/gnames/gnbold/pkg/guard"
	"github.com/gnames/gnbold/pkg/misclass"
	"github.com/gnames/gnbold/pkg/namecheck"
	"github.com/gnames/gnbold/pkg/parserpool"
	"github.com/gnames/gnbold/pkg/seqcheck"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/store"
	"github.com/gnames/gnbold/pkg/verdict"
)

// classifierTimeout limits one classifier call, which covers a whole
// batch.
const classifierTimeout = 30 * time.Minute

// Collaborators are the capabilities the stages depend on.
type Collaborators struct {
	// Names confirms taxonomic names.
	Names namecheck.Matcher

	// Occurrences provides known occurrences of taxa.
	Occurrences geocheck.Source

	// Classifier predicts lineages of sequences. Nil disables the
	// misclassification check.
	Classifier misclass.Classifier

	// Zoner derives climate zones. Nil disables climate zones.
	Zoner geocheck.Zoner

	// Parser normalizes names and detects hybrid formulas. Optional.
	Parser parserpool.Pool
}

// Reader sends raw records to ch until the input is exhausted. It must
// not close ch.
type Reader interface {
	Read(ctx context.Context, ch chan<- specimen.Record) error
}

// Progress receives the number of records finished.
type Progress interface {
	Add(n int)
	Finish()
}

// Engine is the Curation Orchestrator.
type Engine struct {
	store     store.Store
	index     *seqcheck.Index
	indexed   bool
	seq       *seqcheck.Validator
	names     *namecheck.Verifier
	misclass  *misclass.Checker
	geo       *geocheck.Scorer
	policy    verdict.Policy
	jobs      int
	batchSize int
	progress  Progress
	backoff   time.Duration
	now       func() time.Time
}

// Option configures Engine.
type Option func(*Engine)

// OptProgress sets a progress reporter.
func OptProgress(p Progress) Option {
	return func(e *Engine) {
		e.progress = p
	}
}

// OptClock replaces time.Now for timestamps.
func OptClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// OptBackoff sets the delay before the second attempt of a collaborator
// call.
func OptBackoff(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.backoff = d
		}
	}
}

// New creates an Engine. It fails when settings required by the inclusion
// policy are missing.
func New(
	cfg *config.Config,
	st store.Store,
	c Collaborators,
	opts ...Option,
) (*Engine, error) {
	if missing := cfg.MissingSettings(); len(missing) > 0 {
		return nil, config.MissingSettingsError(missing)
	}

	res := &Engine{
		store:     st,
		policy:    verdict.Policy{MinRank: cfg.MinRank()},
		jobs:      max(cfg.JobsNumber, 1),
		batchSize: max(cfg.Store.BatchSize, 1),
		backoff:   time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(res)
	}

	cc := cfg.Collaborators
	newGuard := func(name string, timeout time.Duration, conc int) *guard.Guard {
		return guard.New(name,
			guard.OptTimeout(timeout),
			guard.OptAttempts(cc.Attempts),
			guard.OptBackoff(res.backoff),
			guard.OptConcurrency(conc),
			guard.OptRecovery(cc.RecoveryStreak),
		)
	}
	timeout := time.Duration(cc.TimeoutSec) * time.Second

	res.index = seqcheck.NewIndexFor(cfg.Sequence.MinLength)
	res.seq = seqcheck.New(
		res.index, cfg.Sequence.MinLength, cfg.Sequence.MaxLength, c.Parser,
	)
	res.names = namecheck.New(
		c.Names, newGuard("names", timeout, cc.Concurrency), c.Parser,
	)
	res.misclass = misclass.New(
		c.Classifier,
		newGuard("classifier", classifierTimeout, 1),
		cfg.Curation.ClassifierThreshold,
	)
	res.geo = geocheck.New(
		c.Occurrences, c.Zoner,
		newGuard("occurrences", timeout, cc.Concurrency),
		*cfg.Curation.LocationThreshold,
	)
	return res, nil
}

func (e *Engine) progressAdd(n int) {
	if e.progress != nil {
		e.progress.Add(n)
	}
}

func (e *Engine) progressFinish() {
	if e.progress != nil {
		e.progress.Finish()
	}
}
