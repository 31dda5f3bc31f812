package curation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gnames/gnbold/pkg/seqcheck"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/store"
	"golang.org/x/sync/errgroup"
)

// Build curates a fresh corpus from the reader. It refuses to run on a
// store that already holds records.
func (e *Engine) Build(ctx context.Context, r Reader) (Report, error) {
	n, err := e.store.Count(ctx, store.Filter{})
	if err != nil {
		return Report{}, err
	}
	if n > 0 {
		return Report{}, CorpusExistsError(n)
	}
	return e.ingest(ctx, "build", r)
}

// Update merges raw records from the reader into the curated corpus.
// A record with a known id supersedes the stored one only when its
// source revision is newer. Its sequence is checked for duplication
// against the whole corpus.
func (e *Engine) Update(ctx context.Context, r Reader) (Report, error) {
	if err := e.loadIndex(ctx); err != nil {
		return Report{}, err
	}
	return e.ingest(ctx, "update", r)
}

func (e *Engine) ingest(
	ctx context.Context,
	command string,
	r Reader,
) (Report, error) {
	rep := newReport(command, e.now())
	defer e.progressFinish()

	ch := make(chan specimen.Record, e.batchSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ch)
		return r.Read(gctx, ch)
	})

	g.Go(func() error {
		batch := make([]specimen.Record, 0, e.batchSize)
		for rec := range ch {
			batch = append(batch, rec)
			if len(batch) < e.batchSize {
				continue
			}
			if err := e.ingestBatch(gctx, batch, &rep); err != nil {
				return err
			}
			batch = batch[:0]
		}
		if len(batch) == 0 {
			return nil
		}
		return e.ingestBatch(gctx, batch, &rep)
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return rep, AbortedError(command, ctx.Err())
		}
		return rep, err
	}
	rep.finish(e.now())
	return rep, nil
}

// ingestBatch merges incoming records with stored ones, curates them and
// saves the result.
func (e *Engine) ingestBatch(
	ctx context.Context,
	in []specimen.Record,
	rep *Report,
) error {
	recs := make([]*specimen.Record, 0, len(in))
	orig := make([]*specimen.Record, 0, len(in))
	seen := make(map[int64]int, len(in))

	for i := range in {
		inc := &in[i]
		if j, ok := seen[inc.ID]; ok {
			e.merge(recs[j], inc, rep)
			continue
		}

		existing, err := e.store.Get(ctx, inc.ID)
		if errors.Is(err, store.ErrNotFound) {
			rec := *inc
			rec.Reset()
			seen[rec.ID] = len(recs)
			recs = append(recs, &rec)
			orig = append(orig, nil)
			continue
		}
		if err != nil {
			return err
		}

		o := existing
		if !e.merge(&existing, inc, rep) {
			continue
		}
		seen[inc.ID] = len(recs)
		recs = append(recs, &existing)
		orig = append(orig, &o)
	}

	if err := e.curate(ctx, recs); err != nil {
		return err
	}

	save := e.finalize(recs, orig)
	if err := e.store.Save(ctx, save); err != nil {
		return err
	}

	for _, rec := range recs {
		rep.Processed++
		rep.tally(rec)
		if rec.Checks.Has(specimen.Duplicate) {
			rep.Duplicates++
		}
	}
	e.progressAdd(len(in))
	return nil
}

// merge applies an incoming revision to the current state of a record.
// It returns false when the revision is rejected as a conflict.
func (e *Engine) merge(cur, inc *specimen.Record, rep *Report) bool {
	if !inc.SourceUpdated.After(cur.SourceUpdated) {
		rep.Conflicts++
		slog.Warn("Rejected record revision, stored record is not older",
			"id", inc.ID,
			"stored", cur.SourceUpdated,
			"incoming", inc.SourceUpdated,
		)
		return false
	}
	if e.supersede(cur, inc) {
		rep.Unchanged++
	}
	return true
}

// supersede replaces the raw data of cur with inc and resets the results
// that depend on changed data. It returns true when only the revision
// timestamp changed.
func (e *Engine) supersede(cur, inc *specimen.Record) bool {
	if inc.SourceHash != "" && inc.SourceHash == cur.SourceHash {
		cur.SourceUpdated = inc.SourceUpdated
		return true
	}

	seqChanged := seqcheck.Normalize(inc.RawSequence) !=
		seqcheck.Normalize(cur.RawSequence)
	nameChanged := inc.Taxonomy != cur.Taxonomy ||
		inc.Identification != cur.Identification
	locChanged := !sameCoordinates(inc.Coordinates, cur.Coordinates) ||
		inc.Country != cur.Country || inc.CountryISO != cur.CountryISO

	switch {
	case seqChanged:
		e.index.Remove(cur.ID, cur.CuratedSequence)
		cur.Reset()
	case nameChanged:
		// hybrid detection depends on names
		cur.ResetName()
		cur.Checks.ClearMask(specimen.SequenceBits)
	case locChanged:
		cur.ResetLocation()
	}

	cur.RawSequence = inc.RawSequence
	cur.SourceHash = inc.SourceHash
	cur.Taxonomy = inc.Taxonomy
	cur.Identification = inc.Identification
	cur.Coordinates = inc.Coordinates
	cur.Country = inc.Country
	cur.CountryISO = inc.CountryISO
	cur.SourceUpdated = inc.SourceUpdated
	return false
}

// loadIndex admits curated sequences of selected records from the store.
func (e *Engine) loadIndex(ctx context.Context) error {
	if e.indexed {
		return nil
	}
	f := store.Filter{
		ChecksAll: specimen.Mask(specimen.Selected),
		Limit:     e.batchSize,
	}
	err := e.store.Scan(ctx, f, func(recs []specimen.Record) error {
		for _, rec := range recs {
			if dupOf, dup := e.index.Admit(rec.ID, rec.CuratedSequence); dup {
				slog.Warn("Stored sequence duplicates another one",
					"id", rec.ID, "duplicate_of", dupOf)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.indexed = true
	slog.Info("Loaded sequence index", "sequences", e.index.Len())
	return nil
}

func sameCoordinates(a, b *specimen.Coordinates) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
