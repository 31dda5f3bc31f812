package curation

import (
	"cmp"
	"context"
	"reflect"
	"slices"

	"github.com/gnames/gnbold/pkg/seqcheck"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
	"golang.org/x/sync/errgroup"
)

// curate runs all pending stages of the records in stage order. A stage
// that cannot be evaluated leaves the record for a later review. Only
// cancellation is returned as an error.
func (e *Engine) curate(ctx context.Context, recs []*specimen.Record) error {
	e.checkSequences(pending(recs, verdict.StageSequence))

	err := e.forEach(ctx, pending(recs, verdict.StageName),
		func(ctx context.Context, rec *specimen.Record) error {
			_, err := e.names.Verify(ctx, rec)
			return err
		})
	if err != nil {
		return err
	}

	mis := pending(recs, verdict.StageMisclassification)
	outs, err := e.misclass.Check(ctx, mis)
	if err != nil {
		return err
	}
	loc := pending(recs, verdict.StageLocation)
	for i, rec := range mis {
		if outs[i] == verdict.Pass || outs[i] == verdict.NotApplicable {
			loc = append(loc, rec)
		}
	}

	return e.forEach(ctx, loc,
		func(ctx context.Context, rec *specimen.Record) error {
			_, err := e.geo.Check(ctx, rec)
			return err
		})
}

// checkSequences validates sequences longest first, so a sequence is
// admitted before the subsequences it contains.
func (e *Engine) checkSequences(recs []*specimen.Record) {
	lens := make(map[int64]int, len(recs))
	for _, rec := range recs {
		lens[rec.ID] = len(seqcheck.Normalize(rec.RawSequence))
	}
	slices.SortStableFunc(recs, func(a, b *specimen.Record) int {
		return cmp.Or(
			cmp.Compare(lens[b.ID], lens[a.ID]),
			cmp.Compare(a.ID, b.ID),
		)
	})
	for _, rec := range recs {
		e.seq.Check(rec)
	}
}

// forEach runs fn for every record on a bounded number of workers. Each
// record is owned by exactly one worker.
func (e *Engine) forEach(
	ctx context.Context,
	recs []*specimen.Record,
	fn func(context.Context, *specimen.Record) error,
) error {
	if len(recs) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)
	for _, rec := range recs {
		g.Go(func() error {
			return fn(ctx, rec)
		})
	}
	return g.Wait()
}

// finalize recomputes inclusion and stamps records that changed. It
// returns the records that have to be saved. A nil orig entry marks a
// record that is not stored yet.
func (e *Engine) finalize(
	recs []*specimen.Record,
	orig []*specimen.Record,
) []specimen.Record {
	res := make([]specimen.Record, 0, len(recs))
	now := e.now().UTC()
	for i, rec := range recs {
		e.policy.Apply(rec)
		if o := orig[i]; o != nil {
			rec.LastUpdated = o.LastUpdated
			if reflect.DeepEqual(*rec, *o) {
				continue
			}
		}
		rec.LastUpdated = now
		res = append(res, *rec)
	}
	return res
}

func pending(recs []*specimen.Record, s verdict.Stage) []*specimen.Record {
	var res []*specimen.Record
	for _, rec := range recs {
		if verdict.Assess(rec).Next() == s {
			res = append(res, rec)
		}
	}
	return res
}
