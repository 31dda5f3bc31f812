package curation

import (
	"context"

	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/store"
	"github.com/gnames/gnbold/pkg/verdict"
)

// Review retries the stages of unresolved records and recomputes the
// inclusion of all others. Records that are already resolved are never
// sent to collaborators, so a repeated Review without new failures
// changes nothing.
func (e *Engine) Review(ctx context.Context) (Report, error) {
	rep := newReport("review", e.now())
	defer e.progressFinish()

	f := store.Filter{Limit: e.batchSize}
	err := e.store.Scan(ctx, f, func(page []specimen.Record) error {
		return e.reviewPage(ctx, page, &rep)
	})
	if err != nil {
		if ctx.Err() != nil {
			return rep, AbortedError("review", ctx.Err())
		}
		return rep, err
	}
	rep.finish(e.now())
	return rep, nil
}

func (e *Engine) reviewPage(
	ctx context.Context,
	page []specimen.Record,
	rep *Report,
) error {
	var recs, orig []*specimen.Record
	var needIndex bool
	for i := range page {
		rec := &page[i]
		a := verdict.Assess(rec)
		if !a.Unresolved() {
			continue
		}
		rep.UnresolvedBefore++
		if a.Next() == verdict.StageSequence {
			needIndex = true
		}
		o := *rec
		recs = append(recs, rec)
		orig = append(orig, &o)
	}

	if needIndex {
		if err := e.loadIndex(ctx); err != nil {
			return err
		}
	}
	if err := e.curate(ctx, recs); err != nil {
		return err
	}
	save := e.finalize(recs, orig)

	for i := range page {
		rec := &page[i]
		if verdict.Assess(rec).Unresolved() {
			rep.UnresolvedAfter++
		} else if inc := e.policy.Include(rec); inc != rec.Include {
			rec.Include = inc
			rec.LastUpdated = e.now().UTC()
			save = append(save, *rec)
		}
		rep.Processed++
		rep.tally(rec)
	}

	if err := e.store.Save(ctx, save); err != nil {
		return err
	}
	e.progressAdd(len(page))
	return nil
}
