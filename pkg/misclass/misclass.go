// Package misclass flags specimens whose sequence is assigned by a
// classifier to a different lineage than the recorded one.
package misclass

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gnames/gnbold/pkg/guard"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
)

// Query is one sequence to classify.
type Query struct {
	ID       int64
	Sequence string

	// Lineage contains confirmed names of the record.
	Lineage specimen.Taxonomy
}

// Prediction is the lineage a classifier assigns to a sequence, with a
// confidence score per rank.
type Prediction struct {
	ID      int64
	Lineage specimen.Taxonomy
	Scores  map[specimen.Rank]float64
}

// Classifier is the misclassification capability. It may skip queries it
// has no evidence for. A returned error means the whole call failed and
// has to be retried later.
type Classifier interface {
	Classify(ctx context.Context, qs []Query) ([]Prediction, error)
}

// Checker compares predictions with recorded lineages.
type Checker struct {
	classifier Classifier
	guard      *guard.Guard
	threshold  float64
}

// New creates a Checker. A nil classifier makes every record not
// applicable.
func New(c Classifier, g *guard.Guard, threshold float64) *Checker {
	return &Checker{classifier: c, guard: g, threshold: threshold}
}

// Enabled is false when no classifier is configured.
func (c *Checker) Enabled() bool {
	return c != nil && c.classifier != nil
}

// Applicable is true for records with a curated sequence confirmed at
// genus or deeper.
func Applicable(rec *specimen.Record) bool {
	return rec.CuratedSequence != "" &&
		rec.Checks.DeepestVerified() >= specimen.Genus
}

// Check classifies records in one call and sets the misclassification
// bit on disagreeing ones. Outcomes are aligned with recs: NotApplicable
// for records the classifier cannot judge, Fail for flagged ones, Pass
// otherwise. A failed call leaves all applicable records Unknown.
// Cancellation of ctx is returned as an error.
func (c *Checker) Check(
	ctx context.Context,
	recs []*specimen.Record,
) ([]verdict.Outcome, error) {
	res := make([]verdict.Outcome, len(recs))
	var qs []Query
	idx := make(map[int64]int)
	for i, rec := range recs {
		if !c.Enabled() || !Applicable(rec) {
			res[i] = verdict.NotApplicable
			continue
		}
		if rec.Checks.Has(specimen.Misclassified) {
			res[i] = verdict.Fail
			continue
		}
		idx[rec.ID] = i
		qs = append(qs, Query{
			ID:       rec.ID,
			Sequence: rec.CuratedSequence,
			Lineage:  confirmed(rec),
		})
	}
	if len(qs) == 0 {
		return res, nil
	}

	var preds []Prediction
	err := c.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		preds, err = c.classifier.Classify(ctx, qs)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		slog.Warn("Classifier failed", "records", len(qs), "error", err)
		return res, nil
	}

	for _, q := range qs {
		res[idx[q.ID]] = verdict.Pass
	}
	for _, p := range preds {
		i, ok := idx[p.ID]
		if !ok {
			continue
		}
		rec := recs[i]
		if r, bad := c.disagrees(rec, p); bad {
			slog.Debug("Misclassified specimen",
				"id", rec.ID, "rank", r.String(),
				"recorded", rec.Taxonomy.Name(r), "predicted", p.Lineage.Name(r))
			rec.Checks.Set(specimen.Misclassified)
			res[i] = verdict.Fail
		}
	}
	return res, nil
}

// disagrees finds the first rank above species where the prediction
// differs from the confirmed name with enough confidence.
func (c *Checker) disagrees(
	rec *specimen.Record,
	p Prediction,
) (specimen.Rank, bool) {
	for _, r := range specimen.VerifiableRanks {
		if r >= specimen.Species {
			break
		}
		if !rec.Checks.Verified(r) {
			continue
		}
		predicted := p.Lineage.Name(r)
		if predicted == "" || sameName(predicted, rec.Taxonomy.Name(r)) {
			continue
		}
		if p.Scores[r] >= c.threshold {
			return r, true
		}
	}
	return specimen.NoRank, false
}

func confirmed(rec *specimen.Record) specimen.Taxonomy {
	var res specimen.Taxonomy
	for _, r := range specimen.VerifiableRanks {
		if rec.Checks.Verified(r) {
			res.Set(r, rec.Taxonomy.Name(r))
		}
	}
	return res
}

func sameName(a, b string) bool {
	a = strings.ReplaceAll(a, "_", " ")
	b = strings.ReplaceAll(b, "_", " ")
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
