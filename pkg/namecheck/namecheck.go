// Package namecheck verifies recorded taxonomic names rank by rank against
// a name-matching service.
package namecheck

import (
	"context"
	"log/slog"

	"github.com/gnames/gnbold/pkg/guard"
	"github.com/gnames/gnbold/pkg/parserpool"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
)

// Outcome of a definitive name match.
type Outcome int

const (
	Confirmed Outcome = iota + 1
	NoMatch
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case NoMatch:
		return "no match"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Query asks to confirm a name at a rank under a confirmed parent.
type Query struct {
	Name string
	Rank specimen.Rank

	// ParentKey is the key confirmed at the parent rank, empty for
	// kingdom.
	ParentKey string

	// Lineage holds already confirmed names of higher ranks.
	Lineage specimen.Taxonomy
}

// Match is the answer of a name-matching service.
type Match struct {
	Outcome Outcome

	// Key is the service identifier of a confirmed name.
	Key string

	// MatchedName is the name the service matched.
	MatchedName string
}

// Matcher is the name-matching capability. A returned error means the
// lookup failed transiently and has to be retried later.
type Matcher interface {
	Match(ctx context.Context, q Query) (Match, error)
}

// Verifier walks the recorded hierarchy of a record from the first
// unverified rank down.
type Verifier struct {
	matcher Matcher
	guard   *guard.Guard
	parser  parserpool.Pool
}

// New creates a Verifier. The guard and the parser pool are optional.
func New(m Matcher, g *guard.Guard, pool parserpool.Pool) *Verifier {
	return &Verifier{matcher: m, guard: g, parser: pool}
}

// Verify confirms names of the record and sets its name bits. It resumes
// after the deepest confirmed rank, so ranks confirmed earlier are never
// queried again. It returns Unknown when a lookup failed, Fail for no
// match or an ambiguous match, Pass when the whole chain is confirmed.
// Cancellation of ctx is returned as an error.
func (v *Verifier) Verify(
	ctx context.Context,
	rec *specimen.Record,
) (verdict.Outcome, error) {
	c := &rec.Checks
	if c.Has(specimen.NameNoMatch) {
		return verdict.Fail, nil
	}

	chain := rec.Taxonomy.Chain()
	if len(chain) == 0 {
		c.Set(specimen.NameNoMatch)
		return verdict.Fail, nil
	}

	var lineage specimen.Taxonomy
	for _, r := range chain {
		if c.Verified(r) {
			lineage.Set(r, rec.Taxonomy.Name(r))
			continue
		}

		q := Query{
			Name:      v.queryName(rec, r),
			Rank:      r,
			ParentKey: rec.VerifiedTaxonKey,
			Lineage:   lineage,
		}
		if r == specimen.Kingdom {
			q.ParentKey = ""
		}

		c.Set(specimen.NameChecked)
		var res Match
		err := v.guard.Do(ctx, func(ctx context.Context) error {
			var err error
			res, err = v.matcher.Match(ctx, q)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return verdict.Unknown, ctx.Err()
			}
			slog.Warn("Name lookup failed",
				"id", rec.ID, "rank", r.String(), "name", q.Name, "error", err)
			return verdict.Unknown, nil
		}

		if res.Outcome != Confirmed || res.Key == "" {
			slog.Debug("Name not confirmed",
				"id", rec.ID, "rank", r.String(), "name", q.Name,
				"outcome", res.Outcome.String())
			c.Set(specimen.NameNoMatch)
			return verdict.Fail, nil
		}

		bit, _ := specimen.RankBit(r)
		c.Set(bit)
		rec.VerifiedTaxonKey = res.Key
		rec.IdentificationRank = r
		lineage.Set(r, rec.Taxonomy.Name(r))
	}
	return verdict.Pass, nil
}

// queryName reduces species and subspecies names to their canonical form.
func (v *Verifier) queryName(rec *specimen.Record, r specimen.Rank) string {
	name := rec.Taxonomy.Name(r)
	if v.parser == nil || r < specimen.Genus {
		return name
	}
	code := parserpool.CodeFor(rec.Taxonomy.Name(specimen.Kingdom))
	if can, ok := parserpool.Canonical(v.parser, name, code); ok && can != "" {
		return can
	}
	return name
}
