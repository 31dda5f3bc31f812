package verdict

import (
	"github.com/gnames/gnbold/pkg/specimen"
)

// Policy decides if a record is trustworthy enough to be included.
type Policy struct {
	// MinRank is the deepest rank that has to be verified.
	MinRank specimen.Rank
}

var excluding = specimen.Mask(
	specimen.Duplicate, specimen.LengthFail, specimen.Hybrid,
	specimen.Misclassified, specimen.NameNoMatch,
)

// Include computes the inclusion decision from the record's checks.
func (p Policy) Include(rec *specimen.Record) bool {
	c := rec.Checks
	if !c.Has(specimen.Selected) || c.HasAny(excluding) {
		return false
	}
	if !c.VerifiedTo(p.MinRank) {
		return false
	}
	a := Assess(rec)
	if a.Unresolved() {
		return false
	}
	return a.Name == Pass && a.Location != Fail
}

// Apply recomputes Include of the record.
func (p Policy) Apply(rec *specimen.Record) {
	rec.Include = p.Include(rec)
}
