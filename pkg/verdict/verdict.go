// Package verdict decodes the persisted checks bitvector into one tagged
// outcome per curation stage and applies the inclusion policy.
package verdict

import "github.com/gnames/gnbold/pkg/specimen"

// Outcome is the state of one check category.
type Outcome int8

const (
	// Unknown means the check was not evaluated yet or the evaluation
	// failed transiently.
	Unknown Outcome = iota
	Pass
	Fail
	NotApplicable
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case NotApplicable:
		return "n/a"
	default:
		return "unknown"
	}
}

// Stage is a step of the per-record pipeline.
type Stage int

const (
	StageSequence Stage = iota
	StageName
	StageMisclassification
	StageLocation
	StageFinal
)

func (s Stage) String() string {
	switch s {
	case StageSequence:
		return "sequence"
	case StageName:
		return "name"
	case StageMisclassification:
		return "misclassification"
	case StageLocation:
		return "location"
	default:
		return "final"
	}
}

// Assessment holds outcomes of all stages of a record.
type Assessment struct {
	Sequence          Outcome
	Name              Outcome
	Misclassification Outcome
	Location          Outcome
}

// Assess decodes the record's checks. Later stages of a record that
// failed or is still pending at an earlier stage are NotApplicable or
// Unknown respectively.
func Assess(rec *specimen.Record) Assessment {
	c := rec.Checks
	res := Assessment{
		Sequence:          sequenceOutcome(c),
		Name:              NotApplicable,
		Misclassification: NotApplicable,
		Location:          NotApplicable,
	}

	switch res.Sequence {
	case Pass:
	case Unknown:
		res.Name, res.Misclassification, res.Location = Unknown, Unknown, Unknown
		return res
	default:
		return res
	}

	res.Name = nameOutcome(rec)
	switch res.Name {
	case Pass:
	case Unknown:
		res.Misclassification, res.Location = Unknown, Unknown
		return res
	default:
		return res
	}

	locationDone := c.Has(specimen.LocationChecked) ||
		c.Has(specimen.LocationNoData)

	switch {
	case c.Has(specimen.Misclassified):
		res.Misclassification = Fail
		return res
	case c.DeepestVerified() < specimen.Genus:
		res.Misclassification = NotApplicable
	case locationDone:
		res.Misclassification = Pass
	default:
		res.Misclassification = Unknown
	}

	switch {
	case c.Has(specimen.LocationNoData):
		res.Location = NotApplicable
	case c.Has(specimen.LocationChecked) && c.Has(specimen.LocationUncertain):
		res.Location = Fail
	case c.Has(specimen.LocationChecked):
		res.Location = Pass
	default:
		res.Location = Unknown
	}
	return res
}

func sequenceOutcome(c specimen.Checks) Outcome {
	failed := specimen.Mask(
		specimen.Duplicate, specimen.LengthFail, specimen.Hybrid,
	)
	switch {
	case c.HasAny(failed):
		return Fail
	case c.Has(specimen.Selected):
		return Pass
	default:
		return Unknown
	}
}

func nameOutcome(rec *specimen.Record) Outcome {
	c := rec.Checks
	if c.Has(specimen.NameNoMatch) {
		return Fail
	}
	chain := rec.Taxonomy.Chain()
	if len(chain) == 0 {
		return Unknown
	}
	for _, r := range chain {
		if !c.Verified(r) {
			return Unknown
		}
	}
	return Pass
}

// Next returns the earliest stage that still has to run, or StageFinal.
func (a Assessment) Next() Stage {
	switch {
	case a.Sequence == Unknown:
		return StageSequence
	case a.Name == Unknown:
		return StageName
	case a.Misclassification == Unknown:
		return StageMisclassification
	case a.Location == Unknown:
		return StageLocation
	default:
		return StageFinal
	}
}

// Unresolved is true when some stage waits for a successful evaluation.
func (a Assessment) Unresolved() bool {
	return a.Next() != StageFinal
}
