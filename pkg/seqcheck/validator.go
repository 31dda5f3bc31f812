package seqcheck

import (
	"log/slog"

	"github.com/gnames/gnbold/pkg/parserpool"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
)

// Validator runs the sequence stage against a shared Index.
type Validator struct {
	minLen, maxLen int
	index          *Index
	parser         parserpool.Pool
}

// New creates a Validator. The parser pool is optional.
func New(idx *Index, minLen, maxLen int, pool parserpool.Pool) *Validator {
	return &Validator{
		minLen: minLen,
		maxLen: maxLen,
		index:  idx,
		parser: pool,
	}
}

// Index returns the shared duplicate index.
func (v *Validator) Index() *Index {
	return v.index
}

// Check curates the raw sequence, sets the sequence bits of the record and
// admits a passing sequence into the index. Only a record that passes gets
// the Selected bit. Checking a record again is safe: its own admitted
// sequence is never reported as a duplicate.
func (v *Validator) Check(rec *specimen.Record) verdict.Outcome {
	rec.Checks.ClearMask(specimen.SequenceBits)

	seq, err := Curate(rec.RawSequence, v.minLen, v.maxLen)
	rec.CuratedSequence = seq
	rec.Hash = Hash(seq)

	if err != nil {
		rec.Checks.Set(specimen.LengthFail)
	}
	if v.isHybrid(rec) {
		rec.Checks.Set(specimen.Hybrid)
	}

	if !rec.Checks.HasAny(specimen.SequenceBits) {
		if dupOf, dup := v.index.Admit(rec.ID, seq); dup {
			rec.Checks.Set(specimen.Duplicate)
			slog.Debug("Duplicate sequence", "id", rec.ID, "duplicate_of", dupOf)
		}
	} else if !rec.Checks.Has(specimen.LengthFail) {
		if _, dup := v.index.Find(seq, rec.ID); dup {
			rec.Checks.Set(specimen.Duplicate)
		}
	}

	if rec.Checks.HasAny(specimen.SequenceBits) {
		v.index.Remove(rec.ID, seq)
		return verdict.Fail
	}
	rec.Checks.Set(specimen.Selected)
	return verdict.Pass
}

func (v *Validator) isHybrid(rec *specimen.Record) bool {
	kingdom := rec.Taxonomy.Name(specimen.Kingdom)
	for _, text := range []string{
		rec.Identification,
		rec.Taxonomy.Name(specimen.Species),
		rec.Taxonomy.Name(specimen.Subspecies),
	} {
		if IsHybrid(text, v.parser, kingdom) {
			return true
		}
	}
	return false
}
