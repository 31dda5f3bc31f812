package specimen

import "fmt"

// Bit is a position in the persisted checks bitvector.
type Bit uint8

const (
	Selected Bit = iota
	NameChecked
	Duplicate
	LengthFail
	Hybrid
	KingdomVerified
	PhylumVerified
	ClassVerified
	OrderVerified
	FamilyVerified
	// SubfamilyVerified and TribeVerified are reserved.
	SubfamilyVerified
	TribeVerified
	GenusVerified
	SpeciesVerified
	SubspeciesVerified
	Misclassified
	NameNoMatch
	LocationChecked
	LocationUncertain
	LocationNoData
)

// ChecksWidth is the number of meaningful bits in Checks.
const ChecksWidth = 20

// Checks is the persisted bitvector of evaluated checks. An unset bit
// means the check was not evaluated.
type Checks uint32

// Groups of bits owned by one stage.
var (
	SequenceBits = Mask(Selected, Duplicate, LengthFail, Hybrid)
	NameBits     = Mask(
		NameChecked, NameNoMatch,
		KingdomVerified, PhylumVerified, ClassVerified, OrderVerified,
		FamilyVerified, SubfamilyVerified, TribeVerified,
		GenusVerified, SpeciesVerified, SubspeciesVerified,
	)
	LocationBits = Mask(LocationChecked, LocationUncertain, LocationNoData)
)

// Mask builds Checks with the given bits set.
func Mask(bits ...Bit) Checks {
	var res Checks
	for _, b := range bits {
		res.Set(b)
	}
	return res
}

// Has reports whether the bit is set.
func (c Checks) Has(b Bit) bool {
	return c&(1<<b) != 0
}

// HasAny reports whether any bit of the mask is set.
func (c Checks) HasAny(m Checks) bool {
	return c&m != 0
}

func (c *Checks) Set(b Bit) {
	*c |= 1 << b
}

func (c *Checks) Clear(b Bit) {
	*c &^= 1 << b
}

// ClearMask unsets all bits of the mask.
func (c *Checks) ClearMask(m Checks) {
	*c &^= m
}

// RankBit returns the verification bit of a rank.
func RankBit(r Rank) (Bit, bool) {
	if r < Kingdom || r > Subspecies {
		return 0, false
	}
	return Bit(int(KingdomVerified) + int(r-Kingdom)), true
}

// Verified reports whether the rank bit is set.
func (c Checks) Verified(r Rank) bool {
	b, ok := RankBit(r)
	return ok && c.Has(b)
}

// VerifiedTo reports whether every verifiable rank from kingdom down to r
// is verified.
func (c Checks) VerifiedTo(r Rank) bool {
	if !r.IsVerifiable() {
		return false
	}
	for _, v := range VerifiableRanks {
		if v > r {
			break
		}
		if !c.Verified(v) {
			return false
		}
	}
	return true
}

// DeepestVerified returns the deepest rank of the uninterrupted verified
// chain that starts at kingdom.
func (c Checks) DeepestVerified() Rank {
	res := NoRank
	for _, v := range VerifiableRanks {
		if !c.Verified(v) {
			break
		}
		res = v
	}
	return res
}

// IsMonotonic is true when no rank is verified without its parent ranks.
func (c Checks) IsMonotonic() bool {
	gap := false
	for _, v := range VerifiableRanks {
		ok := c.Verified(v)
		if ok && gap {
			return false
		}
		if !ok {
			gap = true
		}
	}
	return !c.Verified(Subfamily) && !c.Verified(Tribe)
}

func (c Checks) String() string {
	return fmt.Sprintf("%0*b", ChecksWidth, uint32(c))
}
