package specimen

import (
	"regexp"
	"strings"
)

// Rank is a level of the taxonomic hierarchy.
type Rank int

const (
	NoRank Rank = iota
	Kingdom
	Phylum
	Class
	Order
	Family
	Subfamily
	Tribe
	Genus
	Species
	Subspecies
)

var rankNames = [...]string{
	"", "kingdom", "phylum", "class", "order", "family",
	"subfamily", "tribe", "genus", "species", "subspecies",
}

// VerifiableRanks are the ranks checked against a name-matching service,
// from the top of the hierarchy down. Subfamily and tribe are not
// verified.
var VerifiableRanks = []Rank{
	Kingdom, Phylum, Class, Order, Family, Genus, Species, Subspecies,
}

func (r Rank) String() string {
	if r < NoRank || int(r) >= len(rankNames) {
		return ""
	}
	return rankNames[r]
}

// NewRank converts a rank name to Rank. Unknown names give NoRank.
func NewRank(s string) Rank {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return NoRank
	}
	for i, v := range rankNames {
		if v == s {
			return Rank(i)
		}
	}
	return NoRank
}

// IsVerifiable is true for ranks that have a verification bit.
func (r Rank) IsVerifiable() bool {
	return r >= Kingdom && r <= Subspecies && r != Subfamily && r != Tribe
}

// Parent returns the closest verifiable rank above r, or NoRank for
// kingdom.
func (r Rank) Parent() Rank {
	for i := len(VerifiableRanks) - 1; i >= 0; i-- {
		if VerifiableRanks[i] < r {
			return VerifiableRanks[i]
		}
	}
	return NoRank
}

// Taxonomy holds recorded names indexed by Rank.
type Taxonomy [Subspecies + 1]string

// Name returns the recorded name at the rank.
func (t Taxonomy) Name(r Rank) string {
	if r <= NoRank || r > Subspecies {
		return ""
	}
	return t[r]
}

// Set assigns a trimmed name to the rank.
func (t *Taxonomy) Set(r Rank, name string) {
	if r <= NoRank || r > Subspecies {
		return
	}
	t[r] = strings.TrimSpace(name)
}

// IsEmpty is true when no rank carries a name.
func (t Taxonomy) IsEmpty() bool {
	for _, v := range t {
		if v != "" {
			return false
		}
	}
	return true
}

var placeholderRe = regexp.MustCompile(
	`(?i)(\bspp?\.?(\s|$)|\b(cf|aff|nr|gr|near)\.?\s|BOLD:|\d|\?)`,
)

// IsPlaceholder detects provisional names such as "Aus sp. 2",
// "Aus cf. bus" or BIN-based labels that no name service can confirm.
func IsPlaceholder(name string) bool {
	return placeholderRe.MatchString(name)
}

// Chain returns the verifiable ranks that carry usable names, from kingdom
// down, stopping at the first empty or provisional name.
func (t Taxonomy) Chain() []Rank {
	var res []Rank
	for _, r := range VerifiableRanks {
		name := t.Name(r)
		if name == "" || IsPlaceholder(name) {
			break
		}
		res = append(res, r)
	}
	return res
}
