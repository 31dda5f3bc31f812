package iogbif

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gnames/gnbold/pkg/namecheck"
	"github.com/gnames/gnbold/pkg/specimen"
)

// nameUsage is the answer of the species/match endpoint.
type nameUsage struct {
	UsageKey         int64  `json:"usageKey"`
	AcceptedUsageKey int64  `json:"acceptedUsageKey"`
	ScientificName   string `json:"scientificName"`
	CanonicalName    string `json:"canonicalName"`
	Rank             string `json:"rank"`
	Status           string `json:"status"`
	Confidence       int    `json:"confidence"`
	MatchType        string `json:"matchType"`
	Note             string `json:"note"`
	Synonym          bool   `json:"synonym"`

	KingdomKey int64 `json:"kingdomKey"`
	PhylumKey  int64 `json:"phylumKey"`
	ClassKey   int64 `json:"classKey"`
	OrderKey   int64 `json:"orderKey"`
	FamilyKey  int64 `json:"familyKey"`
	GenusKey   int64 `json:"genusKey"`
	SpeciesKey int64 `json:"speciesKey"`
}

// key returns the lineage key of the usage at a rank.
func (u nameUsage) key(r specimen.Rank) int64 {
	switch r {
	case specimen.Kingdom:
		return u.KingdomKey
	case specimen.Phylum:
		return u.PhylumKey
	case specimen.Class:
		return u.ClassKey
	case specimen.Order:
		return u.OrderKey
	case specimen.Family:
		return u.FamilyKey
	case specimen.Genus:
		return u.GenusKey
	case specimen.Species:
		return u.SpeciesKey
	default:
		return 0
	}
}

// Names matches names against the GBIF backbone taxonomy.
type Names struct {
	client
	minConfidence int
}

// NewNames creates a GBIF name matcher. Matches below minConfidence are
// ambiguous.
func NewNames(baseURL string, timeout time.Duration, minConfidence int) *Names {
	return &Names{
		client:        newClient(baseURL, timeout),
		minConfidence: minConfidence,
	}
}

// Match implements namecheck.Matcher.
func (n *Names) Match(
	ctx context.Context,
	q namecheck.Query,
) (namecheck.Match, error) {
	params := url.Values{}
	params.Set("name", q.Name)
	params.Set("rank", strings.ToUpper(q.Rank.String()))
	params.Set("strict", "true")
	for _, r := range specimen.VerifiableRanks {
		if r >= q.Rank || r > specimen.Genus {
			break
		}
		if name := q.Lineage.Name(r); name != "" {
			params.Set(r.String(), name)
		}
	}

	var u nameUsage
	if err := n.get(ctx, "species/match", params, &u); err != nil {
		return namecheck.Match{}, err
	}
	return n.evaluate(q, u), nil
}

// evaluate turns a GBIF answer into a definitive match outcome.
func (n *Names) evaluate(q namecheck.Query, u nameUsage) namecheck.Match {
	res := namecheck.Match{MatchedName: u.ScientificName}
	switch strings.ToUpper(u.MatchType) {
	case "EXACT", "FUZZY":
	case "NONE":
		res.Outcome = namecheck.NoMatch
		if strings.Contains(strings.ToLower(u.Note), "multiple equal matches") {
			res.Outcome = namecheck.Ambiguous
		}
		return res
	default:
		// HIGHERRANK does not confirm the requested rank
		res.Outcome = namecheck.NoMatch
		return res
	}

	parent := q.Rank.Parent()
	switch {
	case specimen.NewRank(u.Rank) != q.Rank,
		u.Confidence < n.minConfidence,
		q.ParentKey != "" && parent != specimen.NoRank &&
			strconv.FormatInt(u.key(parent), 10) != q.ParentKey:
		res.Outcome = namecheck.Ambiguous
		return res
	}

	key := u.UsageKey
	if u.Synonym && u.AcceptedUsageKey != 0 {
		key = u.AcceptedUsageKey
	}
	res.Outcome = namecheck.Confirmed
	res.Key = strconv.FormatInt(key, 10)
	return res
}
