package namecheck_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gnames/gnbold/pkg/guard"
	"github.com/gnames/gnbold/pkg/namecheck"
	"github.com/gnames/gnbold/pkg/parserpool"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMatcher confirms every name with a key derived from rank and name,
// unless told otherwise.
type stubMatcher struct {
	mu      sync.Mutex
	calls   []namecheck.Query
	fail    map[specimen.Rank]bool
	outcome map[specimen.Rank]namecheck.Outcome
}

func (s *stubMatcher) Match(
	_ context.Context,
	q namecheck.Query,
) (namecheck.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, q)
	if s.fail[q.Rank] {
		return namecheck.Match{}, errors.New("connection refused")
	}
	if o, ok := s.outcome[q.Rank]; ok {
		return namecheck.Match{Outcome: o}, nil
	}
	return namecheck.Match{
		Outcome: namecheck.Confirmed,
		Key:     fmt.Sprintf("%s-%s", q.Rank, q.Name),
	}, nil
}

func (s *stubMatcher) ranks() []specimen.Rank {
	var res []specimen.Rank
	for _, v := range s.calls {
		res = append(res, v.Rank)
	}
	return res
}

func record() specimen.Record {
	var tx specimen.Taxonomy
	tx.Set(specimen.Kingdom, "Animalia")
	tx.Set(specimen.Phylum, "Arthropoda")
	tx.Set(specimen.Class, "Insecta")
	tx.Set(specimen.Order, "Diptera")
	tx.Set(specimen.Family, "Chironomidae")
	tx.Set(specimen.Subfamily, "Chironominae")
	tx.Set(specimen.Genus, "Chironomus")
	tx.Set(specimen.Species, "Chironomus riparius")
	return specimen.Record{
		ID:       1,
		Taxonomy: tx,
		Checks:   specimen.Mask(specimen.Selected),
	}
}

func fastGuard() *guard.Guard {
	return guard.New("names",
		guard.OptAttempts(2),
		guard.OptBackoff(time.Millisecond),
	)
}

var toFamily = []specimen.Rank{
	specimen.Kingdom, specimen.Phylum, specimen.Class,
	specimen.Order, specimen.Family,
}

func TestVerifyFullChain(t *testing.T) {
	m := &stubMatcher{}
	v := namecheck.New(m, fastGuard(), nil)
	rec := record()

	res, err := v.Verify(context.Background(), &rec)
	require.NoError(t, err)
	assert.Equal(t, verdict.Pass, res)
	assert.Equal(t, specimen.Species, rec.IdentificationRank)
	assert.Equal(t, "species-Chironomus riparius", rec.VerifiedTaxonKey)
	assert.True(t, rec.Checks.Has(specimen.NameChecked))
	assert.True(t, rec.Checks.VerifiedTo(specimen.Species))
	assert.False(t, rec.Checks.Verified(specimen.Subfamily))
	assert.False(t, rec.Checks.Has(specimen.NameNoMatch))
	assert.Equal(t, append(toFamily, specimen.Genus, specimen.Species),
		m.ranks())

	// parent keys are carried down the chain
	assert.Empty(t, m.calls[0].ParentKey)
	assert.Equal(t, "family-Chironomidae", m.calls[5].ParentKey)
	assert.Equal(t, "Chironomidae", m.calls[5].Lineage.Name(specimen.Family))
}

func TestVerifyLookupFailedResumes(t *testing.T) {
	m := &stubMatcher{fail: map[specimen.Rank]bool{specimen.Genus: true}}
	v := namecheck.New(m, fastGuard(), nil)
	rec := record()

	res, err := v.Verify(context.Background(), &rec)
	require.NoError(t, err)
	assert.Equal(t, verdict.Unknown, res)
	assert.True(t, rec.Checks.VerifiedTo(specimen.Family))
	assert.False(t, rec.Checks.Verified(specimen.Genus))
	assert.False(t, rec.Checks.Verified(specimen.Species))
	assert.False(t, rec.Checks.Has(specimen.NameNoMatch))
	assert.True(t, rec.Checks.Has(specimen.NameChecked))
	assert.Equal(t, specimen.Family, rec.IdentificationRank)
	assert.Equal(t, verdict.StageName, verdict.Assess(&rec).Next())

	// two attempts for genus
	assert.Equal(t, append(toFamily, specimen.Genus, specimen.Genus),
		m.ranks())

	m.fail = nil
	m.calls = nil
	res, err = v.Verify(context.Background(), &rec)
	require.NoError(t, err)
	assert.Equal(t, verdict.Pass, res)
	assert.Equal(t, []specimen.Rank{specimen.Genus, specimen.Species},
		m.ranks())
	assert.Equal(t, "family-Chironomidae", m.calls[0].ParentKey)
}

func TestVerifyNegative(t *testing.T) {
	tests := []struct {
		msg     string
		outcome namecheck.Outcome
	}{
		{"no match", namecheck.NoMatch},
		{"ambiguous", namecheck.Ambiguous},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			m := &stubMatcher{outcome: map[specimen.Rank]namecheck.Outcome{
				specimen.Order: tt.outcome,
			}}
			v := namecheck.New(m, fastGuard(), nil)
			rec := record()

			res, err := v.Verify(context.Background(), &rec)
			require.NoError(t, err)
			assert.Equal(t, verdict.Fail, res)
			assert.True(t, rec.Checks.Has(specimen.NameNoMatch))
			assert.True(t, rec.Checks.VerifiedTo(specimen.Class))
			assert.False(t, rec.Checks.Verified(specimen.Order))
			assert.False(t, rec.Checks.Verified(specimen.Family))
			assert.Equal(t, specimen.Class, rec.IdentificationRank)

			m.calls = nil
			res, _ = v.Verify(context.Background(), &rec)
			assert.Equal(t, verdict.Fail, res)
			assert.Empty(t, m.calls)
		})
	}
}

func TestVerifyPlaceholderSpecies(t *testing.T) {
	m := &stubMatcher{}
	v := namecheck.New(m, fastGuard(), nil)
	rec := record()
	rec.Taxonomy.Set(specimen.Species, "Chironomus sp. 3ES")

	res, err := v.Verify(context.Background(), &rec)
	require.NoError(t, err)
	assert.Equal(t, verdict.Pass, res)
	assert.Equal(t, specimen.Genus, rec.IdentificationRank)
	assert.Len(t, m.calls, 6)
}

func TestVerifyNoNames(t *testing.T) {
	m := &stubMatcher{}
	v := namecheck.New(m, fastGuard(), nil)
	rec := specimen.Record{ID: 2, Checks: specimen.Mask(specimen.Selected)}

	res, err := v.Verify(context.Background(), &rec)
	require.NoError(t, err)
	assert.Equal(t, verdict.Fail, res)
	assert.True(t, rec.Checks.Has(specimen.NameNoMatch))
	assert.False(t, rec.Checks.Has(specimen.NameChecked))
	assert.Empty(t, m.calls)
}

func TestVerifyCanonicalQuery(t *testing.T) {
	pool := parserpool.New(1)
	defer pool.Close()

	m := &stubMatcher{}
	v := namecheck.New(m, nil, pool)
	rec := record()
	rec.Taxonomy.Set(specimen.Species, "Chironomus riparius Meigen")

	res, err := v.Verify(context.Background(), &rec)
	require.NoError(t, err)
	assert.Equal(t, verdict.Pass, res)
	assert.Equal(t, "Chironomus riparius", m.calls[len(m.calls)-1].Name)
}

func TestVerifyCanceled(t *testing.T) {
	m := &stubMatcher{}
	v := namecheck.New(m, fastGuard(), nil)
	rec := record()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := v.Verify(ctx, &rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, verdict.Unknown, res)
	assert.False(t, rec.Checks.Verified(specimen.Kingdom))
}
