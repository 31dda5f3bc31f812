package curation_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/internal/iofixture"
	"github.com/gnames/gnbold/internal/iotesting"
	"github.com/gnames/gnbold/pkg/config"
	"github.com/gnames/gnbold/pkg/curation"
	"github.com/gnames/gnbold/pkg/errcode"
	"github.com/gnames/gnbold/pkg/namecheck"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	seqA = "ACGTTGCAACGGTACCATGCAAGT"
	seqB = "TTGACCGTAGGCATCGATCGGATA"
	seqC = "GGCATTACGATCGACTAGCTAGGA"
	seqD = "CATGCATGCATGGATCCAGTTAAC"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type sliceReader []specimen.Record

func (r sliceReader) Read(ctx context.Context, ch chan<- specimen.Record) error {
	for _, rec := range r {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- rec:
		}
	}
	return nil
}

func record(id int64, seq string) specimen.Record {
	res := specimen.Record{
		ID:            id,
		RawSequence:   seq,
		SourceHash:    seq,
		SourceUpdated: t0,
	}
	names := []struct {
		rank specimen.Rank
		name string
	}{
		{specimen.Kingdom, "Animalia"},
		{specimen.Phylum, "Arthropoda"},
		{specimen.Class, "Insecta"},
		{specimen.Order, "Diptera"},
		{specimen.Family, "Chironomidae"},
		{specimen.Genus, "Chironomus"},
		{specimen.Species, "Chironomus riparius"},
	}
	for _, v := range names {
		res.Taxonomy.Set(v.rank, v.name)
	}
	return res
}

type env struct {
	st       *iotesting.MemStore
	cfg      *config.Config
	fixture  *iofixture.Fixture
	faults   *iofixture.Faults
	classify bool
}

func newEnv(t *testing.T) *env {
	t.Helper()
	f, err := iofixture.Load(filepath.Join("testdata", "fixture.yaml"))
	require.NoError(t, err)
	return &env{
		st:      iotesting.NewMemStore(),
		cfg:     iotesting.Config(t),
		fixture: f,
		faults:  iofixture.NewFaults(),
	}
}

func (e *env) engine(t *testing.T) *curation.Engine {
	t.Helper()
	c := curation.Collaborators{
		Names:       e.faults.Names(e.fixture.Names()),
		Occurrences: e.faults.Occurrences(e.fixture.Occurrences()),
	}
	if e.classify {
		c.Classifier = e.faults.Classifier(e.fixture.Classifier())
	}
	res, err := curation.New(e.cfg, e.st, c,
		curation.OptBackoff(time.Millisecond))
	require.NoError(t, err)
	return res
}

func (e *env) get(t *testing.T, id int64) specimen.Record {
	t.Helper()
	res, err := e.st.Get(context.Background(), id)
	require.NoError(t, err)
	return res
}

func checkInvariants(t *testing.T, recs []specimen.Record, minRank specimen.Rank) {
	t.Helper()
	for _, rec := range recs {
		assert.True(t, rec.Checks.IsMonotonic(), "id %d", rec.ID)
		if !rec.Include {
			continue
		}
		assert.True(t, rec.Checks.Has(specimen.Selected), "id %d", rec.ID)
		assert.False(t, rec.Checks.HasAny(specimen.Mask(
			specimen.Duplicate, specimen.LengthFail, specimen.Hybrid,
		)), "id %d", rec.ID)
		assert.True(t, rec.Checks.VerifiedTo(minRank), "id %d", rec.ID)
	}
}

func TestBuild(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	e := newEnv(t)

	nl := record(3, seqB)
	nl.CountryISO = "nl"
	br := record(4, seqC)
	br.CountryISO = "BR"
	recs := sliceReader{
		record(1, seqA),
		record(2, "GGGG"),
		nl,
		br,
		record(5, "TTGCAACGGTACCATG"),
		record(6, "acgt-tgcaacggtaccatgcaagt"),
		record(7, seqD),
	}
	recs[6].Taxonomy = specimen.Taxonomy{}

	rep, err := e.engine(t).Build(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, "build", rep.Command)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 7, rep.Processed)
	assert.Equal(t, 2, rep.Included)
	assert.Equal(t, 5, rep.Excluded)
	assert.Equal(t, 0, rep.Unresolved)
	assert.Equal(t, 2, rep.Duplicates)

	verified := specimen.Mask(
		specimen.Selected, specimen.NameChecked,
		specimen.KingdomVerified, specimen.PhylumVerified,
		specimen.ClassVerified, specimen.OrderVerified,
		specimen.FamilyVerified, specimen.GenusVerified,
		specimen.SpeciesVerified,
	)

	tests := []struct {
		msg     string
		id      int64
		checks  specimen.Checks
		include bool
	}{
		{"no locality", 1, verified | specimen.Mask(specimen.LocationNoData), true},
		{"short", 2, specimen.Mask(specimen.LengthFail), false},
		{"known country", 3, verified | specimen.Mask(specimen.LocationChecked), true},
		{"unexpected country", 4, verified | specimen.Mask(
			specimen.LocationChecked, specimen.LocationUncertain), false},
		{"subsequence", 5, specimen.Mask(specimen.Duplicate), false},
		{"same sequence", 6, specimen.Mask(specimen.Duplicate), false},
		{"no names", 7, specimen.Mask(specimen.Selected, specimen.NameNoMatch), false},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			rec := e.get(t, v.id)
			assert.Equal(t, v.checks, rec.Checks, rec.Checks.String())
			assert.Equal(t, v.include, rec.Include)
			assert.False(t, rec.LastUpdated.IsZero())
		})
	}

	rec := e.get(t, 3)
	assert.Equal(t, "1646391", rec.VerifiedTaxonKey)
	assert.Equal(t, specimen.Species, rec.IdentificationRank)
	assert.Equal(t, "NL", rec.CountryCode)
	require.NotNil(t, rec.GeoScore)
	assert.Equal(t, 2.0, *rec.GeoScore)

	checkInvariants(t, e.st.All(), specimen.Species)
}

func TestBuildCorpusExists(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, err := e.engine(t).Build(ctx, sliceReader{record(1, seqA)})
	require.NoError(t, err)

	_, err = e.engine(t).Build(ctx, sliceReader{record(2, seqB)})
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.CurationCorpusExistsError, gnErr.Code)
}

func TestNewMissingSettings(t *testing.T) {
	cfg := config.New()
	_, err := curation.New(cfg, iotesting.NewMemStore(), curation.Collaborators{})
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.ConfigMissingSettingError, gnErr.Code)
}

func TestReviewRetriesFailedLookup(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	e := newEnv(t)

	genus := iofixture.NameKey(namecheck.Query{
		Name: "Chironomus", Rank: specimen.Genus,
	})
	kingdom := iofixture.NameKey(namecheck.Query{
		Name: "Animalia", Rank: specimen.Kingdom,
	})
	e.faults.FailAlways(genus)

	rep, err := e.engine(t).Build(ctx, sliceReader{record(1, seqA)})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Unresolved)

	rec := e.get(t, 1)
	assert.True(t, rec.Checks.VerifiedTo(specimen.Family))
	assert.False(t, rec.Checks.Verified(specimen.Genus))
	assert.False(t, rec.Checks.Has(specimen.NameNoMatch))
	assert.False(t, rec.Include)
	assert.Equal(t, verdict.StageName, verdict.Assess(&rec).Next())
	assert.Equal(t, 2, e.faults.Calls(genus))

	rep, err = e.engine(t).Review(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.UnresolvedBefore)
	assert.Equal(t, 1, rep.UnresolvedAfter)
	assert.Equal(t, 4, e.faults.Calls(genus))
	assert.Equal(t, 1, e.faults.Calls(kingdom))

	e.faults.Heal(genus)
	rep, err = e.engine(t).Review(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.UnresolvedBefore)
	assert.Equal(t, 0, rep.UnresolvedAfter)
	assert.Equal(t, 1, rep.Included)
	assert.Equal(t, 5, e.faults.Calls(genus))
	assert.Equal(t, 1, e.faults.Calls(kingdom))

	rec = e.get(t, 1)
	assert.True(t, rec.Include)
	assert.True(t, rec.Checks.Has(specimen.LocationNoData))
	checkInvariants(t, e.st.All(), specimen.Species)
}

func TestReviewIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	occ := iofixture.OccurrenceKey("1646391")
	e.faults.FailAlways(occ)

	nl := record(1, seqA)
	nl.CountryISO = "NL"
	_, err := e.engine(t).Build(ctx, sliceReader{nl, record(2, seqB)})
	require.NoError(t, err)

	rep1, err := e.engine(t).Review(ctx)
	require.NoError(t, err)
	before := e.st.All()
	saves := e.st.Saves()

	rep2, err := e.engine(t).Review(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep1.UnresolvedAfter)
	assert.Equal(t, rep1.UnresolvedAfter, rep2.UnresolvedAfter)
	assert.Equal(t, rep1.UnresolvedBefore, rep2.UnresolvedBefore)
	assert.Equal(t, saves, e.st.Saves())
	if diff := cmp.Diff(before, e.st.All()); diff != "" {
		t.Errorf("review changed records (-before +after):\n%s", diff)
	}

	e.faults.Heal(occ)
	rep3, err := e.engine(t).Review(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rep3.UnresolvedAfter)
	assert.Equal(t, 2, rep3.Included)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.engine(t).Build(ctx, sliceReader{record(1, seqA)})
	require.NoError(t, err)
	stored := e.get(t, 1)

	t.Run("older revision", func(t *testing.T) {
		old := record(1, seqB)
		old.SourceUpdated = t0.Add(-time.Hour)
		same := record(1, seqC)
		rep, err := e.engine(t).Update(ctx, sliceReader{old, same})
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Conflicts)
		assert.Equal(t, 0, rep.Processed)
		if diff := cmp.Diff(stored, e.get(t, 1)); diff != "" {
			t.Errorf("conflict changed record (-want +got):\n%s", diff)
		}
	})

	t.Run("same source", func(t *testing.T) {
		rec := record(1, seqA)
		rec.SourceUpdated = t0.Add(time.Hour)
		rep, err := e.engine(t).Update(ctx, sliceReader{rec})
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Unchanged)
		got := e.get(t, 1)
		assert.Equal(t, stored.Checks, got.Checks)
		assert.True(t, got.SourceUpdated.Equal(t0.Add(time.Hour)))
	})

	t.Run("new subsequence", func(t *testing.T) {
		rep, err := e.engine(t).Update(ctx,
			sliceReader{record(10, "GCAACGGTACCATGC")})
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Duplicates)
		got := e.get(t, 10)
		assert.Equal(t, specimen.Mask(specimen.Duplicate), got.Checks)
	})

	t.Run("changed country", func(t *testing.T) {
		rec := record(1, seqA)
		rec.SourceHash = "changed"
		rec.CountryISO = "BR"
		rec.SourceUpdated = t0.Add(2 * time.Hour)
		rep, err := e.engine(t).Update(ctx, sliceReader{rec})
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Excluded)
		got := e.get(t, 1)
		assert.True(t, got.Checks.Has(specimen.LocationChecked))
		assert.True(t, got.Checks.Has(specimen.LocationUncertain))
		assert.False(t, got.Checks.Has(specimen.LocationNoData))
		assert.True(t, got.Checks.Verified(specimen.Species))
		assert.False(t, got.Include)
	})

	t.Run("changed sequence", func(t *testing.T) {
		rec := record(1, seqD)
		rec.SourceUpdated = t0.Add(3 * time.Hour)
		_, err := e.engine(t).Update(ctx, sliceReader{rec})
		require.NoError(t, err)
		got := e.get(t, 1)
		assert.Equal(t, seqD, got.CuratedSequence)
		assert.True(t, got.Checks.Has(specimen.Selected))
		assert.True(t, got.Checks.Has(specimen.LocationNoData))
		assert.True(t, got.Include)
	})

	checkInvariants(t, e.st.All(), specimen.Species)
}

func TestMisclassified(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.classify = true

	rep, err := e.engine(t).Build(ctx,
		sliceReader{record(7, seqA), record(8, seqB)})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Included)
	assert.Equal(t, 1, e.faults.Calls(iofixture.ClassifierKey))

	rec := e.get(t, 7)
	assert.True(t, rec.Checks.Has(specimen.Misclassified))
	assert.True(t, rec.Checks.Has(specimen.Selected))
	assert.False(t, rec.Checks.HasAny(specimen.LocationBits))
	assert.False(t, rec.Include)
	assert.False(t, verdict.Assess(&rec).Unresolved())

	rec = e.get(t, 8)
	assert.False(t, rec.Checks.Has(specimen.Misclassified))
	assert.True(t, rec.Checks.Has(specimen.LocationNoData))
	assert.True(t, rec.Include)
}

func TestBuildCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEnv(t)
	_, err := e.engine(t).Build(ctx, sliceReader{record(1, seqA)})
	require.Error(t, err)
}
