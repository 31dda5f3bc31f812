package seqcheck_test

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gnames/gnbold/pkg/seqcheck"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSeq(r *rand.Rand, n int) string {
	const bases = "ACGT"
	b := make([]byte, n)
	for i := range b {
		b[i] = bases[r.Intn(len(bases))]
	}
	return string(b)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		msg string
		raw string
		res string
	}{
		{"plain", "ACGT", "ACGT"},
		{"lower case and rna", "acgu", "ACGT"},
		{"gaps", "AC--G.T", "ACGT"},
		{"padding", "--NNN_ACGTN-_", "ACGT"},
		{"inner N kept", "NNACNGTNN", "ACNGT"},
		{"whitespace", " AC\nGT\t", "ACGT"},
		{"only gaps", "---NNN", ""},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			assert.Equal(t, v.res, seqcheck.Normalize(v.raw))
		})
	}
}

func TestCurate(t *testing.T) {
	tests := []struct {
		msg    string
		raw    string
		min    int
		max    int
		length int
		err    bool
	}{
		{"in bounds", strings.Repeat("A", 250), 200, 0, 250, false},
		{"too short", strings.Repeat("A", 199), 200, 0, 199, true},
		{"too long", strings.Repeat("A", 30), 10, 20, 30, true},
		{"padding does not count", "NNNN" + strings.Repeat("C", 200),
			200, 0, 200, false},
		{"empty", "", 0, 0, 0, true},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			res, err := seqcheck.Curate(v.raw, v.min, v.max)
			assert.Len(t, res, v.length)
			if v.err {
				assert.ErrorIs(t, err, seqcheck.ErrLength)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestIndex(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	long := randomSeq(r, 600)
	other := randomSeq(r, 600)

	mut := "A"
	if long[100] == 'A' {
		mut = "C"
	}

	idx := seqcheck.NewIndex(0, 0)
	_, dup := idx.Admit(1, long)
	require.False(t, dup)
	_, dup = idx.Admit(2, other)
	require.False(t, dup)
	assert.Equal(t, 2, idx.Len())

	tests := []struct {
		msg string
		seq string
		id  int64
		dup bool
	}{
		{"identical", long, 1, true},
		{"prefix", long[:300], 1, true},
		{"inner", long[150:450], 1, true},
		{"suffix of second", other[400:], 2, true},
		{"shorter than span", long[10:30], 0, false},
		{"short identical", "ACGTACGT", 0, false},
		{"superstring", long + "ACGT", 0, false},
		{"unrelated", randomSeq(r, 300), 0, false},
		{"mutated", long[:100] + mut + long[101:400], 0, false},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			id, ok := idx.Find(v.seq, 100)
			assert.Equal(t, v.dup, ok)
			if v.dup {
				assert.Equal(t, v.id, id)
			}
		})
	}

	t.Run("own sequence is not a duplicate", func(t *testing.T) {
		_, ok := idx.Find(long, 1)
		assert.False(t, ok)
		_, dup := idx.Admit(1, long)
		assert.False(t, dup)
		assert.Equal(t, 2, idx.Len())
	})

	t.Run("removed sequence is forgotten", func(t *testing.T) {
		idx.Remove(2, other)
		_, ok := idx.Find(other[100:300], 100)
		assert.False(t, ok)
		assert.Equal(t, 1, idx.Len())
	})
}

func TestNewIndexFor(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	long := randomSeq(r, 120)

	tests := []struct {
		msg    string
		minLen int
		span   int
	}{
		{"default", 200, 39},
		{"at default span", 39, 39},
		{"short minimum", 20, 20},
		{"tiny minimum", 3, 3},
		{"unset minimum", 0, 1},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			idx := seqcheck.NewIndexFor(v.minLen)
			assert.Equal(t, v.span, idx.Span())

			_, dup := idx.Admit(1, long)
			require.False(t, dup)
			q := long[40 : 40+max(v.minLen, 1)]
			id, ok := idx.Find(q, 2)
			assert.True(t, ok)
			assert.Equal(t, int64(1), id)
		})
	}
}

func TestIndexRemovePrunesPostings(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	idx := seqcheck.NewIndex(0, 0)
	keep := randomSeq(r, 500)
	_, dup := idx.Admit(1, keep)
	require.False(t, dup)
	base := idx.Postings()

	for i := range 100 {
		old := randomSeq(r, 500)
		_, dup := idx.Admit(2, old)
		require.False(t, dup, "round %d", i)
		assert.Greater(t, idx.Postings(), base)
		idx.Remove(2, old)
		assert.Equal(t, base, idx.Postings(), "round %d", i)
		assert.Equal(t, 1, idx.Len())

		_, ok := idx.Find(old[100:300], 3)
		assert.False(t, ok)
	}

	_, ok := idx.Find(keep[100:300], 3)
	assert.True(t, ok)
}

func TestIndexConcurrentAdmit(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	base := randomSeq(r, 800)
	idx := seqcheck.NewIndex(0, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq := base[i : i+400]
			if i%2 == 0 {
				seq = base
			}
			if _, dup := idx.Admit(int64(i+1), seq); !dup {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Either the full sequence came first and everything else is a
	// duplicate, or some windows got in before it.
	_, ok := idx.Find(base, 0)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, admitted, 1)
	assert.Equal(t, admitted, idx.Len())
}

func TestIsHybrid(t *testing.T) {
	tests := []struct {
		text string
		res  bool
	}{
		{"Salix alba x fragilis", true},
		{"Salix alba X Salix fragilis", true},
		{"Mentha × piperita", true},
		{"Anas hybrid", true},
		{"Salix nothosubsp. rubens", true},
		{"Xylocopa violacea", false},
		{"Carex x", false},
		{"", false},
	}

	for _, v := range tests {
		t.Run(v.text, func(t *testing.T) {
			assert.Equal(t, v.res, seqcheck.IsHybrid(v.text, nil, ""))
		})
	}
}

func TestValidatorCheck(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	long := randomSeq(r, 500)
	v := seqcheck.New(seqcheck.NewIndex(0, 0), 200, 0, nil)

	tests := []struct {
		msg     string
		rec     specimen.Record
		outcome verdict.Outcome
		checks  specimen.Checks
	}{
		{
			msg:     "passes",
			rec:     specimen.Record{ID: 1, RawSequence: "--" + long + "NN"},
			outcome: verdict.Pass,
			checks:  specimen.Mask(specimen.Selected),
		},
		{
			msg:     "exact duplicate",
			rec:     specimen.Record{ID: 2, RawSequence: strings.ToLower(long)},
			outcome: verdict.Fail,
			checks:  specimen.Mask(specimen.Duplicate),
		},
		{
			msg:     "partial read",
			rec:     specimen.Record{ID: 3, RawSequence: long[50:300]},
			outcome: verdict.Fail,
			checks:  specimen.Mask(specimen.Duplicate),
		},
		{
			msg:     "short",
			rec:     specimen.Record{ID: 4, RawSequence: randomSeq(r, 150)},
			outcome: verdict.Fail,
			checks:  specimen.Mask(specimen.LengthFail),
		},
		{
			msg: "hybrid",
			rec: specimen.Record{
				ID: 5, RawSequence: randomSeq(r, 400),
				Identification: "Salix alba x fragilis",
			},
			outcome: verdict.Fail,
			checks:  specimen.Mask(specimen.Hybrid),
		},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			rec := tt.rec
			res := v.Check(&rec)
			assert.Equal(t, tt.outcome, res)
			assert.Equal(t, tt.checks, rec.Checks, fmt.Sprintf("%s", rec.Checks))
			assert.NotEmpty(t, rec.CuratedSequence)
		})
	}

	assert.Equal(t, 1, v.Index().Len())
}

func TestValidatorShortRecords(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	idx := seqcheck.NewIndexFor(200)
	seqs := make([]string, 10_000)
	for i := range seqs {
		seqs[i] = randomSeq(r, 650)
		_, dup := idx.Admit(int64(i+1), seqs[i])
		require.False(t, dup)
	}
	v := seqcheck.New(idx, 200, 0, nil)

	start := time.Now()
	for i := range 200 {
		for _, n := range []int{30, 60} {
			src := seqs[r.Intn(len(seqs))]
			rec := specimen.Record{
				ID:          int64(100_000 + i),
				RawSequence: src[100 : 100+n],
			}
			res := v.Check(&rec)
			assert.Equal(t, verdict.Fail, res)
			assert.Equal(t, specimen.Mask(specimen.LengthFail), rec.Checks)
		}
	}
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, len(seqs), idx.Len())
}
