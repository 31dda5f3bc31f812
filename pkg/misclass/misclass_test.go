package misclass_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gnames/gnbold/pkg/guard"
	"github.com/gnames/gnbold/pkg/misclass"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	preds []misclass.Prediction
	err   error
	qs    []misclass.Query
}

func (s *stubClassifier) Classify(
	_ context.Context,
	qs []misclass.Query,
) ([]misclass.Prediction, error) {
	s.qs = append(s.qs, qs...)
	return s.preds, s.err
}

func verified(id int64, to specimen.Rank) *specimen.Record {
	var tx specimen.Taxonomy
	tx.Set(specimen.Kingdom, "Animalia")
	tx.Set(specimen.Phylum, "Arthropoda")
	tx.Set(specimen.Class, "Insecta")
	tx.Set(specimen.Order, "Lepidoptera")
	tx.Set(specimen.Family, "Noctuidae")
	tx.Set(specimen.Genus, "Agrotis")
	tx.Set(specimen.Species, "Agrotis segetum")
	rec := &specimen.Record{
		ID:              id,
		Taxonomy:        tx,
		CuratedSequence: "ACGTACGT",
		Checks:          specimen.Mask(specimen.Selected, specimen.NameChecked),
	}
	for _, r := range specimen.VerifiableRanks {
		if r > to {
			break
		}
		bit, _ := specimen.RankBit(r)
		rec.Checks.Set(bit)
	}
	return rec
}

func prediction(id int64, family, genus string, score float64) misclass.Prediction {
	var tx specimen.Taxonomy
	tx.Set(specimen.Phylum, "Arthropoda")
	tx.Set(specimen.Class, "Insecta")
	tx.Set(specimen.Order, "Lepidoptera")
	tx.Set(specimen.Family, family)
	tx.Set(specimen.Genus, genus)
	tx.Set(specimen.Species, "Other_species")
	return misclass.Prediction{
		ID:      id,
		Lineage: tx,
		Scores: map[specimen.Rank]float64{
			specimen.Phylum: 1, specimen.Class: 1, specimen.Order: 1,
			specimen.Family: score, specimen.Genus: score,
			specimen.Species: 1,
		},
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		msg   string
		pred  misclass.Prediction
		out   verdict.Outcome
		isBad bool
	}{
		{"agree", prediction(1, "Noctuidae", "Agrotis", 1), verdict.Pass, false},
		{"species only", prediction(1, "noctuidae", "Agrotis", 1),
			verdict.Pass, false},
		{"confident genus", prediction(1, "Noctuidae", "Euxoa", 0.95),
			verdict.Fail, true},
		{"weak genus", prediction(1, "Noctuidae", "Euxoa", 0.5),
			verdict.Pass, false},
		{"confident family", prediction(1, "Erebidae", "Euxoa", 0.9),
			verdict.Fail, true},
		{"other id", prediction(7, "Erebidae", "Euxoa", 1), verdict.Pass, false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			cls := &stubClassifier{preds: []misclass.Prediction{tt.pred}}
			c := misclass.New(cls, nil, 0.9)
			rec := verified(1, specimen.Species)

			res, err := c.Check(context.Background(), []*specimen.Record{rec})
			require.NoError(t, err)
			assert.Equal(t, []verdict.Outcome{tt.out}, res)
			assert.Equal(t, tt.isBad, rec.Checks.Has(specimen.Misclassified))
		})
	}
}

func TestCheckApplicability(t *testing.T) {
	cls := &stubClassifier{}
	c := misclass.New(cls, nil, 0.9)
	family := verified(1, specimen.Family)
	genus := verified(2, specimen.Genus)
	noSeq := verified(3, specimen.Species)
	noSeq.CuratedSequence = ""

	res, err := c.Check(context.Background(),
		[]*specimen.Record{family, genus, noSeq})
	require.NoError(t, err)
	assert.Equal(t, []verdict.Outcome{
		verdict.NotApplicable, verdict.Pass, verdict.NotApplicable,
	}, res)
	require.Len(t, cls.qs, 1)
	assert.Equal(t, int64(2), cls.qs[0].ID)
	assert.Equal(t, "Agrotis", cls.qs[0].Lineage.Name(specimen.Genus))
	assert.Empty(t, cls.qs[0].Lineage.Name(specimen.Species))

	disabled := misclass.New(nil, nil, 0.9)
	assert.False(t, disabled.Enabled())
	res, err = disabled.Check(context.Background(), []*specimen.Record{genus})
	require.NoError(t, err)
	assert.Equal(t, []verdict.Outcome{verdict.NotApplicable}, res)
}

func TestCheckFailure(t *testing.T) {
	cls := &stubClassifier{err: errors.New("raxtax exited with status 1")}
	g := guard.New("classifier",
		guard.OptAttempts(2), guard.OptBackoff(time.Millisecond))
	c := misclass.New(cls, g, 0.9)
	rec := verified(1, specimen.Species)

	res, err := c.Check(context.Background(), []*specimen.Record{rec})
	require.NoError(t, err)
	assert.Equal(t, []verdict.Outcome{verdict.Unknown}, res)
	assert.False(t, rec.Checks.Has(specimen.Misclassified))
	assert.Len(t, cls.qs, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Check(ctx, []*specimen.Record{rec})
	assert.ErrorIs(t, err, context.Canceled)
}
