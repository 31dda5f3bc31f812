// Package iofixture provides offline collaborators answering from a YAML
// fixture, and wrappers that inject transient failures into any
// collaborator.
package iofixture

import (
	"context"
	"os"
	"strings"

	"github.com/gnames/gnbold/pkg/geocheck"
	"github.com/gnames/gnbold/pkg/misclass"
	"github.com/gnames/gnbold/pkg/namecheck"
	"github.com/gnames/gnbold/pkg/specimen"
	"gopkg.in/yaml.v3"
)

// Fixture holds offline answers of the name-matching service, the
// occurrence service and the classifier.
type Fixture struct {
	NameEntries   []NameEntry             `yaml:"names"`
	OccurrenceMap map[string][]Occurrence `yaml:"occurrences"`
	Predictions   []PredictionEntry       `yaml:"predictions"`
}

// NameEntry answers a name query. An empty ParentKey matches any parent.
type NameEntry struct {
	Rank      string `yaml:"rank"`
	Name      string `yaml:"name"`
	ParentKey string `yaml:"parent_key"`

	// Outcome is "confirmed", "no_match" or "ambiguous".
	Outcome string `yaml:"outcome"`
	Key     string `yaml:"key"`
}

// Occurrence is one known occurrence of a taxon.
type Occurrence struct {
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
	Country string  `yaml:"country"`
}

// PredictionEntry is a classifier prediction for a record.
type PredictionEntry struct {
	ID      int64              `yaml:"id"`
	Lineage map[string]string  `yaml:"lineage"`
	Scores  map[string]float64 `yaml:"scores"`
}

// Load reads a fixture file.
func Load(path string) (*Fixture, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, LoadError(path, err)
	}
	res, err := Parse(bs)
	if err != nil {
		return nil, LoadError(path, err)
	}
	return res, nil
}

// Parse decodes a fixture from YAML.
func Parse(bs []byte) (*Fixture, error) {
	var res Fixture
	if err := yaml.Unmarshal(bs, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Names returns a name matcher answering from the fixture. Names missing
// from the fixture do not match.
func (f *Fixture) Names() namecheck.Matcher {
	res := nameMatcher{entries: make(map[nameKey][]NameEntry)}
	for _, e := range f.NameEntries {
		k := nameKey{
			rank: specimen.NewRank(e.Rank),
			name: strings.ToLower(strings.TrimSpace(e.Name)),
		}
		res.entries[k] = append(res.entries[k], e)
	}
	return res
}

// Occurrences returns an occurrence source answering from the fixture.
// Unknown taxa have no data.
func (f *Fixture) Occurrences() geocheck.Source {
	return occurrenceSource(f.OccurrenceMap)
}

// Classifier returns a classifier answering from the fixture. Records
// without an entry get no prediction.
func (f *Fixture) Classifier() misclass.Classifier {
	res := classifier(make(map[int64]misclass.Prediction))
	for _, e := range f.Predictions {
		p := misclass.Prediction{
			ID:     e.ID,
			Scores: make(map[specimen.Rank]float64),
		}
		for k, v := range e.Lineage {
			p.Lineage.Set(specimen.NewRank(k), v)
		}
		for k, v := range e.Scores {
			p.Scores[specimen.NewRank(k)] = v
		}
		res[e.ID] = p
	}
	return res
}

type nameKey struct {
	rank specimen.Rank
	name string
}

type nameMatcher struct {
	entries map[nameKey][]NameEntry
}

func (m nameMatcher) Match(
	ctx context.Context,
	q namecheck.Query,
) (namecheck.Match, error) {
	if err := ctx.Err(); err != nil {
		return namecheck.Match{}, err
	}
	k := nameKey{rank: q.Rank, name: strings.ToLower(strings.TrimSpace(q.Name))}
	for _, e := range m.entries[k] {
		if e.ParentKey != "" && e.ParentKey != q.ParentKey {
			continue
		}
		return namecheck.Match{
			Outcome:     outcome(e.Outcome),
			Key:         e.Key,
			MatchedName: e.Name,
		}, nil
	}
	return namecheck.Match{Outcome: namecheck.NoMatch}, nil
}

func outcome(s string) namecheck.Outcome {
	switch strings.ToLower(s) {
	case "", "confirmed":
		return namecheck.Confirmed
	case "ambiguous":
		return namecheck.Ambiguous
	default:
		return namecheck.NoMatch
	}
}

type occurrenceSource map[string][]Occurrence

func (s occurrenceSource) Occurrences(
	ctx context.Context,
	taxonKey string,
) ([]geocheck.Occurrence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	occs, ok := s[taxonKey]
	if !ok || len(occs) == 0 {
		return nil, geocheck.ErrNoData
	}
	res := make([]geocheck.Occurrence, len(occs))
	for i, o := range occs {
		res[i] = geocheck.Occurrence{
			Lat:         o.Lat,
			Lon:         o.Lon,
			CountryCode: o.Country,
		}
	}
	return res, nil
}

type classifier map[int64]misclass.Prediction

func (c classifier) Classify(
	ctx context.Context,
	qs []misclass.Query,
) ([]misclass.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var res []misclass.Prediction
	for _, q := range qs {
		if p, ok := c[q.ID]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}
