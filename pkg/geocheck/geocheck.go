// Package geocheck scores how plausible the collecting locality of a
// specimen is, given the known occurrences of its taxon.
package geocheck

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gnames/gnbold/pkg/guard"
	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
)

// ErrNoData is returned by a Source when the taxon has no known
// occurrences.
var ErrNoData = errors.New("no occurrence data")

// Ocean labels coordinates outside of any land climate zone.
const Ocean = "Ocean"

// Occurrence is a known observation of a taxon.
type Occurrence struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	CountryCode string  `json:"country,omitempty"`

	// NoCoords marks occurrences known only by country.
	NoCoords bool `json:"no_coords,omitempty"`
}

// Source is the occurrence capability. It returns ErrNoData for taxa
// without occurrences, any other error is transient.
type Source interface {
	Occurrences(ctx context.Context, taxonKey string) ([]Occurrence, error)
}

// Zoner classifies coordinates into climate zones locally.
type Zoner interface {
	Zone(lat, lon float64) (string, bool)
}

// Evidence summarises the occurrences of a taxon.
type Evidence struct {
	Countries map[string]struct{}
	Zones     map[string]int
	Total     int
}

// Summarize builds Evidence from occurrences. Zones are counted only when
// a Zoner is given.
func Summarize(occs []Occurrence, z Zoner) Evidence {
	res := Evidence{
		Countries: make(map[string]struct{}),
		Zones:     make(map[string]int),
	}
	for _, v := range occs {
		if cc := strings.ToUpper(strings.TrimSpace(v.CountryCode)); cc != "" {
			res.Countries[cc] = struct{}{}
		}
		if z == nil || v.NoCoords {
			continue
		}
		c := specimen.Coordinates{Lat: v.Lat, Lon: v.Lon}
		if !c.IsValid() {
			continue
		}
		if zone, ok := z.Zone(v.Lat, v.Lon); ok {
			res.Zones[zone]++
			res.Total++
		}
	}
	return res
}

// Score rates a locality against the evidence. A known country gives 2,
// a known climate zone gives 1 plus the share of occurrences in that zone.
func Score(ev Evidence, countryCode, zone string) float64 {
	var res float64
	if _, ok := ev.Countries[strings.ToUpper(countryCode)]; ok && countryCode != "" {
		res += 2
	}
	if n := ev.Zones[zone]; zone != "" && n > 0 {
		res += 1 + float64(n)/float64(ev.Total)
	}
	return res
}

// Scorer runs the location stage of a record.
type Scorer struct {
	source    Source
	zoner     Zoner
	guard     *guard.Guard
	threshold float64
}

// New creates a Scorer. Records scoring below threshold are uncertain.
// The zoner is optional.
func New(src Source, z Zoner, g *guard.Guard, threshold float64) *Scorer {
	return &Scorer{source: src, zoner: z, guard: g, threshold: threshold}
}

// Derive sets country code and climate zone of the record from its own
// data. It does not need the occurrence source.
func (s *Scorer) Derive(rec *specimen.Record) {
	if rec.CountryCode == "" {
		rec.CountryCode = strings.ToUpper(strings.TrimSpace(rec.CountryISO))
	}
	if rec.ClimateZone != "" || s.zoner == nil || rec.Coordinates == nil ||
		!rec.Coordinates.IsValid() {
		return
	}
	if zone, ok := s.zoner.Zone(rec.Coordinates.Lat, rec.Coordinates.Lon); ok {
		rec.ClimateZone = zone
	}
}

// Check scores the locality of the record and sets its location bits.
// It returns NotApplicable when there is nothing to compare, Fail for
// uncertain localities, Pass for plausible ones and Unknown when the
// occurrence query failed. Cancellation of ctx is returned as an error.
func (s *Scorer) Check(
	ctx context.Context,
	rec *specimen.Record,
) (verdict.Outcome, error) {
	c := &rec.Checks
	switch {
	case c.Has(specimen.LocationNoData):
		return verdict.NotApplicable, nil
	case c.Has(specimen.LocationChecked) && c.Has(specimen.LocationUncertain):
		return verdict.Fail, nil
	case c.Has(specimen.LocationChecked):
		return verdict.Pass, nil
	}

	s.Derive(rec)
	if !rec.HasLocality() || rec.VerifiedTaxonKey == "" {
		c.Set(specimen.LocationNoData)
		return verdict.NotApplicable, nil
	}

	var occs []Occurrence
	var noData bool
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		occs, err = s.source.Occurrences(ctx, rec.VerifiedTaxonKey)
		if errors.Is(err, ErrNoData) {
			noData = true
			return nil
		}
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return verdict.Unknown, ctx.Err()
		}
		slog.Warn("Occurrence lookup failed",
			"id", rec.ID, "key", rec.VerifiedTaxonKey, "error", err)
		return verdict.Unknown, nil
	}
	if noData || len(occs) == 0 {
		c.Set(specimen.LocationNoData)
		return verdict.NotApplicable, nil
	}

	ev := Summarize(occs, s.zoner)
	score := Score(ev, rec.CountryCode, rec.ClimateZone)
	rec.GeoScore = &score
	c.Set(specimen.LocationChecked)
	if score < s.threshold {
		c.Set(specimen.LocationUncertain)
		return verdict.Fail, nil
	}
	return verdict.Pass, nil
}
