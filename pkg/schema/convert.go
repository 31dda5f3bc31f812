package schema

import (
	"database/sql"

	"github.com/gnames/gnbold/pkg/specimen"
)

// FromRecord converts a specimen record to its stored form.
func FromRecord(rec *specimen.Record) Specimen {
	tx := rec.Taxonomy
	res := Specimen{
		ID:                 rec.ID,
		RawSequence:        rec.RawSequence,
		CuratedSequence:    rec.CuratedSequence,
		Hash:               rec.Hash,
		SourceHash:         rec.SourceHash,
		Kingdom:            tx.Name(specimen.Kingdom),
		Phylum:             tx.Name(specimen.Phylum),
		Class:              tx.Name(specimen.Class),
		Order:              tx.Name(specimen.Order),
		Family:             tx.Name(specimen.Family),
		Subfamily:          tx.Name(specimen.Subfamily),
		Tribe:              tx.Name(specimen.Tribe),
		Genus:              tx.Name(specimen.Genus),
		Species:            tx.Name(specimen.Species),
		Subspecies:         tx.Name(specimen.Subspecies),
		Identification:     rec.Identification,
		Country:            rec.Country,
		CountryISO:         rec.CountryISO,
		VerifiedTaxonKey:   rec.VerifiedTaxonKey,
		IdentificationRank: rec.IdentificationRank.String(),
		CountryCode:        rec.CountryCode,
		ClimateZone:        rec.ClimateZone,
		Checks:             int64(rec.Checks),
		Include:            rec.Include,
		SourceUpdated:      rec.SourceUpdated.UTC(),
		LastUpdated:        rec.LastUpdated.UTC(),
	}
	if rec.Coordinates != nil {
		res.Lat = sql.NullFloat64{Float64: rec.Coordinates.Lat, Valid: true}
		res.Lon = sql.NullFloat64{Float64: rec.Coordinates.Lon, Valid: true}
	}
	if rec.GeoScore != nil {
		res.GeoScore = sql.NullFloat64{Float64: *rec.GeoScore, Valid: true}
	}
	return res
}

// ToRecord converts the stored form back to a specimen record.
func (s Specimen) ToRecord() specimen.Record {
	var tx specimen.Taxonomy
	tx.Set(specimen.Kingdom, s.Kingdom)
	tx.Set(specimen.Phylum, s.Phylum)
	tx.Set(specimen.Class, s.Class)
	tx.Set(specimen.Order, s.Order)
	tx.Set(specimen.Family, s.Family)
	tx.Set(specimen.Subfamily, s.Subfamily)
	tx.Set(specimen.Tribe, s.Tribe)
	tx.Set(specimen.Genus, s.Genus)
	tx.Set(specimen.Species, s.Species)
	tx.Set(specimen.Subspecies, s.Subspecies)

	res := specimen.Record{
		ID:                 s.ID,
		RawSequence:        s.RawSequence,
		CuratedSequence:    s.CuratedSequence,
		Hash:               s.Hash,
		SourceHash:         s.SourceHash,
		Taxonomy:           tx,
		Identification:     s.Identification,
		Country:            s.Country,
		CountryISO:         s.CountryISO,
		VerifiedTaxonKey:   s.VerifiedTaxonKey,
		IdentificationRank: specimen.NewRank(s.IdentificationRank),
		CountryCode:        s.CountryCode,
		ClimateZone:        s.ClimateZone,
		Checks:             specimen.Checks(s.Checks),
		Include:            s.Include,
		SourceUpdated:      s.SourceUpdated.UTC(),
		LastUpdated:        s.LastUpdated.UTC(),
	}
	if s.Lat.Valid && s.Lon.Valid {
		res.Coordinates = &specimen.Coordinates{Lat: s.Lat.Float64, Lon: s.Lon.Float64}
	}
	if s.GeoScore.Valid {
		score := s.GeoScore.Float64
		res.GeoScore = &score
	}
	return res
}
