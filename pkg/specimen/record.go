// Package specimen contains the specimen record that flows through
// curation, its taxonomic ranks and the checks bitvector.
package specimen

import (
	"strings"
	"time"
)

// Coordinates of a collecting locality in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// IsValid is true for coordinates inside the WGS84 range.
func (c Coordinates) IsValid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Record is one specimen with its raw data and curation results.
type Record struct {
	// ID is the stable identifier supplied by the source data.
	ID int64

	// RawSequence is the nucleotide sequence as ingested.
	RawSequence string

	// CuratedSequence is the normalized sequence, empty until the sequence
	// stage runs.
	CuratedSequence string

	// Hash is the content hash of CuratedSequence.
	Hash string

	// SourceHash identifies the revision of the raw source row.
	SourceHash string

	// Taxonomy is the recorded classification. Only ingestion changes it.
	Taxonomy Taxonomy

	// Identification is the recorded identification text.
	Identification string

	// Coordinates are nil when the source has no locality coordinates.
	Coordinates *Coordinates

	// Country is the recorded country or ocean name.
	Country string

	// CountryISO is the recorded two-letter country code.
	CountryISO string

	// VerifiedTaxonKey is the key confirmed at IdentificationRank.
	VerifiedTaxonKey string

	// IdentificationRank is the deepest confirmed rank.
	IdentificationRank Rank

	// GeoScore is nil until the location plausibility is scored.
	GeoScore *float64

	// CountryCode and ClimateZone are derived by the location stage.
	CountryCode string
	ClimateZone string

	Checks Checks

	// Include is derived from Checks by the inclusion policy.
	Include bool

	// SourceUpdated is the source revision timestamp.
	SourceUpdated time.Time

	// LastUpdated changes whenever curation mutates the record.
	LastUpdated time.Time
}

// HasLocality is true when the record has coordinates or a country.
func (r *Record) HasLocality() bool {
	return r.Coordinates != nil ||
		strings.TrimSpace(r.CountryISO) != "" ||
		strings.TrimSpace(r.Country) != ""
}

// ResetName removes name verification results.
func (r *Record) ResetName() {
	r.Checks.ClearMask(NameBits)
	r.Checks.Clear(Misclassified)
	r.VerifiedTaxonKey = ""
	r.IdentificationRank = NoRank
	r.ResetLocation()
}

// ResetLocation removes location results.
func (r *Record) ResetLocation() {
	r.Checks.ClearMask(LocationBits)
	r.GeoScore = nil
	r.CountryCode = ""
	r.ClimateZone = ""
}

// Reset removes all curation results.
func (r *Record) Reset() {
	r.ResetName()
	r.Checks = 0
	r.CuratedSequence = ""
	r.Hash = ""
	r.Include = false
}
