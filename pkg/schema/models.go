// Package schema provides the persisted form of specimen records.
// The same model serves the SQLite and the PostgreSQL stores.
package schema

import (
	"database/sql"
	"time"
)

// Version of the database schema.
const Version = "1"

// DDLGenerator defines how Go models generate SQL DDL.
type DDLGenerator interface {
	// TableDDL returns the CREATE TABLE statement for this model.
	TableDDL() string

	// IndexDDL returns CREATE INDEX statements for this model.
	// Returns empty slice if no indexes needed.
	IndexDDL() []string

	// TableName returns the table name for this model.
	TableName() string
}

// Specimen is one specimen record as stored.
type Specimen struct {
	// ID is the specimen identifier supplied by the source data.
	ID int64 `db:"id" ddl:"BIGINT PRIMARY KEY" gorm:"column:id;primaryKey;autoIncrement:false"`

	// RawSequence is the nucleotide sequence as ingested.
	RawSequence string `db:"raw_sequence" ddl:"TEXT NOT NULL DEFAULT ''" gorm:"column:raw_sequence;not null;default:''"`

	// CuratedSequence is the normalized sequence.
	CuratedSequence string `db:"curated_sequence" ddl:"TEXT NOT NULL DEFAULT ''" gorm:"column:curated_sequence;not null;default:''"`

	// Hash is UUID v5 of the curated sequence.
	Hash string `db:"hash" ddl:"VARCHAR(36) NOT NULL DEFAULT ''" gorm:"column:hash;size:36;not null;default:'';index"`

	// SourceHash is UUID v5 of the raw source row.
	SourceHash string `db:"source_hash" ddl:"VARCHAR(36) NOT NULL DEFAULT ''" gorm:"column:source_hash;size:36;not null;default:''"`

	Kingdom    string `db:"kingdom" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:kingdom;size:255;not null;default:''"`
	Phylum     string `db:"phylum" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:phylum;size:255;not null;default:''"`
	Class      string `db:"class" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:class;size:255;not null;default:''"`
	Order      string `db:"order_name" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:order_name;size:255;not null;default:''"`
	Family     string `db:"family" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:family;size:255;not null;default:''"`
	Subfamily  string `db:"subfamily" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:subfamily;size:255;not null;default:''"`
	Tribe      string `db:"tribe" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:tribe;size:255;not null;default:''"`
	Genus      string `db:"genus" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:genus;size:255;not null;default:''"`
	Species    string `db:"species" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:species;size:255;not null;default:''"`
	Subspecies string `db:"subspecies" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:subspecies;size:255;not null;default:''"`

	// Identification is the recorded identification text.
	Identification string `db:"identification" ddl:"TEXT NOT NULL DEFAULT ''" gorm:"column:identification;not null;default:''"`

	// Lat and Lon are NULL when the source has no coordinates.
	Lat sql.NullFloat64 `db:"lat" ddl:"DOUBLE PRECISION" gorm:"column:lat"`
	Lon sql.NullFloat64 `db:"lon" ddl:"DOUBLE PRECISION" gorm:"column:lon"`

	Country    string `db:"country" ddl:"VARCHAR(255) NOT NULL DEFAULT ''" gorm:"column:country;size:255;not null;default:''"`
	CountryISO string `db:"country_iso" ddl:"VARCHAR(8) NOT NULL DEFAULT ''" gorm:"column:country_iso;size:8;not null;default:''"`

	// VerifiedTaxonKey is the name service key at IdentificationRank.
	VerifiedTaxonKey string `db:"verified_taxon_key" ddl:"VARCHAR(64) NOT NULL DEFAULT ''" gorm:"column:verified_taxon_key;size:64;not null;default:'';index"`

	// IdentificationRank is the name of the deepest confirmed rank.
	IdentificationRank string `db:"identification_rank" ddl:"VARCHAR(20) NOT NULL DEFAULT ''" gorm:"column:identification_rank;size:20;not null;default:''"`

	// GeoScore is NULL until the location is scored.
	GeoScore sql.NullFloat64 `db:"geo_score" ddl:"DOUBLE PRECISION" gorm:"column:geo_score"`

	CountryCode string `db:"country_code" ddl:"VARCHAR(8) NOT NULL DEFAULT ''" gorm:"column:country_code;size:8;not null;default:''"`
	ClimateZone string `db:"climate_zone" ddl:"VARCHAR(8) NOT NULL DEFAULT ''" gorm:"column:climate_zone;size:8;not null;default:''"`

	// Checks is the checks bitvector.
	Checks int64 `db:"checks" ddl:"INTEGER NOT NULL DEFAULT 0" gorm:"column:checks;not null;default:0;index"`

	// Include is derived from Checks.
	Include bool `db:"include" ddl:"BOOLEAN NOT NULL DEFAULT FALSE" gorm:"column:include;not null;default:false;index"`

	SourceUpdated time.Time `db:"source_updated" ddl:"TIMESTAMP" gorm:"column:source_updated"`
	LastUpdated   time.Time `db:"last_updated" ddl:"TIMESTAMP" gorm:"column:last_updated"`
}

// SchemaVersion tracks database schema migrations.
type SchemaVersion struct {
	Version     string    `db:"version" ddl:"TEXT PRIMARY KEY" gorm:"column:version;primaryKey"`
	Description string    `db:"description" ddl:"TEXT" gorm:"column:description"`
	AppliedAt   time.Time `db:"applied_at" ddl:"TIMESTAMP DEFAULT CURRENT_TIMESTAMP" gorm:"column:applied_at;autoCreateTime"`
}
