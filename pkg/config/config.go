// Package config provides configuration management for GNbold.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is valid except for the curation policy:
// curation.min_rank and curation.location_threshold have no defaults and
// have to be set before curation can run, see MissingSettings()
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Store: backend, path, batch_size
//   - Database: host, port, user, password, database, ssl_mode
//   - Sequence: min_length, max_length
//   - Curation: min_rank, location_threshold, classifier_threshold
//   - Collaborators: mode, fixture_file, timeout_sec, attempts, concurrency,
//     recovery_streak
//   - GBIF: url, min_confidence, max_occurrences
//   - Classifier: command, database
//   - Location: climate_grid
//   - Cache: enabled, ttl_days
//   - Ingest: column_map
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields (CLI flags only):
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use GNBOLD_ prefix with underscores for nesting:
//
//	GNBOLD_STORE_BACKEND=postgres
//	GNBOLD_CURATION_MIN_RANK=species
//	GNBOLD_CURATION_LOCATION_THRESHOLD=2
//	GNBOLD_JOBS_NUMBER=8
package config

import (
	"runtime"
)

// Config represents the complete GNbold configuration.
type Config struct {
	// Store selects and configures the Record Store.
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Sequence contains sequence validation settings.
	Sequence SequenceConfig `mapstructure:"sequence" yaml:"sequence"`

	// Curation contains the inclusion policy.
	Curation CurationConfig `mapstructure:"curation" yaml:"curation"`

	// Collaborators configures access to remote services.
	Collaborators CollaboratorsConfig `mapstructure:"collaborators" yaml:"collaborators"`

	GBIF GBIFConfig `mapstructure:"gbif" yaml:"gbif"`

	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`

	Location LocationConfig `mapstructure:"location" yaml:"location"`

	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	Ingest IngestConfig `mapstructure:"ingest" yaml:"ingest"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent workers for local stages.
	// Default value is set accoring to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache, data and logs directories
	// reside. It must be set by CLI during init, there is no default value
	// for it.
	HomeDir string
}

// StoreConfig selects the Record Store.
type StoreConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the SQLite database file. Empty means the default file in
	// the data directory.
	Path string `mapstructure:"path" yaml:"path"`

	// BatchSize is the number of records curated and saved together.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
}

// SequenceConfig sets length bounds of curated sequences.
type SequenceConfig struct {
	MinLength int `mapstructure:"min_length" yaml:"min_length"`

	// MaxLength of 0 means no upper bound.
	MaxLength int `mapstructure:"max_length" yaml:"max_length"`
}

// CurationConfig is the inclusion policy.
type CurationConfig struct {
	// MinRank is the rank a record has to be verified to for inclusion.
	// Required, there is no default.
	MinRank string `mapstructure:"min_rank" yaml:"min_rank"`

	// LocationThreshold is the geo score below which a location is
	// uncertain. Required, there is no default.
	LocationThreshold *float64 `mapstructure:"location_threshold" yaml:"location_threshold"`

	// ClassifierThreshold is the minimal classifier score for a
	// disagreeing rank to flag a record.
	ClassifierThreshold float64 `mapstructure:"classifier_threshold" yaml:"classifier_threshold"`
}

// CollaboratorsConfig configures calls to remote services.
type CollaboratorsConfig struct {
	// Mode is "live" for network clients or "fixture" for offline data.
	Mode string `mapstructure:"mode" yaml:"mode"`

	// FixtureFile is a YAML file with offline answers for "fixture" mode.
	FixtureFile string `mapstructure:"fixture_file" yaml:"fixture_file"`

	// TimeoutSec limits one attempt of a call.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// Attempts is the number of tries per call, the first one included.
	Attempts int `mapstructure:"attempts" yaml:"attempts"`

	// Concurrency is the maximal number of calls in flight per service.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// RecoveryStreak is the number of successful calls that give back one
	// concurrency slot taken by a rate limit.
	RecoveryStreak int `mapstructure:"recovery_streak" yaml:"recovery_streak"`
}

// GBIFConfig configures the GBIF clients.
type GBIFConfig struct {
	URL string `mapstructure:"url" yaml:"url"`

	// MinConfidence is the minimal GBIF match confidence (0-100).
	MinConfidence int `mapstructure:"min_confidence" yaml:"min_confidence"`

	// MaxOccurrences limits occurrences fetched per taxon.
	MaxOccurrences int `mapstructure:"max_occurrences" yaml:"max_occurrences"`
}

// ClassifierConfig configures the raxtax classifier.
type ClassifierConfig struct {
	Command string `mapstructure:"command" yaml:"command"`

	// Database is the reference FASTA file. Empty disables the classifier.
	Database string `mapstructure:"database" yaml:"database"`
}

// LocationConfig configures local location derivation.
type LocationConfig struct {
	// ClimateGrid is a Köppen-Geiger ASCII grid. Empty disables climate
	// zones.
	ClimateGrid string `mapstructure:"climate_grid" yaml:"climate_grid"`
}

// CacheConfig configures the lookup cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	TTLDays int  `mapstructure:"ttl_days" yaml:"ttl_days"`
}

// IngestConfig configures reading of raw data.
type IngestConfig struct {
	// ColumnMap is a YAML file mapping record fields to input columns.
	// Empty means the embedded BOLD data package layout.
	ColumnMap string `mapstructure:"column_map" yaml:"column_map"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with default values.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Store: StoreConfig{
			Backend:   "sqlite",
			BatchSize: 10_000,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "gnbold",
			SSLMode:  "disable",
		},
		Sequence: SequenceConfig{
			MinLength: 200,
		},
		Curation: CurationConfig{
			ClassifierThreshold: 0.9,
		},
		Collaborators: CollaboratorsConfig{
			Mode:           "live",
			TimeoutSec:     30,
			Attempts:       3,
			Concurrency:    4,
			RecoveryStreak: 20,
		},
		GBIF: GBIFConfig{
			URL:            "https://api.gbif.org/v1/",
			MinConfidence:  90,
			MaxOccurrences: 1000,
		},
		Classifier: ClassifierConfig{
			Command: "raxtax",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTLDays: 30,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(), // Default to number of CPU threads
	}

	return res
}
