package config

import (
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/specimen"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptStoreBackend sets the Record Store backend.
// Valid values: "sqlite", "postgres".
func OptStoreBackend(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Store.Backend", s) {
			c.Store.Backend = s
		}
	}
}

// OptStorePath sets the SQLite database file.
func OptStorePath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Store Path", s) {
			c.Store.Path = s
		}
	}
}

// OptStoreBatchSize sets the number of records processed per batch.
func OptStoreBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Batch Size", i) {
			c.Store.BatchSize = i
		}
	}
}

// OptDatabaseHost sets the PostgreSQL server hostname or IP address.
func OptDatabaseHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Host", s) {
			c.Database.Host = s
		}
	}
}

// OptDatabasePort sets the PostgreSQL server port number.
func OptDatabasePort(i int) Option {
	return func(c *Config) {
		if isValidInt("Database Port", i) {
			c.Database.Port = i
		}
	}
}

// OptDatabaseUser sets the PostgreSQL database username.
func OptDatabaseUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database User", s) {
			c.Database.User = s
		}
	}
}

// OptDatabasePassword sets the PostgreSQL database password.
func OptDatabasePassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Password", s) {
			c.Database.Password = s
		}
	}
}

// OptDatabaseDatabase sets the PostgreSQL database name to connect to.
func OptDatabaseDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Name", s) {
			c.Database.Database = s
		}
	}
}

// OptDatabaseSSLMode sets the SSL connection mode.
// Valid values: "disable", "require", "verify-ca", "verify-full".
func OptDatabaseSSLMode(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Database.SSLMode", s) {
			c.Database.SSLMode = s
		}
	}
}

// OptSequenceMinLength sets the minimal curated sequence length.
func OptSequenceMinLength(i int) Option {
	return func(c *Config) {
		if isValidInt("Sequence Min Length", i) {
			c.Sequence.MinLength = i
		}
	}
}

// OptSequenceMaxLength sets the maximal curated sequence length, 0 removes
// the bound.
func OptSequenceMaxLength(i int) Option {
	return func(c *Config) {
		if i == 0 || isValidInt("Sequence Max Length", i) {
			c.Sequence.MaxLength = i
		}
	}
}

// OptCurationMinRank sets the rank records have to be verified to for
// inclusion. Subfamily and tribe are not verified and are rejected.
func OptCurationMinRank(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if specimen.NewRank(s).IsVerifiable() {
			c.Curation.MinRank = s
			return
		}
		gn.Warn(
			"<em>Curation Min Rank</em> does not support '%s', ignoring", s,
		)
	}
}

// OptCurationLocationThreshold sets the geo score below which a location
// is uncertain.
func OptCurationLocationThreshold(f float64) Option {
	return func(c *Config) {
		if f < 0 {
			gn.Warn(
				"<em>Location Threshold</em> cannot be negative, ignoring %v", f,
			)
			return
		}
		c.Curation.LocationThreshold = &f
	}
}

// OptCurationClassifierThreshold sets the minimal classifier score that
// flags a disagreement. Valid values are in (0, 1].
func OptCurationClassifierThreshold(f float64) Option {
	return func(c *Config) {
		if f <= 0 || f > 1 {
			gn.Warn(
				"<em>Classifier Threshold</em> has to be in (0, 1], ignoring %v", f,
			)
			return
		}
		c.Curation.ClassifierThreshold = f
	}
}

// OptCollaboratorsMode sets how remote services are reached.
// Valid values: "live", "fixture".
func OptCollaboratorsMode(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Collaborators.Mode", s) {
			c.Collaborators.Mode = s
		}
	}
}

// OptCollaboratorsFixtureFile sets the YAML file used in fixture mode.
func OptCollaboratorsFixtureFile(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Fixture File", s) {
			c.Collaborators.FixtureFile = s
		}
	}
}

// OptCollaboratorsTimeoutSec sets the timeout of one call attempt.
func OptCollaboratorsTimeoutSec(i int) Option {
	return func(c *Config) {
		if isValidInt("Timeout", i) {
			c.Collaborators.TimeoutSec = i
		}
	}
}

// OptCollaboratorsAttempts sets how many times a call is tried, the first
// try included.
func OptCollaboratorsAttempts(i int) Option {
	return func(c *Config) {
		if isValidInt("Attempts", i) {
			c.Collaborators.Attempts = i
		}
	}
}

// OptCollaboratorsConcurrency sets the maximal number of calls in flight
// per service.
func OptCollaboratorsConcurrency(i int) Option {
	return func(c *Config) {
		if isValidInt("Concurrency", i) {
			c.Collaborators.Concurrency = i
		}
	}
}

// OptCollaboratorsRecoveryStreak sets how many successful calls give back
// one concurrency slot after a rate limit.
func OptCollaboratorsRecoveryStreak(i int) Option {
	return func(c *Config) {
		if isValidInt("Recovery Streak", i) {
			c.Collaborators.RecoveryStreak = i
		}
	}
}

// OptGBIFURL sets the base URL of the GBIF API.
func OptGBIFURL(s string) Option {
	s = strings.TrimSpace(s)
	if s != "" && !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return func(c *Config) {
		if isValidString("GBIF URL", s) {
			c.GBIF.URL = s
		}
	}
}

// OptGBIFMinConfidence sets the minimal GBIF match confidence (1-100).
func OptGBIFMinConfidence(i int) Option {
	return func(c *Config) {
		if i > 100 {
			gn.Warn("<em>GBIF Min Confidence</em> cannot exceed 100, ignoring %d", i)
			return
		}
		if isValidInt("GBIF Min Confidence", i) {
			c.GBIF.MinConfidence = i
		}
	}
}

// OptGBIFMaxOccurrences sets how many occurrences are fetched per taxon.
func OptGBIFMaxOccurrences(i int) Option {
	return func(c *Config) {
		if isValidInt("GBIF Max Occurrences", i) {
			c.GBIF.MaxOccurrences = i
		}
	}
}

// OptClassifierCommand sets the classifier executable.
func OptClassifierCommand(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Classifier Command", s) {
			c.Classifier.Command = s
		}
	}
}

// OptClassifierDatabase sets the classifier reference file. An empty
// value disables the classifier.
func OptClassifierDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		c.Classifier.Database = s
	}
}

// OptLocationClimateGrid sets the climate grid file. An empty value
// disables climate zones.
func OptLocationClimateGrid(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		c.Location.ClimateGrid = s
	}
}

// OptCacheEnabled switches the lookup cache.
func OptCacheEnabled(b bool) Option {
	return func(c *Config) {
		c.Cache.Enabled = b
	}
}

// OptCacheTTLDays sets how long cached lookups stay valid.
func OptCacheTTLDays(i int) Option {
	return func(c *Config) {
		if isValidInt("Cache TTL", i) {
			c.Cache.TTLDays = i
		}
	}
}

// OptIngestColumnMap sets the YAML column map of raw data files.
func OptIngestColumnMap(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Column Map", s) {
			c.Ingest.ColumnMap = s
		}
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers for local stages.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, data and log
// locations. Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}
