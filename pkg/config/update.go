package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/specimen"
)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for config.yaml.
// Excludes runtime-only fields (HomeDir).
// Used for round-tripping config.yaml ↔ Config conversions.
func (c *Config) ToOptions() []Option {
	var res []Option
	var s string
	var i int

	s = c.Store.Backend
	if s != "" {
		res = append(res, OptStoreBackend(s))
	}
	s = c.Store.Path
	if s != "" {
		res = append(res, OptStorePath(s))
	}
	i = c.Store.BatchSize
	if i > 0 {
		res = append(res, OptStoreBatchSize(i))
	}

	s = c.Database.Host
	if s != "" {
		res = append(res, OptDatabaseHost(s))
	}
	i = c.Database.Port
	if i > 0 {
		res = append(res, OptDatabasePort(i))
	}
	s = c.Database.User
	if s != "" {
		res = append(res, OptDatabaseUser(s))
	}
	s = c.Database.Password
	if s != "" {
		res = append(res, OptDatabasePassword(s))
	}
	s = c.Database.Database
	if s != "" {
		res = append(res, OptDatabaseDatabase(s))
	}
	s = c.Database.SSLMode
	if s != "" {
		res = append(res, OptDatabaseSSLMode(s))
	}

	i = c.Sequence.MinLength
	if i > 0 {
		res = append(res, OptSequenceMinLength(i))
	}
	i = c.Sequence.MaxLength
	if i >= 0 {
		res = append(res, OptSequenceMaxLength(i))
	}

	s = c.Curation.MinRank
	if s != "" {
		res = append(res, OptCurationMinRank(s))
	}
	if c.Curation.LocationThreshold != nil {
		res = append(res,
			OptCurationLocationThreshold(*c.Curation.LocationThreshold))
	}
	if c.Curation.ClassifierThreshold > 0 {
		res = append(res,
			OptCurationClassifierThreshold(c.Curation.ClassifierThreshold))
	}

	s = c.Collaborators.Mode
	if s != "" {
		res = append(res, OptCollaboratorsMode(s))
	}
	s = c.Collaborators.FixtureFile
	if s != "" {
		res = append(res, OptCollaboratorsFixtureFile(s))
	}
	i = c.Collaborators.TimeoutSec
	if i > 0 {
		res = append(res, OptCollaboratorsTimeoutSec(i))
	}
	i = c.Collaborators.Attempts
	if i > 0 {
		res = append(res, OptCollaboratorsAttempts(i))
	}
	i = c.Collaborators.Concurrency
	if i > 0 {
		res = append(res, OptCollaboratorsConcurrency(i))
	}
	i = c.Collaborators.RecoveryStreak
	if i > 0 {
		res = append(res, OptCollaboratorsRecoveryStreak(i))
	}

	s = c.GBIF.URL
	if s != "" {
		res = append(res, OptGBIFURL(s))
	}
	i = c.GBIF.MinConfidence
	if i > 0 {
		res = append(res, OptGBIFMinConfidence(i))
	}
	i = c.GBIF.MaxOccurrences
	if i > 0 {
		res = append(res, OptGBIFMaxOccurrences(i))
	}

	s = c.Classifier.Command
	if s != "" {
		res = append(res, OptClassifierCommand(s))
	}
	res = append(res, OptClassifierDatabase(c.Classifier.Database))
	res = append(res, OptLocationClimateGrid(c.Location.ClimateGrid))

	res = append(res, OptCacheEnabled(c.Cache.Enabled))
	i = c.Cache.TTLDays
	if i > 0 {
		res = append(res, OptCacheTTLDays(i))
	}

	s = c.Ingest.ColumnMap
	if s != "" {
		res = append(res, OptIngestColumnMap(s))
	}

	s = c.Log.Format
	if s != "" {
		res = append(res, OptLogFormat(s))
	}
	s = c.Log.Level
	if s != "" {
		res = append(res, OptLogLevel(s))
	}
	s = c.Log.Destination
	if s != "" {
		res = append(res, OptLogDestination(s))
	}

	i = c.JobsNumber
	if i > 0 {
		res = append(res, OptJobsNumber(i))
	}
	return res
}

// MinRank returns the configured inclusion rank, NoRank when unset.
func (c *Config) MinRank() specimen.Rank {
	return specimen.NewRank(c.Curation.MinRank)
}

// MissingSettings lists required settings that have no value yet.
func (c *Config) MissingSettings() []string {
	var res []string
	if !c.MinRank().IsVerifiable() {
		res = append(res, "curation.min_rank")
	}
	if c.Curation.LocationThreshold == nil {
		res = append(res, "curation.location_threshold")
	}
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

func isValidEnum(name, val string) bool {
	s := struct{}{}
	data := map[string]map[string]struct{}{
		"Store.Backend": {"sqlite": s, "postgres": s},
		"Database.SSLMode": {"disable": s, "require": s,
			"verify-ca": s, "verify-full": s},
		"Collaborators.Mode": {"live": s, "fixture": s},
		"Log.Level":          {"debug": s, "info": s, "warn": s, "error": s},
		"Log.Format":         {"json": s, "text": s, "tint": s},
		"Log.Destination":    {"file": s, "stderr": s, "stdout": s},
	}
	vals := slices.Sorted(maps.Keys(data[name]))
	var lines []string
	for _, v := range vals {
		line := fmt.Sprintf("  * %s", v)
		lines = append(lines, line)
	}
	if _, ok := data[name][val]; ok {
		return true
	}
	gn.Warn(
		"<em>%s</em> does not support '%s' as a value. "+
			"Valid values are: \n%s\nIgnoring...",
		name, val, strings.Join(lines, "\n"),
	)
	return false
}
