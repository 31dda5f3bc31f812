// Package iotesting provides shared test utilities: a test configuration
// and an in-memory Record Store.
// This is an internal package for test infrastructure only.
package iotesting

import (
	"testing"

	"github.com/gnames/gnbold/pkg/config"
	"github.com/spf13/viper"
)

const (
	// TestDatabaseName is the database name used for all integration tests.
	// This ensures tests never accidentally run against production databases.
	TestDatabaseName = "gnbold_test"
)

// Config returns a configuration suitable for tests. Its home directory is
// a temporary directory removed after the test, the inclusion policy is
// set to species with location threshold 2, and collaborator calls are
// attempted twice without waiting long. PostgreSQL credentials come from
// GNBOLD_DATABASE_* environment variables, the database name is always
// TestDatabaseName.
func Config(t *testing.T, opts ...config.Option) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Update(databaseEnv())
	cfg.Update([]config.Option{
		config.OptHomeDir(t.TempDir()),
		config.OptDatabaseDatabase(TestDatabaseName),
		config.OptCurationMinRank("species"),
		config.OptCurationLocationThreshold(2),
		config.OptSequenceMinLength(10),
		config.OptCollaboratorsAttempts(2),
		config.OptCollaboratorsTimeoutSec(5),
		config.OptJobsNumber(2),
	})
	cfg.Update(opts)
	return cfg
}

func databaseEnv() []config.Option {
	v := viper.New()
	v.SetEnvPrefix("GNBOLD")
	v.AutomaticEnv()

	var res []config.Option
	if s := v.GetString("database_host"); s != "" {
		res = append(res, config.OptDatabaseHost(s))
	}
	if i := v.GetInt("database_port"); i > 0 {
		res = append(res, config.OptDatabasePort(i))
	}
	if s := v.GetString("database_user"); s != "" {
		res = append(res, config.OptDatabaseUser(s))
	}
	if s := v.GetString("database_password"); s != "" {
		res = append(res, config.OptDatabasePassword(s))
	}
	return res
}
