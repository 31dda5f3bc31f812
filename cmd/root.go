/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/internal/iofs"
	"github.com/gnames/gnbold/internal/iologger"
	app "github.com/gnames/gnbold/pkg"
	"github.com/gnames/gnbold/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg       *config.Config
	logCloser io.Closer
)

// getRootCmd returns a new root command with all subcommands.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
		Use:     "gnbold",
		Short:   "GNbold curates and verifies BOLD specimen records",
		Long: `GNbold curates DNA barcode specimen records from BOLD data packages.

Every record passes a sequence quality check, rank-by-rank verification
of its taxonomic names against GBIF, an optional misclassification check
by raxtax and a plausibility check of its locality. The results are kept
in a checks bitvector, and an inclusion policy decides which records are
good enough for a reference library.

Commands:
  build   creates a curated corpus from a data package
  update  merges a newer data package into the corpus
  review  retries checks that could not be evaluated

Settings are read from ~/.config/gnbold/config.yaml, from GNBOLD_*
environment variables and from command line flags.`,
		PersistentPreRunE: bootstrap,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
		RunE:          runRoot,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Flags().BoolP("version", "V", false, "version for gnbold")
	persistentFlags(rootCmd)

	rootCmd.AddCommand(
		getBuildCmd(),
		getUpdateCmd(),
		getReviewCmd(),
	)
	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	homeDir, err := cmd.Flags().GetString("home")
	if err != nil || homeDir == "" {
		homeDir, err = os.UserHomeDir()
	}
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Logging starts with defaults and is reconfigured after the config
	// is loaded.
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if logCloser, err = iologger.Init(
		config.LogDir(homeDir), defaultLog, false,
	); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	cfg.Update(cfgViper.ToOptions())
	cfg.Update(flagOptions(cmd))
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	if err = reconfigureLogging(cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"store", cfg.Store.Backend,
		"collaborators", cfg.Collaborators.Mode,
	)
	return nil
}

// reconfigureLogging reinitializes the logger with the loaded
// configuration. The log file of bootstrap is appended to.
func reconfigureLogging(cfg *config.Config) error {
	if logCloser != nil {
		_ = logCloser.Close()
	}
	var err error
	logCloser, err = iologger.Init(config.LogDir(cfg.HomeDir), cfg.Log, true)
	return err
}

func runRoot(cmd *cobra.Command, args []string) error {
	gn.Info(
		"Configuration is at <em>%s</em>",
		config.ConfigFilePath(cfg.HomeDir),
	)
	return cmd.Help()
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

// envKeys are the settings that can be given as GNBOLD_* environment
// variables. They match the fields of config.ToOptions().
var envKeys = []string{
	"store.backend",
	"store.path",
	"store.batch_size",

	"database.host",
	"database.port",
	"database.user",
	"database.password",
	"database.database",
	"database.ssl_mode",

	"sequence.min_length",
	"sequence.max_length",

	"curation.min_rank",
	"curation.location_threshold",
	"curation.classifier_threshold",

	"collaborators.mode",
	"collaborators.fixture_file",
	"collaborators.timeout_sec",
	"collaborators.attempts",
	"collaborators.concurrency",
	"collaborators.recovery_streak",

	"gbif.url",
	"gbif.min_confidence",
	"gbif.max_occurrences",

	"classifier.command",
	"classifier.database",

	"location.climate_grid",

	"cache.enabled",
	"cache.ttl_days",

	"ingest.column_map",

	"log.level",
	"log.format",
	"log.destination",

	"jobs_number",
}

func initEnvVars(v *viper.Viper) {
	// Env variables are bound explicitly, so it is clear which ones are
	// allowed.
	v.SetEnvPrefix("GNBOLD")
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)

	for _, key := range envKeys {
		env := "GNBOLD_" + strings.ToUpper(replacer.Replace(key))
		_ = v.BindEnv(key, env)
	}

	v.AutomaticEnv()
}
