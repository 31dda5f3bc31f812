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
	"github.com/gnames/gnbold/pkg/config"
	"github.com/spf13/cobra"
)

// persistentFlags adds flags shared by all subcommands. They override
// config.yaml and environment variables.
func persistentFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String("home", "", "home directory for config, cache, data and logs")
	pf.StringP("min-rank", "r", "",
		"rank records have to be verified to for inclusion")
	pf.Float64P("location-threshold", "l", 0,
		"geo score below which a location is uncertain")
	pf.StringP("store", "s", "", "record store backend: sqlite or postgres")
	pf.String("store-path", "", "SQLite file of the record store")
	pf.StringP("fixture", "f", "",
		"use offline answers from a fixture file instead of remote services")
	pf.IntP("jobs", "j", 0, "number of concurrent workers")
	pf.Bool("no-cache", false, "do not use the lookup cache")
}

// flagOptions converts flags given by the user to config options.
func flagOptions(cmd *cobra.Command) []config.Option {
	var res []config.Option
	fs := cmd.Flags()

	if fs.Changed("min-rank") {
		s, _ := fs.GetString("min-rank")
		res = append(res, config.OptCurationMinRank(s))
	}
	if fs.Changed("location-threshold") {
		f, _ := fs.GetFloat64("location-threshold")
		res = append(res, config.OptCurationLocationThreshold(f))
	}
	if fs.Changed("store") {
		s, _ := fs.GetString("store")
		res = append(res, config.OptStoreBackend(s))
	}
	if fs.Changed("store-path") {
		s, _ := fs.GetString("store-path")
		res = append(res, config.OptStorePath(s))
	}
	if fs.Changed("fixture") {
		s, _ := fs.GetString("fixture")
		res = append(res,
			config.OptCollaboratorsMode("fixture"),
			config.OptCollaboratorsFixtureFile(s),
		)
	}
	if fs.Changed("jobs") {
		i, _ := fs.GetInt("jobs")
		res = append(res, config.OptJobsNumber(i))
	}
	if fs.Changed("no-cache") {
		b, _ := fs.GetBool("no-cache")
		res = append(res, config.OptCacheEnabled(!b))
	}
	if fs.Lookup("columns") != nil && fs.Changed("columns") {
		s, _ := fs.GetString("columns")
		res = append(res, config.OptIngestColumnMap(s))
	}
	return res
}
