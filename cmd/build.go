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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/internal/ioingest"
	"github.com/gnames/gnbold/internal/ioprogress"
	"github.com/gnames/gnbold/pkg/curation"
	"github.com/spf13/cobra"
)

// getBuildCmd returns the build command.
func getBuildCmd() *cobra.Command {
	buildCmd := &cobra.Command{
		Use:   "build <data.tsv>",
		Short: "Create a curated corpus from a BOLD data package",
		Long: `Read raw specimen records from a tab-separated BOLD data package and
run them through all curation stages.

The record store has to be empty. Use 'gnbold update' to merge data into
an existing corpus.

Examples:
  gnbold build BOLD_Public.tsv -r species -l 2
  gnbold build data.tsv.gz --columns my-columns.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runIngest(args[0], "build")
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	buildCmd.Flags().StringP(
		"columns", "c", "",
		"YAML column map for the input file",
	)
	return buildCmd
}

// runIngest runs build or update on the input file.
func runIngest(path, command string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	if _, err := os.Stat(path); err != nil {
		return ioingest.OpenError(path, err)
	}
	cols, err := ioingest.LoadColumns(cfg.Ingest.ColumnMap)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	bar := ioprogress.New(0, command)
	engine, err := curation.New(cfg, sess.store, sess.collab,
		curation.OptProgress(bar),
	)
	if err != nil {
		bar.Finish()
		return err
	}

	r := ioingest.New(path, cols)
	var rep curation.Report
	if command == "update" {
		rep, err = engine.Update(ctx, r)
	} else {
		rep, err = engine.Build(ctx, r)
	}
	if err != nil {
		if ctx.Err() != nil {
			gn.Warn("Interrupted, processed records are saved")
		}
		return err
	}

	printReport(rep)
	return nil
}
