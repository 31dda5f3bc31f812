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
	"github.com/gnames/gnbold/internal/ioprogress"
	"github.com/gnames/gnbold/pkg/curation"
	"github.com/gnames/gnbold/pkg/store"
	"github.com/spf13/cobra"
)

// getReviewCmd returns the review command.
func getReviewCmd() *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Retry checks that could not be evaluated",
		Long: `Re-run curation stages for records with unresolved checks, for
example after network failures or rate limits. Resolved checks are not
evaluated again. The inclusion decision is re-derived for all records,
so review also applies a changed inclusion policy.

Examples:
  gnbold review
  gnbold review -r genus`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runReview()
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}
	return reviewCmd
}

func runReview() error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	total, err := sess.store.Count(ctx, store.Filter{})
	if err != nil {
		return err
	}
	if total == 0 {
		gn.Warn("Record store is empty, run '<em>gnbold build</em>' first")
		return nil
	}

	bar := ioprogress.New(total, "review")
	engine, err := curation.New(cfg, sess.store, sess.collab,
		curation.OptProgress(bar),
	)
	if err != nil {
		bar.Finish()
		return err
	}

	rep, err := engine.Review(ctx)
	if err != nil {
		return err
	}

	printReport(rep)
	return nil
}
