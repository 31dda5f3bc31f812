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
	"errors"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnbold/internal/iocache"
	"github.com/gnames/gnbold/internal/ioclimate"
	"github.com/gnames/gnbold/internal/iofixture"
	"github.com/gnames/gnbold/internal/iofs"
	"github.com/gnames/gnbold/internal/iogbif"
	"github.com/gnames/gnbold/internal/iopg"
	"github.com/gnames/gnbold/internal/ioraxtax"
	"github.com/gnames/gnbold/internal/iosqlite"
	"github.com/gnames/gnbold/pkg/config"
	"github.com/gnames/gnbold/pkg/curation"
	"github.com/gnames/gnbold/pkg/parserpool"
	"github.com/gnames/gnbold/pkg/store"
	"github.com/gnames/gnfmt"
)

// session holds the store and collaborators of one command run.
type session struct {
	store   store.Store
	collab  curation.Collaborators
	closers []func() error
}

func (s *session) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openSession connects the Record Store and sets up collaborators
// according to the configuration.
func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	res := &session{}
	var err error

	if res.store, err = openStore(ctx, cfg); err != nil {
		return nil, err
	}
	res.closers = append(res.closers, res.store.Close)

	if err = res.setupCollaborators(cfg); err != nil {
		_ = res.close()
		return nil, err
	}
	return res, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		st, err := iopg.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		gn.Info("Connected to database: <em>%s@%s:%d/%s</em>",
			cfg.Database.User, cfg.Database.Host,
			cfg.Database.Port, cfg.Database.Database)
		return st, nil
	default:
		path := cfg.StorePath()
		if err := iofs.EnsureStoreDir(path); err != nil {
			return nil, err
		}
		st, err := iosqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		gn.Info("Using record store <em>%s</em>", path)
		return st, nil
	}
}

func (s *session) setupCollaborators(cfg *config.Config) error {
	pool := parserpool.New(cfg.JobsNumber)
	s.collab.Parser = pool
	s.closers = append(s.closers, func() error {
		pool.Close()
		return nil
	})

	if path := cfg.Location.ClimateGrid; path != "" {
		grid, err := ioclimate.Load(path)
		if err != nil {
			return err
		}
		s.collab.Zoner = grid
	}

	if cfg.Collaborators.Mode == "fixture" {
		fx, err := iofixture.Load(cfg.Collaborators.FixtureFile)
		if err != nil {
			return err
		}
		s.collab.Names = fx.Names()
		s.collab.Occurrences = fx.Occurrences()
		s.collab.Classifier = fx.Classifier()
		gn.Info("Using offline answers from <em>%s</em>",
			cfg.Collaborators.FixtureFile)
		return nil
	}

	timeout := time.Duration(cfg.Collaborators.TimeoutSec) * time.Second
	names := iogbif.NewNames(cfg.GBIF.URL, timeout, cfg.GBIF.MinConfidence)
	occs := iogbif.NewOccurrences(cfg.GBIF.URL, timeout, cfg.GBIF.MaxOccurrences)
	s.collab.Names = names
	s.collab.Occurrences = occs

	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour
		cache, err := iocache.Open(config.CacheDir(cfg.HomeDir), ttl)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, cache.Close)
		s.collab.Names = iocache.NewNames(cache, names)
		s.collab.Occurrences = iocache.NewOccurrences(cache, occs)
	}

	if db := cfg.Classifier.Database; db != "" {
		c, err := ioraxtax.New(cfg.Classifier.Command, db)
		if err != nil {
			return err
		}
		s.collab.Classifier = c
	} else {
		slog.Info("Misclassification check is disabled, no classifier database")
	}
	return nil
}

func printReport(rep curation.Report) {
	gn.Info(`Finished <em>%s</em> in %s
   processed:  %s
   included:   %s
   excluded:   %s
   unresolved: %s
   duplicates: %s`,
		rep.Command,
		gnfmt.TimeString(rep.Duration.Seconds()),
		humanize.Comma(int64(rep.Processed)),
		humanize.Comma(int64(rep.Included)),
		humanize.Comma(int64(rep.Excluded)),
		humanize.Comma(int64(rep.Unresolved)),
		humanize.Comma(int64(rep.Duplicates)),
	)

	switch rep.Command {
	case "update":
		gn.Info("Not newer than stored: %s, unchanged: %s",
			humanize.Comma(int64(rep.Conflicts)),
			humanize.Comma(int64(rep.Unchanged)),
		)
	case "review":
		gn.Info("Unresolved records before: %s, after: %s",
			humanize.Comma(int64(rep.UnresolvedBefore)),
			humanize.Comma(int64(rep.UnresolvedAfter)),
		)
	}

	if rep.Unresolved > 0 {
		gn.Info("Run '<em>gnbold review</em>' to retry unresolved records")
	}

	slog.Info("Run finished",
		"run_id", rep.RunID,
		"command", rep.Command,
		"processed", rep.Processed,
		"included", rep.Included,
		"excluded", rep.Excluded,
		"unresolved", rep.Unresolved,
		"duplicates", rep.Duplicates,
		"conflicts", rep.Conflicts,
		"unchanged", rep.Unchanged,
		"duration", rep.Duration,
	)
}
