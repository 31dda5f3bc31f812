// Package ioraxtax implements the classifier capability by running the
// raxtax executable against a reference database.
package ioraxtax

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gnames/gnbold/pkg/guard"
	"github.com/gnames/gnbold/pkg/misclass"
	"github.com/gnames/gnbold/pkg/specimen"
)

// lineageRanks are the ranks of raxtax lineages in their order.
var lineageRanks = []specimen.Rank{
	specimen.Phylum, specimen.Class, specimen.Order,
	specimen.Family, specimen.Genus, specimen.Species,
}

// Classifier runs raxtax for a batch of queries.
type Classifier struct {
	command  string
	database string
}

// New creates a Classifier. It fails when the command is not found or the
// reference database is missing.
func New(command, database string) (*Classifier, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, SetupError(command, err)
	}
	if _, err = os.Stat(database); err != nil {
		return nil, SetupError(database, err)
	}
	return &Classifier{command: path, database: database}, nil
}

// Classify implements misclass.Classifier.
func (c *Classifier) Classify(
	ctx context.Context,
	qs []misclass.Query,
) ([]misclass.Prediction, error) {
	dir, err := os.MkdirTemp("", "gnbold-raxtax-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	query := filepath.Join(dir, "query.fasta")
	if err = writeQueryFile(query, qs); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, c.command,
		"-d", c.database,
		"-i", query,
		"--skip-exact-matches", "--redo",
	)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			err = fmt.Errorf("%w: %w", guard.ErrPermanent, err)
		}
		return nil, fmt.Errorf("raxtax: %w: %s", err, tail(out))
	}

	f, err := os.Open(filepath.Join(dir, "query.out", "raxtax.out"))
	if err != nil {
		return nil, fmt.Errorf("raxtax output: %w", err)
	}
	defer f.Close()

	return readResults(f)
}

// writeQueryFile writes queries as FASTA with raxtax headers. Queries
// without a sequence are skipped.
func writeQueryFile(path string, qs []misclass.Query) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, q := range qs {
		if q.Sequence == "" {
			continue
		}
		fmt.Fprintf(w, ">%s\n%s\n", header(q), q.Sequence)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// header formats "id;tax=Phylum,Class,Order,Family,Genus,Species;".
func header(q misclass.Query) string {
	names := make([]string, len(lineageRanks))
	for i, r := range lineageRanks {
		names[i] = strings.ReplaceAll(q.Lineage.Name(r), " ", "_")
	}
	return fmt.Sprintf("%d;tax=%s;", q.ID, strings.Join(names, ","))
}

// readResults parses raxtax.out. Only the best row of every query is
// used, rows that cannot be parsed are skipped.
func readResults(r io.Reader) ([]misclass.Prediction, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var res []misclass.Prediction
	seen := make(map[int64]struct{})
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("raxtax output: %w", err)
		}
		p, err := parseRow(row)
		if err != nil {
			slog.Warn("Skipping raxtax row", "row", row, "error", err)
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		res = append(res, p)
	}
	return res, nil
}

func parseRow(row []string) (misclass.Prediction, error) {
	var res misclass.Prediction
	if len(row) < 3 {
		return res, fmt.Errorf("expected 3 fields, got %d", len(row))
	}

	idStr, _, _ := strings.Cut(row[0], ";")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return res, err
	}
	res.ID = id

	names := strings.Split(row[1], ",")
	scores := strings.Split(row[2], ",")
	res.Scores = make(map[specimen.Rank]float64)
	for i, r := range lineageRanks {
		if i < len(names) {
			res.Lineage.Set(r, strings.ReplaceAll(names[i], "_", " "))
		}
		if i < len(scores) {
			s, err := strconv.ParseFloat(strings.TrimSpace(scores[i]), 64)
			if err != nil {
				return res, err
			}
			res.Scores[r] = s
		}
	}
	return res, nil
}

func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 500 {
		s = s[len(s)-500:]
	}
	return s
}
