// Package ioingest reads raw specimen records from tab-separated data
// packages.
package ioingest

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnlib"
	"github.com/gnames/gnuuid"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Reader reads a TSV file. It implements curation.Reader.
type Reader struct {
	path string
	cols ColumnMap
}

// New creates a Reader for the file with the given column map.
func New(path string, cols ColumnMap) *Reader {
	return &Reader{path: path, cols: cols}
}

// Read sends records to ch in file order. Rows without a valid id are
// skipped with a warning. The channel is not closed.
func (r *Reader) Read(ctx context.Context, ch chan<- specimen.Record) error {
	f, err := os.Open(r.path)
	if err != nil {
		return OpenError(r.path, err)
	}
	defer f.Close()

	var in io.Reader = f
	if strings.HasSuffix(r.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return OpenError(r.path, err)
		}
		defer gz.Close()
		in = gz
	}

	return r.read(ctx, in, ch)
}

func (r *Reader) read(
	ctx context.Context,
	in io.Reader,
	ch chan<- specimen.Record,
) error {
	cr := csv.NewReader(in)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return HeaderError(r.path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	l, err := newLayout(r.cols, header)
	if err != nil {
		return HeaderError(r.path, err)
	}

	var count, skipped int
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := cr.FieldPos(0)
			return RowError(r.path, line, err)
		}

		rec, err := l.record(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			slog.Warn("Skipping row", "file", r.path, "line", line, "error", err)
			skipped++
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch <- rec:
			count++
		}
	}

	slog.Info("Read raw records",
		"file", r.path, "records", count, "skipped", skipped)
	return nil
}

func (l layout) record(row []string) (specimen.Record, error) {
	var res specimen.Record
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(gnlib.FixUtf8(row[i]))
	}

	idStr := field(l.id)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return res, fmt.Errorf("bad id %q: %w", idStr, err)
	}

	res.ID = id
	res.RawSequence = field(l.seq)
	res.SourceHash = gnuuid.New(strings.Join(row, "\t")).String()
	for rank, i := range l.ranks {
		res.Taxonomy.Set(rank, clean(field(i)))
	}
	res.Identification = field(l.identification)
	res.Country = clean(field(l.country))
	res.CountryISO = strings.ToUpper(clean(field(l.countryISO)))

	if l.coord >= 0 {
		res.Coordinates = parseCoord(field(l.coord))
	}
	if res.Coordinates == nil && l.lat >= 0 && l.lon >= 0 {
		res.Coordinates = parseLatLon(field(l.lat), field(l.lon))
	}

	if s := field(l.updated); s != "" {
		res.SourceUpdated = parseDate(s)
	}
	return res, nil
}

// clean removes placeholders of empty values.
func clean(s string) string {
	switch strings.ToLower(s) {
	case "none", "null", "na", "n/a", "\\n":
		return ""
	}
	return s
}

// parseCoord reads coordinates formatted as "[lat, lon]".
func parseCoord(s string) *specimen.Coordinates {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return nil
	}
	return parseLatLon(lat, lon)
}

func parseLatLon(latStr, lonStr string) *specimen.Coordinates {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return nil
	}
	res := &specimen.Coordinates{Lat: lat, Lon: lon}
	if !res.IsValid() {
		return nil
	}
	return res
}

func parseDate(s string) time.Time {
	for _, v := range dateLayouts {
		if t, err := time.Parse(v, s); err == nil {
			return t.UTC()
		}
	}
	slog.Debug("Cannot parse date", "date", s)
	return time.Time{}
}
