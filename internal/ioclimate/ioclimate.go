// Package ioclimate classifies coordinates into Köppen-Geiger climate zones
// using a gridded map in ESRI ASCII format.
package ioclimate

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gnames/gnbold/pkg/geocheck"
)

// zoneLabels follow the legend of the Köppen-Geiger maps by Beck et al.
// Index 0 is water.
var zoneLabels = [...]string{
	geocheck.Ocean,
	"Af", "Am", "Aw", "BWh", "BWk", "BSh", "BSk",
	"Csa", "Csb", "Csc", "Cwa", "Cwb", "Cwc", "Cfa", "Cfb", "Cfc",
	"Dsa", "Dsb", "Dsc", "Dsd", "Dwa", "Dwb", "Dwc", "Dwd",
	"Dfa", "Dfb", "Dfc", "Dfd", "ET", "EF",
}

// Grid is a raster of climate zone codes. It implements geocheck.Zoner.
type Grid struct {
	ncols, nrows int
	xll, yll     float64
	cellSize     float64
	cells        []uint8
}

// Load reads a grid from a file. Files ending with .gz are decompressed.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, GridError(path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, GridError(path, err)
		}
		defer gz.Close()
		r = gz
	}

	res, err := Parse(r)
	if err != nil {
		return nil, GridError(path, err)
	}
	return res, nil
}

// Parse reads a grid in ESRI ASCII format. Cell values outside of the
// legend and NODATA cells are treated as water.
func Parse(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	g := &Grid{}
	noData := math.NaN()
	hdr := map[string]bool{}
	var pending string
	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if !isHeaderKey(key) {
			pending = sc.Text()
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("header %s has no value", key)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", key, err)
		}
		hdr[key] = true
		switch key {
		case "ncols":
			g.ncols = int(v)
		case "nrows":
			g.nrows = int(v)
		case "xllcorner", "xllcenter":
			g.xll = v
		case "yllcorner", "yllcenter":
			g.yll = v
		case "cellsize":
			g.cellSize = v
		case "nodata_value":
			noData = v
		}
	}
	if hdr["xllcenter"] || hdr["yllcenter"] {
		g.xll -= g.cellSize / 2
		g.yll -= g.cellSize / 2
	}
	if g.ncols <= 0 || g.nrows <= 0 || g.cellSize <= 0 {
		return nil, fmt.Errorf(
			"bad grid header: ncols=%d nrows=%d cellsize=%g",
			g.ncols, g.nrows, g.cellSize,
		)
	}

	g.cells = make([]uint8, 0, g.ncols*g.nrows)
	add := func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("cell %d: %w", len(g.cells), err)
		}
		code := uint8(0)
		if v != noData && v > 0 && int(v) < len(zoneLabels) {
			code = uint8(v)
		}
		g.cells = append(g.cells, code)
		return nil
	}
	if pending != "" {
		if err := add(pending); err != nil {
			return nil, err
		}
	}
	for sc.Scan() {
		if err := add(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(g.cells) != g.ncols*g.nrows {
		return nil, fmt.Errorf(
			"expected %d cells, got %d", g.ncols*g.nrows, len(g.cells),
		)
	}
	return g, nil
}

func isHeaderKey(s string) bool {
	switch s {
	case "ncols", "nrows", "xllcorner", "xllcenter", "yllcorner",
		"yllcenter", "cellsize", "nodata_value":
		return true
	}
	return false
}

// Zone returns the climate zone label for the coordinates. Water cells
// give geocheck.Ocean, coordinates outside of the grid give false.
func (g *Grid) Zone(lat, lon float64) (string, bool) {
	if g == nil || math.IsNaN(lat) || math.IsNaN(lon) {
		return "", false
	}
	col := int(math.Floor((lon - g.xll) / g.cellSize))
	row := g.nrows - 1 - int(math.Floor((lat-g.yll)/g.cellSize))
	// the upper and right edges belong to the last cell
	if col == g.ncols && lon == g.xll+float64(g.ncols)*g.cellSize {
		col--
	}
	if row == -1 && lat == g.yll+float64(g.nrows)*g.cellSize {
		row = 0
	}
	if col < 0 || col >= g.ncols || row < 0 || row >= g.nrows {
		return "", false
	}
	return zoneLabels[g.cells[row*g.ncols+col]], true
}
