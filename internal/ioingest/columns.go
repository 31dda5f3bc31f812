package ioingest

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/gnames/gnbold/pkg/specimen"
	"gopkg.in/yaml.v3"
)

//go:embed columns.yaml
var defaultColumns []byte

// ColumnMap names the header columns that hold specimen fields.
type ColumnMap struct {
	ID             string            `yaml:"id"`
	Sequence       string            `yaml:"sequence"`
	Ranks          map[string]string `yaml:"ranks"`
	Identification string            `yaml:"identification"`
	Coord          string            `yaml:"coord"`
	Latitude       string            `yaml:"latitude"`
	Longitude      string            `yaml:"longitude"`
	Country        string            `yaml:"country"`
	CountryISO     string            `yaml:"country_iso"`
	Updated        string            `yaml:"updated"`
}

// DefaultColumns returns the column map of BOLD data packages.
func DefaultColumns() ColumnMap {
	res, err := parseColumns(defaultColumns)
	if err != nil {
		panic(err)
	}
	return res
}

// LoadColumns reads a column map from a YAML file. An empty path gives
// the default map.
func LoadColumns(path string) (ColumnMap, error) {
	if path == "" {
		return DefaultColumns(), nil
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return ColumnMap{}, ColumnMapError(path, err)
	}
	res, err := parseColumns(bs)
	if err != nil {
		return ColumnMap{}, ColumnMapError(path, err)
	}
	return res, nil
}

func parseColumns(bs []byte) (ColumnMap, error) {
	var res ColumnMap
	if err := yaml.Unmarshal(bs, &res); err != nil {
		return res, err
	}
	if res.ID == "" || res.Sequence == "" {
		return res, fmt.Errorf("id and sequence columns are required")
	}
	for k := range res.Ranks {
		if specimen.NewRank(k) == specimen.NoRank {
			return res, fmt.Errorf("unknown rank %q", k)
		}
	}
	return res, nil
}

// layout resolves column names of the map to positions in a header row.
type layout struct {
	id, seq        int
	ranks          map[specimen.Rank]int
	identification int
	coord          int
	lat, lon       int
	country        int
	countryISO     int
	updated        int
}

func newLayout(cols ColumnMap, header []string) (layout, error) {
	idx := make(map[string]int, len(header))
	for i, v := range header {
		idx[v] = i
	}
	pos := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := idx[name]; ok {
			return i
		}
		return -1
	}

	res := layout{
		id:             pos(cols.ID),
		seq:            pos(cols.Sequence),
		ranks:          make(map[specimen.Rank]int),
		identification: pos(cols.Identification),
		coord:          pos(cols.Coord),
		lat:            pos(cols.Latitude),
		lon:            pos(cols.Longitude),
		country:        pos(cols.Country),
		countryISO:     pos(cols.CountryISO),
		updated:        pos(cols.Updated),
	}
	if res.id < 0 {
		return res, fmt.Errorf("no id column %q", cols.ID)
	}
	if res.seq < 0 {
		return res, fmt.Errorf("no sequence column %q", cols.Sequence)
	}
	for k, v := range cols.Ranks {
		if i := pos(v); i >= 0 {
			res.ranks[specimen.NewRank(k)] = i
		}
	}
	return res, nil
}
