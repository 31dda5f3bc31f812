package iogbif

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/gnames/gnbold/pkg/geocheck"
)

// pageLimit is the largest page the occurrence search allows.
const pageLimit = 300

type occurrencePage struct {
	Offset       int          `json:"offset"`
	Limit        int          `json:"limit"`
	EndOfRecords bool         `json:"endOfRecords"`
	Count        int          `json:"count"`
	Results      []occurrence `json:"results"`
}

type occurrence struct {
	DecimalLatitude  *float64 `json:"decimalLatitude"`
	DecimalLongitude *float64 `json:"decimalLongitude"`
	CountryCode      string   `json:"countryCode"`
}

// Occurrences fetches known occurrences of taxa from GBIF.
type Occurrences struct {
	client
	max int
}

// NewOccurrences creates a GBIF occurrence source returning at most maxOcc
// occurrences per taxon. Zero maxOcc fetches all of them.
func NewOccurrences(baseURL string, timeout time.Duration, maxOcc int) *Occurrences {
	return &Occurrences{
		client: newClient(baseURL, timeout),
		max:    maxOcc,
	}
}

// Occurrences implements geocheck.Source.
func (o *Occurrences) Occurrences(
	ctx context.Context,
	taxonKey string,
) ([]geocheck.Occurrence, error) {
	var res []geocheck.Occurrence
	for offset := 0; o.max <= 0 || offset < o.max; {
		limit := pageLimit
		if o.max > 0 {
			limit = min(limit, o.max-offset)
		}
		params := url.Values{}
		params.Set("taxonKey", taxonKey)
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(limit))

		var page occurrencePage
		if err := o.get(ctx, "occurrence/search", params, &page); err != nil {
			return nil, err
		}
		for _, v := range page.Results {
			occ := geocheck.Occurrence{CountryCode: v.CountryCode}
			if v.DecimalLatitude == nil || v.DecimalLongitude == nil {
				occ.NoCoords = true
			} else {
				occ.Lat, occ.Lon = *v.DecimalLatitude, *v.DecimalLongitude
			}
			res = append(res, occ)
		}
		if page.EndOfRecords || len(page.Results) == 0 {
			break
		}
		offset += len(page.Results)
	}

	if len(res) == 0 {
		return nil, geocheck.ErrNoData
	}
	return res, nil
}
