// Package iogbif implements the name-matching and occurrence capabilities
// with the GBIF REST API.
package iogbif

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gnames/gnbold/pkg/guard"
	"github.com/gnames/gnfmt"
)

// ErrStatus is wrapped into errors for unexpected HTTP responses.
var ErrStatus = errors.New("unexpected HTTP status")

type client struct {
	baseURL string
	http    *http.Client
	enc     gnfmt.GNjson
}

func newClient(baseURL string, timeout time.Duration) client {
	return client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// get sends a GET request and decodes the JSON answer into res. A 429
// answer is a rate limit, other 4xx answers are permanent failures.
func (c client) get(
	ctx context.Context,
	path string,
	params url.Values,
	res any,
) error {
	u := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", guard.ErrPermanent, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", path, guard.ErrRateLimited)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s: %w %d", path, ErrStatus, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s: %w: %w %d",
			path, guard.ErrPermanent, ErrStatus, resp.StatusCode)
	}

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err = c.enc.Decode(bs, res); err != nil {
		return fmt.Errorf("%s: %w: %w", path, guard.ErrPermanent, err)
	}
	return nil
}
