package iocache

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gnames/gnbold/pkg/namecheck"
	"golang.org/x/sync/singleflight"
)

// Names caches answers of a name matcher. Identical queries running at
// the same time share one lookup.
type Names struct {
	cache *Cache
	next  namecheck.Matcher
	group singleflight.Group
}

// NewNames wraps a matcher with the cache.
func NewNames(c *Cache, m namecheck.Matcher) *Names {
	return &Names{cache: c, next: m}
}

// Match implements namecheck.Matcher.
func (n *Names) Match(
	ctx context.Context,
	q namecheck.Query,
) (namecheck.Match, error) {
	key := nameKey(q)

	var res namecheck.Match
	ok, err := n.cache.get(key, &res)
	if err != nil {
		slog.Warn("Cannot read name cache", "key", key, "error", err)
	}
	if ok {
		return res, nil
	}

	v, err, _ := n.group.Do(key, func() (any, error) {
		m, err := n.next.Match(ctx, q)
		if err != nil {
			return m, err
		}
		if err = n.cache.set(key, m); err != nil {
			slog.Warn("Cannot write name cache", "key", key, "error", err)
		}
		return m, nil
	})
	if err != nil {
		return namecheck.Match{}, err
	}
	return v.(namecheck.Match), nil
}

func nameKey(q namecheck.Query) string {
	return strings.Join([]string{
		"name", q.Rank.String(), strings.ToLower(q.Name), q.ParentKey,
	}, "|")
}
