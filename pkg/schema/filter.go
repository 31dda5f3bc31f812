package schema

import (
	"fmt"
	"strings"

	"github.com/gnames/gnbold/pkg/store"
)

// Placeholder formats the n-th (1-based) query argument of a SQL dialect.
type Placeholder func(n int) string

// QuestionMark is the SQLite placeholder.
func QuestionMark(int) string { return "?" }

// Dollar is the PostgreSQL placeholder.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Where translates a store filter into a WHERE clause and its arguments.
// The clause is empty when the filter selects everything.
func Where(f store.Filter, ph Placeholder) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", ph(len(args))))
	}

	if f.AfterID != 0 {
		add("id > ?", f.AfterID)
	}
	if f.Include != nil {
		add("include = ?", *f.Include)
	}
	if f.ChecksAll != 0 {
		m := int64(f.ChecksAll)
		args = append(args, m)
		p1 := ph(len(args))
		args = append(args, m)
		conds = append(conds,
			fmt.Sprintf("(checks & %s) = %s", p1, ph(len(args))))
	}
	if f.ChecksNone != 0 {
		add("(checks & ?) = 0", int64(f.ChecksNone))
	}
	if f.TaxonKey != "" {
		add("verified_taxon_key = ?", f.TaxonKey)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
