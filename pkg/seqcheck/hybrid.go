package seqcheck

import (
	"regexp"

	"github.com/gnames/gnbold/pkg/parserpool"
)

var hybridRe = regexp.MustCompile(`(?i)(×|\bhybrid\b|\bnotho|\sx\s|^x\s)`)

// IsHybrid detects hybrid naming conventions: the multiplication sign, a
// standalone "x" between names, "hybrid" and "notho" ranks. When a parser
// pool is given, names the parser recognises as hybrids count as well.
func IsHybrid(text string, pool parserpool.Pool, kingdom string) bool {
	if text == "" {
		return false
	}
	if hybridRe.MatchString(text) {
		return true
	}
	if pool == nil {
		return false
	}
	return parserpool.IsHybrid(pool, text, parserpool.CodeFor(kingdom))
}
