// Package seqcheck implements local sequence checks: curation of raw
// nucleotide sequences, corpus-wide duplicate and subsequence detection,
// and detection of hybrid identifications.
package seqcheck

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gnames/gnuuid"
)

// ErrLength is returned for curated sequences outside the length bounds.
var ErrLength = errors.New("sequence length out of bounds")

// Normalize upper-cases the sequence, maps U to T, removes whitespace and
// alignment gaps, and trims ambiguous N and padding from both ends.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '.':
			continue
		case 'u', 'U':
			b.WriteByte('T')
			continue
		}
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "N_")
}

// Curate normalizes the raw sequence and checks its length. Zero maxLen
// means no upper bound. The normalized sequence is returned with the
// error.
func Curate(raw string, minLen, maxLen int) (string, error) {
	res := Normalize(raw)
	l := len(res)
	if l == 0 || l < minLen || (maxLen > 0 && l > maxLen) {
		return res, fmt.Errorf("%w: %d (min %d, max %d)",
			ErrLength, l, minLen, maxLen)
	}
	return res, nil
}

// Hash returns the content hash of a curated sequence.
func Hash(seq string) string {
	if seq == "" {
		return ""
	}
	return gnuuid.New(seq).String()
}
