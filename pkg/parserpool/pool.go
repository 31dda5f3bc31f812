// Package parserpool provides a pool of gnparser instances for concurrent
// parsing of recorded scientific names.
// This is a pure package - parsing is computation, not I/O.
package parserpool

import (
	"runtime"
	"strings"

	"github.com/gnames/gnlib/ent/nomcode"
	"github.com/gnames/gnparser"
	"github.com/gnames/gnparser/ent/parsed"
)

// Pool parses names with botanical or zoological rules.
type Pool interface {
	// Parse parses a name using the rules of the nomenclatural code.
	// It is safe for concurrent use.
	Parse(name string, code nomcode.Code) parsed.Parsed

	// Close shuts down the parser pools.
	Close()
}

type pool struct {
	botanicalCh  chan gnparser.GNparser
	zoologicalCh chan gnparser.GNparser
}

// New creates a pool with jobsNum parsers per nomenclatural code.
// If jobsNum is 0, it defaults to runtime.NumCPU().
func New(jobsNum int) Pool {
	if jobsNum <= 0 {
		jobsNum = runtime.NumCPU()
	}

	botanicalCfg := gnparser.NewConfig(gnparser.OptCode(nomcode.Botanical))
	zoologicalCfg := gnparser.NewConfig(gnparser.OptCode(nomcode.Zoological))

	return &pool{
		botanicalCh:  gnparser.NewPool(botanicalCfg, jobsNum),
		zoologicalCh: gnparser.NewPool(zoologicalCfg, jobsNum),
	}
}

func (p *pool) Parse(name string, code nomcode.Code) parsed.Parsed {
	ch := p.zoologicalCh
	if code == nomcode.Botanical {
		ch = p.botanicalCh
	}

	parser := <-ch
	res := parser.ParseName(name)
	ch <- parser

	return res
}

func (p *pool) Close() {
	for _, ch := range []chan gnparser.GNparser{p.botanicalCh, p.zoologicalCh} {
		close(ch)
		for range ch {
		}
	}
}

// CodeFor picks the nomenclatural code from the recorded kingdom.
func CodeFor(kingdom string) nomcode.Code {
	switch strings.ToLower(strings.TrimSpace(kingdom)) {
	case "plantae", "fungi", "chromista", "protozoa":
		return nomcode.Botanical
	default:
		return nomcode.Zoological
	}
}

// Canonical returns the simple canonical form of a name. The second value
// is false for names that could not be parsed or are surrogates.
func Canonical(p Pool, name string, code nomcode.Code) (string, bool) {
	res := p.Parse(name, code)
	if !res.Parsed || res.Surrogate != nil {
		return "", false
	}
	return res.Canonical.Simple, true
}

// IsHybrid reports whether the parser recognised a hybrid name or formula.
func IsHybrid(p Pool, name string, code nomcode.Code) bool {
	res := p.Parse(name, code)
	return res.Parsed && res.Hybrid != nil
}
