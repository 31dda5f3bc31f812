package curation

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/errcode"
)

// CorpusExistsError is returned by Build for a store that already holds
// records.
func CorpusExistsError(count int) error {
	msg := "The store already has <em>%d</em> records, use update instead"
	vars := []any{count}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CurationCorpusExistsError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: store is not empty: %d records",
			fn.Name(), count),
	}
}

// AbortedError wraps the cause that stopped a run.
func AbortedError(command string, err error) error {
	msg := "Curation <em>%s</em> stopped"
	vars := []any{command}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CurationAbortedError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: %s stopped: %w", fn.Name(), command, err),
	}
}
