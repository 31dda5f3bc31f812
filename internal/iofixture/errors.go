package iofixture

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/errcode"
)

// LoadError is returned when a fixture file cannot be read or parsed.
func LoadError(path string, err error) error {
	msg := "Cannot load fixture <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.FixtureLoadError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: cannot load fixture: %w",
			fn.Name(), err),
	}
}
