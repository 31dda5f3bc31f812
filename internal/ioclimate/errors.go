package ioclimate

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/errcode"
)

// GridError is returned when the climate grid cannot be loaded.
func GridError(path string, err error) error {
	msg := "Cannot load climate grid <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ClimateGridError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: climate grid: %w", fn.Name(), err),
	}
}
