package ioingest

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/errcode"
)

// OpenError is returned when the input file cannot be opened.
func OpenError(path string, err error) error {
	msg := "Cannot open input file <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IngestOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: open %s: %w", fn.Name(), path, err),
	}
}

// HeaderError is returned when the header row does not fit the column
// map.
func HeaderError(path string, err error) error {
	msg := `Header of <em>%s</em> does not match the column map
   Use <em>--columns</em> to provide a matching column map`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IngestHeaderError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: header: %w", fn.Name(), err),
	}
}

// ColumnMapError is returned for unreadable or incomplete column maps.
func ColumnMapError(path string, err error) error {
	msg := "Cannot use column map <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IngestColumnMapError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: column map: %w", fn.Name(), err),
	}
}

// RowError is returned when a row cannot be tokenized.
func RowError(path string, line int, err error) error {
	msg := "Malformed row at line <em>%d</em> of <em>%s</em>"
	vars := []any{line, path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.IngestRowError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: line %d: %w", fn.Name(), line, err),
	}
}
