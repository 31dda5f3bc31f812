package iosqlite

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/errcode"
)

// OpenError is returned when the database file cannot be opened.
func OpenError(path string, err error) error {
	msg := "Cannot open record store <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StoreConnectionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot open %s: %w", fn.Name(), path, err),
	}
}

// SchemaError is returned when tables cannot be created.
func SchemaError(path string, err error) error {
	msg := "Cannot create tables in <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StoreSchemaError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot create schema: %w", fn.Name(), err),
	}
}

// ReadError is returned when records cannot be read.
func ReadError(err error) error {
	msg := "Cannot read records from the store"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StoreReadError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: cannot read records: %w", fn.Name(), err),
	}
}

// WriteError is returned when a batch of records cannot be saved.
func WriteError(n int, err error) error {
	msg := "Cannot save <em>%d</em> records"
	vars := []any{n}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StoreWriteError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot save records: %w", fn.Name(), err),
	}
}
