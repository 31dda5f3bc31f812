package iopg

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/errcode"
)

// ConnectionError is returned when database connection fails.
func ConnectionError(
	host string,
	port int,
	database, user string,
	err error,
) error {
	msg := `Cannot connect to PostgreSQL <em>%s@%s:%d/%s</em>

<em>How to fix:</em>
  1. Check if PostgreSQL is running:
     <em>pg_isready -h %s -p %d</em>
  2. Review database settings in <em>~/.config/gnbold/config.yaml</em>`
	vars := []any{user, host, port, database, host, port}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StoreConnectionError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: failed to connect to %s:%d/%s: %w",
			fn.Name(), host, port, database, err),
	}
}

// GORMConnectionError is returned when GORM cannot use the pool.
func GORMConnectionError(err error) error {
	msg := "Cannot connect to database with GORM"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StoreSchemaError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: gorm open: %w", fn.Name(), err),
	}
}

// SchemaError is returned when AutoMigrate fails.
func SchemaError(err error) error {
	msg := "Cannot create or migrate the specimens schema"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StoreSchemaError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: auto migrate: %w", fn.Name(), err),
	}
}

// ReadError is returned when records cannot be read.
func ReadError(err error) error {
	msg := "Cannot read records from PostgreSQL"
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
	msg := "Cannot save <em>%d</em> records to PostgreSQL"
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
