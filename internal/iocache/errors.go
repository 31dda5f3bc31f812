package iocache

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/errcode"
)

// OpenError is returned when the cache directory cannot be used.
func OpenError(dir string, err error) error {
	msg := "Cannot open lookup cache at <em>%s</em>"
	vars := []any{dir}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CacheOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cache %s: %w", fn.Name(), dir, err),
	}
}

// NotOpenError is returned when the cache is used after Close.
func NotOpenError() error {
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CacheNotOpenError,
		Msg:  "Lookup cache is not open",
		Err:  fmt.Errorf("from %s: %w", fn.Name(), errors.New("cache is closed")),
	}
}
