package ioraxtax

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/errcode"
)

// SetupError is returned when the raxtax command or its reference
// database is not available.
func SetupError(path string, err error) error {
	msg := `Cannot use raxtax with <em>%s</em>
   Set <em>classifier.command</em> and <em>classifier.database</em>,
   or leave <em>classifier.database</em> empty to skip the check`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ClassifierSetupError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: raxtax setup: %w", fn.Name(), err),
	}
}
