package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnbold/pkg/errcode"
)

// MissingSettingsError reports required settings without values.
func MissingSettingsError(names []string) error {
	msg := "Required settings are missing: <em>%s</em>\n" +
		"Set them in config.yaml, with GNBOLD_ variables or with flags"
	vars := []any{strings.Join(names, ", ")}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ConfigMissingSettingError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: missing settings %v",
			fn.Name(), names),
	}
}
