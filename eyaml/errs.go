package eyaml

import (
	"errors"
	"fmt"
)

// ErrHelper is the sentinel all eyaml helper failures unwrap to.
var ErrHelper = errors.New("eyaml helper failure")

// HelperError reports a failure to locate or run the external eyaml
// command, or an unusable result from it.
type HelperError struct {
	Msg string
	Err error
}

func (e *HelperError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *HelperError) Unwrap() error { return ErrHelper }

func helperErrf(err error, format string, args ...any) *HelperError {
	return &HelperError{Msg: fmt.Sprintf(format, args...), Err: err}
}
