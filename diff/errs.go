package diff

import (
	"errors"
	"fmt"
)

// ErrDiff is the sentinel all diff configuration errors unwrap to.
var ErrDiff = errors.New("documents cannot be compared")

type DiffError struct {
	Msg  string
	Path string
}

func (e *DiffError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s at %q", e.Msg, e.Path)
}

func (e *DiffError) Unwrap() error { return ErrDiff }

func diffErrf(path string, format string, args ...any) *DiffError {
	return &DiffError{Msg: fmt.Sprintf(format, args...), Path: path}
}
