package merge

import (
	"errors"
	"fmt"
)

var ErrMerge = errors.New("documents cannot merge cleanly")

// MergeError reports a merge that cannot be completed as configured. Path
// locates where in the left document the merge failed.
type MergeError struct {
	Msg  string
	Path string
}

func (e *MergeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %q", e.Msg, e.Path)
	}
	return e.Msg
}

func (e *MergeError) Unwrap() error { return ErrMerge }

func mergeErrf(path string, format string, args ...any) *MergeError {
	return &MergeError{Msg: fmt.Sprintf(format, args...), Path: path}
}
