package yamlpath

import (
	"errors"
	"fmt"
)

var (
	ErrPath         = errors.New("invalid yaml path")
	ErrNotFound     = errors.New("required node not found")
	ErrTypeMismatch = errors.New("node type mismatch")
)

// PathError reports a flaw in a YAML Path expression. Parsing is atomic, so
// a PathError means no part of the path was accepted.
type PathError struct {
	Msg     string
	Path    string
	Segment string
	Pos     int
}

func (e *PathError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("%s at character index %d, segment %q, in %q",
			e.Msg, e.Pos, e.Segment, e.Path)
	}
	return fmt.Sprintf("%s at character index %d in %q", e.Msg, e.Pos, e.Path)
}

func (e *PathError) Unwrap() error { return ErrPath }

func pathErrf(path string, pos int, format string, args ...any) *PathError {
	return &PathError{Msg: fmt.Sprintf(format, args...), Path: path, Pos: pos}
}

// NotFoundError reports that a path requiring a match did not match any node.
type NotFoundError struct {
	Path    string
	Segment string
}

func (e *NotFoundError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("required node not found at segment %q in %q",
			e.Segment, e.Path)
	}
	return fmt.Sprintf("required node not found in %q", e.Path)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TypeMismatchError reports that a matched node's kind cannot serve the
// requested operation.
type TypeMismatchError struct {
	Path    string
	Segment string
	Msg     string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s at segment %q in %q", e.Msg, e.Segment, e.Path)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }
