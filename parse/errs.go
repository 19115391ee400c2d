package parse

import (
	"errors"
	"fmt"
)

var ErrParse = errors.New("yaml parse error")

// ParseError reports where in the source a document failed to load.
type ParseError struct {
	Msg  string
	Line int
	Col  int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d", e.Msg, e.Line, e.Col)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
