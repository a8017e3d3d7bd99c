package loader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSources is returned when a directory holds no description files.
var ErrNoSources = errors.New("no service description files")

// SyntaxError is a document yaml.v3 could not parse.
type SyntaxError struct {
	Path string
	Line int // 1-based, 0 when unknown
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// newSyntaxError picks the line out of yaml.v3 messages of the form
// "yaml: line 3: mapping values are not allowed in this context".
func newSyntaxError(path string, err error) *SyntaxError {
	se := &SyntaxError{Path: path, Msg: err.Error(), Err: err}
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	var line int
	if n, _ := fmt.Sscanf(msg, "line %d:", &line); n == 1 {
		se.Line = line
		if i := strings.Index(msg, ": "); i >= 0 {
			msg = msg[i+2:]
		}
	}
	se.Msg = msg
	return se
}

// TypeError is a type string that does not follow the type grammar.
type TypeError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("invalid type %q at %d: %s", e.Input, e.Offset, e.Msg)
}
