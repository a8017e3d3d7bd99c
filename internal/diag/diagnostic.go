package diag

import (
	"wscheck/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	// Format is the message template the diagnostic was built from. Tests and
	// tooling compare it literally.
	Format  string
	Message string
	Primary source.Span
	Notes   []Note
}
