package diagfmt

import (
	"wscheck/internal/source"
)

const unknownPath = "<unknown>"

// formatPath renders the file of span according to mode. Spans without a
// file render as unknownPath.
func formatPath(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := fs.Get(span.File)
	if f == nil {
		return unknownPath
	}
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	case PathModeAuto:
		return f.FormatPath("auto", "")
	default:
		return f.Path
	}
}
