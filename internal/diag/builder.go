package diag

import "wscheck/internal/source"

// New builds a diagnostic whose message is the template itself.
func New(sev Severity, code Code, primary source.Span, format string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Format:   format,
		Message:  format,
		Primary:  primary,
	}
}

func NewError(code Code, primary source.Span, format string) Diagnostic {
	return New(SevError, code, primary, format)
}

func (d Diagnostic) WithMessage(msg string) Diagnostic {
	d.Message = msg
	return d
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}
