package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"wscheck/internal/diag"
	"wscheck/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info *color.Color
	code, message   *color.Color
	gutter, note    *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:     mk(color.FgRed, color.Bold),
		warn:    mk(color.FgYellow, color.Bold),
		info:    mk(color.FgCyan, color.Bold),
		code:    mk(color.Faint),
		message: mk(color.Bold),
		gutter:  mk(color.FgBlue),
		note:    mk(color.FgGreen),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

type prettyPrinter struct {
	w    io.Writer
	fs   *source.FileSet
	opts PrettyOpts
	pal  palette
}

// Pretty форматирует диагностики в человекочитаемый вид, в порядке выдачи.
// Для каждого diag печатает:
//
//	<path>:<line>:<col>: ERROR WS_101: <message>
//
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
// Диагностики без позиции печатаются без пути и контекста.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := &prettyPrinter{w: w, fs: fs, opts: opts, pal: newPalette(opts.Color)}
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		p.diagnostic(&d)
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(w, "\n... %d more diagnostics not shown (limit %d)\n", n, bag.Cap())
	}
}

func (p *prettyPrinter) diagnostic(d *diag.Diagnostic) {
	sev := p.pal.severity(d.Severity)
	head := sev.Sprint(d.Severity.String()) + " " + p.pal.code.Sprint(d.Code.ID())
	msg := p.pal.message.Sprint(d.Message)

	if d.Primary.Known() {
		start, _ := p.fs.Resolve(d.Primary)
		fmt.Fprintf(p.w, "%s:%d:%d: %s: %s\n",
			formatPath(p.fs, d.Primary, p.opts.PathMode), start.Line, start.Col, head, msg)
		p.excerpt(d.Primary, sev)
	} else {
		fmt.Fprintf(p.w, "%s: %s\n", head, msg)
	}

	// timing payloads are useless without their note
	if !p.opts.ShowNotes && d.Code != diag.ObsTimings {
		return
	}
	for _, n := range d.Notes {
		label := p.pal.note.Sprint("note")
		if !n.Span.Known() {
			fmt.Fprintf(p.w, "  %s: %s\n", label, n.Msg)
			continue
		}
		start, _ := p.fs.Resolve(n.Span)
		fmt.Fprintf(p.w, "  %s: %s:%d:%d: %s\n",
			label, formatPath(p.fs, n.Span, p.opts.PathMode), start.Line, start.Col, n.Msg)
	}
}

// excerpt prints the lines around span with the primary line underlined.
func (p *prettyPrinter) excerpt(span source.Span, marker *color.Color) {
	f := p.fs.Get(span.File)
	if f == nil {
		return
	}
	start, end := p.fs.Resolve(span)
	ctx := uint32(max(p.opts.Context, 0))
	first := start.Line - min(start.Line-1, ctx)
	last := start.Line + ctx
	gutterWidth := len(strconv.FormatUint(uint64(last), 10))
	blank := p.pal.gutter.Sprint(strings.Repeat(" ", gutterWidth+1) + "|")

	for line := first; line <= last; line++ {
		if int(line-1) > len(f.LineIdx) {
			break
		}
		text := f.GetLine(line)
		num := p.pal.gutter.Sprintf("%*d |", gutterWidth+1, line)
		fmt.Fprintf(p.w, "%s %s\n", num, p.clip(expandTabs(text)))
		if line != start.Line {
			continue
		}
		pad, width := underline(text, start, end)
		if p.opts.Width > 0 && pad >= int(p.opts.Width) {
			continue
		}
		fmt.Fprintf(p.w, "%s %s%s\n", blank, strings.Repeat(" ", pad),
			marker.Sprint("^"+strings.Repeat("~", width-1)))
	}
}

func (p *prettyPrinter) clip(text string) string {
	limit := int(p.opts.Width)
	if limit == 0 || runewidth.StringWidth(text) <= limit {
		return text
	}
	if limit <= 3 {
		return runewidth.Truncate(text, limit, "")
	}
	return runewidth.Truncate(text, limit, "...")
}

// underline returns the display offset and width of the marker under text.
// A span running past the line is underlined up to the end of the line.
func underline(text string, start, end source.LineCol) (pad, width int) {
	from := clampCol(text, start.Col)
	to := len(text)
	if end.Line == start.Line {
		to = clampCol(text, end.Col)
	}
	pad = runewidth.StringWidth(expandTabs(text[:from]))
	if to > from {
		width = runewidth.StringWidth(expandTabs(text[from:to]))
	}
	return pad, max(width, 1)
}

func clampCol(text string, col uint32) int {
	if col == 0 {
		return 0
	}
	return min(int(col-1), len(text))
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
