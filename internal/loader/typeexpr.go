package loader

import (
	"fmt"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"wscheck/internal/ast"
	"wscheck/internal/source"
)

var builtinNames = map[string]struct{}{
	"string":  {},
	"int":     {},
	"byte":    {},
	"float":   {},
	"decimal": {},
	"boolean": {},
	"error":   {},
	"json":    {},
	"xml":     {},
	"any":     {},
	"anydata": {},
}

// ParseType parses a type string. Spans of the resulting nodes are offsets
// from at.Start inside at.File.
//
//	union   := postfix ('|' postfix)*
//	postfix := primary ('[]' | '?')*
//	primary := '()' | '(' union ')' | ident (':' ident)?
func ParseType(s string, at source.Span) (ast.TypeExpr, error) {
	p := &typeParser{src: s, base: at}
	p.skipSpace()
	if p.eof() {
		return ast.TypeExpr{}, p.errorf("empty type")
	}
	t, err := p.union()
	if err != nil {
		return ast.TypeExpr{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return ast.TypeExpr{}, p.errorf("unexpected %q", p.src[p.pos])
	}
	return t, nil
}

type typeParser struct {
	src  string
	pos  int
	base source.Span
}

func (p *typeParser) eof() bool { return p.pos >= len(p.src) }

func (p *typeParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &TypeError{Input: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *typeParser) span(from int) source.Span {
	start := p.base.Start + off32(from)
	end := p.base.Start + off32(p.pos)
	if p.base.End > p.base.Start && end > p.base.End {
		end = p.base.End
	}
	return source.Span{File: p.base.File, Start: start, End: end}
}

func (p *typeParser) union() (ast.TypeExpr, error) {
	from := p.pos
	first, err := p.postfix()
	if err != nil {
		return ast.TypeExpr{}, err
	}
	members := []ast.TypeExpr{first}
	for {
		p.skipSpace()
		if p.peek() != '|' {
			break
		}
		p.pos++
		p.skipSpace()
		next, err := p.postfix()
		if err != nil {
			return ast.TypeExpr{}, err
		}
		members = append(members, next)
	}
	if len(members) == 1 {
		return first, nil
	}
	return ast.UnionOf(p.span(from), members...), nil
}

func (p *typeParser) postfix() (ast.TypeExpr, error) {
	from := p.pos
	t, err := p.primary()
	if err != nil {
		return ast.TypeExpr{}, err
	}
	for {
		switch {
		case p.peek() == '?':
			p.pos++
			t = ast.OptionalOf(t, p.span(from))
		case p.peek() == '[':
			p.pos++
			if p.peek() != ']' {
				return ast.TypeExpr{}, p.errorf("expected ']'")
			}
			p.pos++
			t = ast.ArrayOf(t, p.span(from))
		default:
			return t, nil
		}
	}
}

func (p *typeParser) primary() (ast.TypeExpr, error) {
	from := p.pos
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			return ast.Nil(p.span(from)), nil
		}
		inner, err := p.union()
		if err != nil {
			return ast.TypeExpr{}, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return ast.TypeExpr{}, p.errorf("expected ')'")
		}
		p.pos++
		return inner, nil
	case isIdentStart(c):
		name := p.ident()
		if p.peek() != ':' {
			if _, ok := builtinNames[name]; ok {
				return ast.Builtin(name, p.span(from)), nil
			}
			if name == "nil" {
				return ast.Nil(p.span(from)), nil
			}
			return ast.Named("", name, p.span(from)), nil
		}
		p.pos++
		if !isIdentStart(p.peek()) {
			return ast.TypeExpr{}, p.errorf("expected type name after ':'")
		}
		typ := p.ident()
		return ast.Named(name, typ, p.span(from)), nil
	case c == 0:
		return ast.TypeExpr{}, p.errorf("unexpected end of type")
	default:
		return ast.TypeExpr{}, p.errorf("unexpected %q", c)
	}
}

func (p *typeParser) ident() string {
	from := p.pos
	for !p.eof() && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return norm.NFC.String(p.src[from:p.pos])
}

func off32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("type offset overflow: %w", err))
	}
	return v
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
