package ast

import (
	"strings"

	"wscheck/internal/source"
)

// TypeKind tags the variant held by a TypeExpr.
type TypeKind uint8

const (
	TypeInvalid TypeKind = iota
	TypeNil              // ()
	TypeBuiltin          // string, int, byte, error, ...
	TypeNamed            // prefix:Name
	TypeArray            // T[]
	TypeOptional         // T?
	TypeUnion            // A|B
)

// TypeExpr is a declared type as written in a package description.
type TypeExpr struct {
	Kind    TypeKind
	Prefix  string // module alias, TypeNamed only
	Name    string
	Elem    *TypeExpr  // TypeArray, TypeOptional
	Members []TypeExpr // TypeUnion
	Span    source.Span
}

func Nil(sp source.Span) TypeExpr { return TypeExpr{Kind: TypeNil, Span: sp} }

func Builtin(name string, sp source.Span) TypeExpr {
	return TypeExpr{Kind: TypeBuiltin, Name: name, Span: sp}
}

func Named(prefix, name string, sp source.Span) TypeExpr {
	return TypeExpr{Kind: TypeNamed, Prefix: prefix, Name: name, Span: sp}
}

func ArrayOf(elem TypeExpr, sp source.Span) TypeExpr {
	return TypeExpr{Kind: TypeArray, Elem: &elem, Span: sp}
}

func OptionalOf(elem TypeExpr, sp source.Span) TypeExpr {
	return TypeExpr{Kind: TypeOptional, Elem: &elem, Span: sp}
}

func UnionOf(sp source.Span, members ...TypeExpr) TypeExpr {
	return TypeExpr{Kind: TypeUnion, Members: members, Span: sp}
}

// String renders the type in the description syntax.
func (t TypeExpr) String() string {
	var b strings.Builder
	t.write(&b, false)
	return b.String()
}

func (t TypeExpr) write(b *strings.Builder, nested bool) {
	switch t.Kind {
	case TypeNil:
		b.WriteString("()")
	case TypeBuiltin:
		b.WriteString(t.Name)
	case TypeNamed:
		if t.Prefix != "" {
			b.WriteString(t.Prefix)
			b.WriteByte(':')
		}
		b.WriteString(t.Name)
	case TypeArray, TypeOptional:
		if t.Elem == nil {
			b.WriteString("<invalid>")
			return
		}
		t.Elem.write(b, true)
		if t.Kind == TypeArray {
			b.WriteString("[]")
		} else {
			b.WriteByte('?')
		}
	case TypeUnion:
		if nested {
			b.WriteByte('(')
		}
		for i, m := range t.Members {
			if i > 0 {
				b.WriteByte('|')
			}
			m.write(b, true)
		}
		if nested {
			b.WriteByte(')')
		}
	default:
		b.WriteString("<invalid>")
	}
}
