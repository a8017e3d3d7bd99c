package types

import (
	"wscheck/internal/ast"
)

type namedKey struct {
	module string
	name   string
}

var namedCategories = map[namedKey]Category{
	{ModuleWebSocket, "Caller"}:                        Caller,
	{ModuleWebSocket, "Service"}:                       Service,
	{ModuleWebSocket, "Listener"}:                      WSListener,
	{ModuleWebSocket, "IdleTimeoutEvent"}:              TimeoutEvent,
	{ModuleWebSocket, "Error"}:                         SpecificError,
	{ModuleWebSocket, "UpgradeError"}:                  SpecificError,
	{ModuleWebSocket, "ConnectionError"}:               SpecificError,
	{ModuleWebSocket, "ConnectionClosureError"}:        SpecificError,
	{ModuleWebSocket, "InvalidHandshakeError"}:         SpecificError,
	{ModuleWebSocket, "PayloadTooLargeError"}:          SpecificError,
	{ModuleWebSocket, "InvalidContinuationFrameError"}: SpecificError,
	{ModuleWebSocket, "HandshakeTimedOut"}:             SpecificError,
	{ModuleWebSocket, "ReadTimedOutError"}:             SpecificError,
	{ModuleWebSocket, "AuthnError"}:                    SpecificError,
	{ModuleWebSocket, "AuthzError"}:                    SpecificError,
	{ModuleHTTP, "Request"}:                            Request,
	{ModuleHTTP, "Caller"}:                             HTTPCaller,
	{ModuleHTTP, "Listener"}:                           HTTPListener,
	{ModuleHTTP, "Error"}:                              SpecificError,
}

var builtinCategories = map[string]Category{
	"string": Text,
	"int":    Int,
	"error":  GenericError,
}

// Classifier assigns categories to the type expressions of one file.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	res *Resolver
}

func NewClassifier(file *ast.File) *Classifier {
	if file == nil {
		return &Classifier{res: NewResolver(nil)}
	}
	return &Classifier{res: NewResolver(file.Imports)}
}

// Classify returns the category of t. It never fails.
func (c *Classifier) Classify(t ast.TypeExpr) Category {
	return fold(c.leaves(t, nil))
}

// Values returns the distinct value categories found in t, in order of
// appearance. Errors and unit are skipped.
func (c *Classifier) Values(t ast.TypeExpr) []Category {
	var seen Set
	out := make([]Category, 0, 2)
	for _, leaf := range c.leaves(t, nil) {
		if !leaf.IsValue() || seen.Has(leaf) {
			continue
		}
		seen |= SetOf(leaf)
		out = append(out, leaf)
	}
	return out
}

// Qualified renders a named type with its prefix replaced by the module it
// resolves to; other types render as written.
func (c *Classifier) Qualified(t ast.TypeExpr) string {
	if t.Kind == ast.TypeNamed {
		if mod, ok := c.res.Resolve(t.Prefix); ok {
			return mod + ":" + t.Name
		}
	}
	return t.String()
}

func (c *Classifier) leaves(t ast.TypeExpr, out []Category) []Category {
	switch t.Kind {
	case ast.TypeNil:
		return append(out, Unit)
	case ast.TypeBuiltin:
		if cat, ok := builtinCategories[t.Name]; ok {
			return append(out, cat)
		}
		return append(out, Unknown)
	case ast.TypeNamed:
		return append(out, c.named(t))
	case ast.TypeArray:
		if t.Elem != nil && t.Elem.Kind == ast.TypeBuiltin && t.Elem.Name == "byte" {
			return append(out, Binary)
		}
		return append(out, Unknown)
	case ast.TypeOptional:
		if t.Elem == nil {
			return append(out, Unknown)
		}
		return append(c.leaves(*t.Elem, out), Unit)
	case ast.TypeUnion:
		if len(t.Members) == 0 {
			return append(out, Unknown)
		}
		for _, m := range t.Members {
			out = c.leaves(m, out)
		}
		return out
	}
	return append(out, Unknown)
}

// named follows the prefix to its module before looking the type up, so an
// aliased reference classifies like the unaliased one.
func (c *Classifier) named(t ast.TypeExpr) Category {
	mod, ok := c.res.Resolve(t.Prefix)
	if !ok {
		return Unknown
	}
	if cat, ok := namedCategories[namedKey{module: mod, name: t.Name}]; ok {
		return cat
	}
	return Unknown
}

func fold(leaves []Category) Category {
	if len(leaves) == 0 {
		return Unknown
	}
	var (
		hasUnit     bool
		allSpecific = true
		errs        int
		values      Set
		valueCount  int
	)
	for _, leaf := range leaves {
		switch {
		case leaf == Unknown:
			return Unknown
		case leaf == Unit:
			hasUnit = true
		case leaf.IsError():
			errs++
			if leaf != SpecificError {
				allSpecific = false
			}
		default:
			if !values.Has(leaf) {
				valueCount++
			}
			values |= SetOf(leaf)
		}
	}

	switch {
	case valueCount == 0 && errs == 0:
		return Unit
	case valueCount == 0 && hasUnit:
		return ErrorOrUnit
	case valueCount == 0 && allSpecific:
		return SpecificError
	case valueCount == 0:
		return GenericError
	case errs > 0:
		return DomainErrorUnion
	case valueCount == 1 && !hasUnit:
		return values.Slice()[0]
	default:
		return DomainValue
	}
}
