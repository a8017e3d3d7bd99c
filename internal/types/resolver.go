package types

import (
	"wscheck/internal/ast"
)

// Canonical module paths the classifier knows about.
const (
	ModuleWebSocket = "ballerina/websocket"
	ModuleHTTP      = "ballerina/http"
)

// Resolver maps the module prefixes usable inside one file to the modules
// they stand for. A later import with the same prefix wins, matching the
// loader which reports duplicates separately.
type Resolver struct {
	prefixes map[string]string
}

func NewResolver(imports []ast.Import) *Resolver {
	r := &Resolver{prefixes: make(map[string]string, len(imports))}
	for _, imp := range imports {
		r.prefixes[imp.Prefix()] = imp.Module
	}
	return r
}

// Resolve follows a prefix to its defining module.
func (r *Resolver) Resolve(prefix string) (string, bool) {
	if r == nil || prefix == "" {
		return "", false
	}
	mod, ok := r.prefixes[prefix]
	return mod, ok
}
