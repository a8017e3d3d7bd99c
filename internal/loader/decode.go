package loader

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"wscheck/internal/ast"
	"wscheck/internal/diag"
	"wscheck/internal/source"
)

func decodeDocument(file *source.File) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(file.Content, &doc); err != nil {
		return nil, newSyntaxError(file.Path, err)
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0], nil
	}
	// empty document
	return nil, nil
}

type decoder struct {
	file     *source.File
	reporter diag.Reporter
}

func (d *decoder) span(n *yaml.Node) source.Span {
	if n == nil || n.Line <= 0 {
		return source.Span{File: d.file.ID}
	}
	width := len(n.Value)
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		width += 2
	}
	if n.Kind != yaml.ScalarNode {
		width = 1
	}
	pos := source.LineCol{Line: toU32(n.Line), Col: toU32(n.Column)}
	return d.file.SpanAt(pos, width)
}

// valueSpan points at the scalar text itself, inside any quotes.
func (d *decoder) valueSpan(n *yaml.Node) source.Span {
	sp := d.span(n)
	if n != nil && n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 && sp.Len() >= 2 {
		sp.Start++
		sp.End--
	}
	return sp
}

func (d *decoder) errorf(code diag.Code, n *yaml.Node, format string, args ...any) {
	diag.ReportError(d.reporter, code, d.span(n), fmt.Sprintf(format, args...)).Emit()
}

func (d *decoder) warnf(code diag.Code, n *yaml.Node, format string, args ...any) {
	diag.ReportWarning(d.reporter, code, d.span(n), fmt.Sprintf(format, args...)).Emit()
}

// fields indexes a mapping node and warns about keys outside known.
func (d *decoder) fields(n *yaml.Node, what string, known ...string) (map[string]*yaml.Node, bool) {
	if n == nil || n.Kind != yaml.MappingNode {
		d.errorf(diag.SynExpectMapping, n, "%s must be a mapping", what)
		return nil, false
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if !slices.Contains(known, key.Value) {
			d.warnf(diag.SynUnknownField, key, "unknown field '%s' in %s", key.Value, what)
			continue
		}
		out[key.Value] = val
	}
	return out, true
}

func (d *decoder) sequence(n *yaml.Node, what string) []*yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		d.errorf(diag.SynExpectSequence, n, "%s must be a list", what)
		return nil
	}
	return n.Content
}

// scalar returns the string value of m[key]; a missing required key is
// reported against owner.
func (d *decoder) scalar(m map[string]*yaml.Node, key string, owner *yaml.Node, what string, required bool) (string, *yaml.Node, bool) {
	n, ok := m[key]
	if !ok || (n.Kind == yaml.ScalarNode && n.Tag == "!!null") {
		if required {
			d.errorf(diag.SynMissingField, owner, "%s is missing required field '%s'", what, key)
		}
		return "", nil, false
	}
	if n.Kind != yaml.ScalarNode {
		d.errorf(diag.SynExpectScalar, n, "field '%s' of %s must be a scalar", key, what)
		return "", nil, false
	}
	return strings.TrimSpace(n.Value), n, true
}

func (d *decoder) ident(m map[string]*yaml.Node, key string, owner *yaml.Node, what string, required bool) (string, *yaml.Node, bool) {
	s, n, ok := d.scalar(m, key, owner, what, required)
	if !ok {
		return "", nil, false
	}
	return norm.NFC.String(s), n, true
}

func (d *decoder) typeExpr(n *yaml.Node, what string) (ast.TypeExpr, bool) {
	if n.Kind != yaml.ScalarNode {
		d.errorf(diag.SynExpectScalar, n, "%s must be a type string", what)
		return ast.TypeExpr{}, false
	}
	t, err := ParseType(n.Value, d.valueSpan(n))
	if err != nil {
		d.errorf(diag.SynBadTypeExpr, n, "%s: %v", what, err)
		return ast.TypeExpr{}, false
	}
	return t, true
}

func (d *decoder) document(root *yaml.Node, out *ast.File) {
	if root == nil {
		return
	}
	m, ok := d.fields(root, "package description", "imports", "listeners", "services")
	if !ok {
		return
	}
	d.imports(m["imports"], out)
	for _, n := range d.sequence(m["listeners"], "listeners") {
		if l, ok := d.listener(n); ok {
			out.Listeners = append(out.Listeners, l)
		}
	}
	for _, n := range d.sequence(m["services"], "services") {
		if s, ok := d.service(n); ok {
			out.Services = append(out.Services, s)
		}
	}
}

func (d *decoder) imports(n *yaml.Node, out *ast.File) {
	seen := make(map[string]bool)
	for _, item := range d.sequence(n, "imports") {
		var imp ast.Import
		if item.Kind == yaml.ScalarNode {
			imp = ast.Import{Module: strings.TrimSpace(item.Value), Span: d.span(item)}
		} else {
			m, ok := d.fields(item, "import", "module", "alias")
			if !ok {
				continue
			}
			mod, modNode, ok := d.scalar(m, "module", item, "import", true)
			if !ok {
				continue
			}
			alias, _, _ := d.ident(m, "alias", item, "import", false)
			imp = ast.Import{Module: mod, Alias: alias, Span: d.span(modNode)}
		}
		if imp.Module == "" {
			d.errorf(diag.SynMissingField, item, "import has an empty module path")
			continue
		}
		if seen[imp.Prefix()] {
			d.errorf(diag.SynDuplicateImport, item, "module prefix '%s' is imported twice", imp.Prefix())
			continue
		}
		seen[imp.Prefix()] = true
		out.Imports = append(out.Imports, imp)
	}
}

func (d *decoder) listener(n *yaml.Node) (ast.Listener, bool) {
	m, ok := d.fields(n, "listener", "name", "type", "arg")
	if !ok {
		return ast.Listener{}, false
	}
	name, nameNode, ok := d.ident(m, "name", n, "listener", true)
	if !ok {
		return ast.Listener{}, false
	}
	_, typNode, ok := d.scalar(m, "type", n, "listener", true)
	if !ok {
		return ast.Listener{}, false
	}
	typ, ok := d.typeExpr(typNode, "listener type")
	if !ok {
		return ast.Listener{}, false
	}
	l := ast.Listener{Name: name, Type: typ, Span: d.span(nameNode)}
	if argNode, ok := m["arg"]; ok {
		arg, ok := d.typeExpr(argNode, "listener argument")
		if !ok {
			return ast.Listener{}, false
		}
		l.Arg = &arg
	}
	return l, true
}

func (d *decoder) service(n *yaml.Node) (ast.Service, bool) {
	m, ok := d.fields(n, "service", "kind", "name", "path", "listener", "includes", "functions")
	if !ok {
		return ast.Service{}, false
	}
	kindStr, kindNode, ok := d.scalar(m, "kind", n, "service", true)
	if !ok {
		return ast.Service{}, false
	}
	svc := ast.Service{Span: d.span(kindNode)}
	switch kindStr {
	case "upgrade":
		svc.Kind = ast.ServiceUpgrade
	case "event":
		svc.Kind = ast.ServiceEvent
	default:
		d.errorf(diag.SynBadServiceKind, kindNode, "unknown service kind '%s' (want upgrade or event)", kindStr)
		return ast.Service{}, false
	}

	if name, nameNode, ok := d.ident(m, "name", n, "service", svc.Kind == ast.ServiceEvent); ok {
		svc.Name = name
		svc.Span = d.span(nameNode)
	} else if svc.Kind == ast.ServiceEvent {
		return ast.Service{}, false
	}
	if p, pathNode, ok := d.scalar(m, "path", n, "service", false); ok {
		svc.Path = p
		if svc.Name == "" {
			svc.Span = d.span(pathNode)
		}
	}

	if svc.Kind == ast.ServiceUpgrade {
		lis, lisNode, ok := d.scalar(m, "listener", n, "service", true)
		if !ok {
			return ast.Service{}, false
		}
		if strings.ContainsAny(lis, ":()|") {
			t, ok := d.typeExpr(lisNode, "inline listener")
			if !ok {
				return ast.Service{}, false
			}
			svc.ListenerType = &t
		} else {
			svc.Listener = norm.NFC.String(lis)
		}
	}

	for _, inc := range d.sequence(m["includes"], "includes") {
		if t, ok := d.typeExpr(inc, "included type"); ok {
			svc.Includes = append(svc.Includes, t)
		}
	}
	for _, fn := range d.sequence(m["functions"], "functions") {
		if f, ok := d.function(fn); ok {
			svc.Functions = append(svc.Functions, f)
		}
	}
	return svc, true
}

func (d *decoder) function(n *yaml.Node) (ast.Function, bool) {
	m, ok := d.fields(n, "function", "qualifier", "name", "method", "path", "params", "returns")
	if !ok {
		return ast.Function{}, false
	}
	fn := ast.Function{Span: d.span(n)}
	q, qNode, _ := d.scalar(m, "qualifier", n, "function", false)
	switch q {
	case "", "plain":
		fn.Qualifier = ast.QualPlain
	case "resource":
		fn.Qualifier = ast.QualResource
	case "remote":
		fn.Qualifier = ast.QualRemote
	default:
		d.errorf(diag.SynBadQualifier, qNode, "unknown qualifier '%s' (want resource, remote or plain)", q)
		return ast.Function{}, false
	}

	if fn.Qualifier == ast.QualResource {
		method, methodNode, ok := d.ident(m, "method", n, "resource function", true)
		if !ok {
			return ast.Function{}, false
		}
		fn.Method = strings.ToLower(method)
		fn.NameSpan = d.span(methodNode)
		fn.Path = "."
		if p, _, ok := d.scalar(m, "path", n, "function", false); ok && p != "" {
			fn.Path = p
		}
		if name, _, ok := d.ident(m, "name", n, "function", false); ok {
			fn.Name = name
		}
	} else {
		name, nameNode, ok := d.ident(m, "name", n, "function", true)
		if !ok {
			return ast.Function{}, false
		}
		fn.Name = name
		fn.NameSpan = d.span(nameNode)
		if methodNode, ok := m["method"]; ok {
			d.warnf(diag.SynUnknownField, methodNode, "'method' is only meaningful on resource functions")
		}
	}

	for _, pn := range d.sequence(m["params"], "params") {
		if p, ok := d.param(pn); ok {
			fn.Params = append(fn.Params, p)
		}
	}
	if retNode, ok := m["returns"]; ok && !(retNode.Kind == yaml.ScalarNode && retNode.Tag == "!!null") {
		t, ok := d.typeExpr(retNode, "return type")
		if !ok {
			return ast.Function{}, false
		}
		fn.Returns = &t
		fn.ReturnSpan = d.valueSpan(retNode)
	}
	return fn, true
}

func (d *decoder) param(n *yaml.Node) (ast.Param, bool) {
	m, ok := d.fields(n, "parameter", "name", "type", "optional")
	if !ok {
		return ast.Param{}, false
	}
	name, nameNode, ok := d.ident(m, "name", n, "parameter", true)
	if !ok {
		return ast.Param{}, false
	}
	_, typNode, ok := d.scalar(m, "type", n, "parameter", true)
	if !ok {
		return ast.Param{}, false
	}
	typ, ok := d.typeExpr(typNode, "parameter type")
	if !ok {
		return ast.Param{}, false
	}
	p := ast.Param{Name: name, Type: typ, Span: d.span(nameNode).Cover(d.valueSpan(typNode))}
	if optNode, ok := m["optional"]; ok {
		if err := optNode.Decode(&p.Optional); err != nil {
			d.errorf(diag.SynExpectScalar, optNode, "field 'optional' must be a boolean")
			return ast.Param{}, false
		}
	}
	return p, true
}

func toU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}
