package check

import (
	"fmt"

	"wscheck/internal/ast"
	"wscheck/internal/contract"
	"wscheck/internal/diag"
	"wscheck/internal/types"
)

// validateUpgradeService checks a listener-attached service. It must expose
// exactly one entry function, a `get` resource accepting at most one request
// parameter and returning a websocket:Service, an error or nil.
func (c *checker) validateUpgradeService(svc *ast.Service) {
	if !c.onWebSocketListener(svc) {
		return
	}

	var entries []*ast.Function
	for i := range svc.Functions {
		if svc.Functions[i].IsEntry() {
			entries = append(entries, &svc.Functions[i])
		}
	}
	if len(entries) != 1 {
		b := c.violation(contract.EventUpgrade, contract.ViolationCardinality, svc.Span)
		for _, fn := range entries {
			b.WithNote(fn.NameSpan, fmt.Sprintf("%s function '%s'", fn.Qualifier, fn.DisplayName()))
		}
		b.Emit()
		return
	}

	ct, _ := contract.For(contract.EventUpgrade)
	fn := entries[0]
	if fn.Qualifier != ct.Qualifier || fn.Method != ct.Method {
		c.violation(contract.EventUpgrade, contract.ViolationQualifier, fn.NameSpan).
			WithNote(fn.NameSpan, fmt.Sprintf("expected a %s function with the '%s' accessor", ct.Qualifier, ct.Method)).
			Emit()
		return
	}
	c.checkParams(ct, fn)
	c.checkReturn(ct, fn)
}

// onWebSocketListener resolves the listener of svc and reports whether it is a
// websocket:Listener. An unknown listener name is reported as a warning.
func (c *checker) onWebSocketListener(svc *ast.Service) bool {
	if svc.ListenerType != nil {
		return c.cls.Classify(*svc.ListenerType) == types.WSListener
	}
	l, f, ok := c.pkg.FindListener(svc.Listener)
	if !ok {
		diag.ReportWarning(c.reporter, diag.ProjUnknownListener, svc.Span,
			fmt.Sprintf("service '%s' is attached to unknown listener '%s'", svc.DisplayName(), svc.Listener)).
			Emit()
		return false
	}
	// The listener may be declared in another file with its own imports.
	cls := c.cls
	if f != c.file {
		cls = types.NewClassifier(f)
	}
	return cls.Classify(l.Type) == types.WSListener
}
