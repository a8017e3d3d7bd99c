package check

import (
	"fmt"

	"wscheck/internal/ast"
	"wscheck/internal/contract"
	"wscheck/internal/types"
)

// validateEventHandlers checks the functions of a service class that
// includes websocket:Service. Remote functions must be recognised events
// whose parameters and return type follow the event contract; resource
// functions are not accepted; plain functions are helpers and skipped.
func (c *checker) validateEventHandlers(svc *ast.Service) {
	if !c.includesService(svc) {
		return
	}
	for i := range svc.Functions {
		fn := &svc.Functions[i]
		switch fn.Qualifier {
		case ast.QualResource:
			c.violation(contract.EventUpgrade, contract.ViolationQualifier, fn.NameSpan).
				WithNote(fn.NameSpan, fmt.Sprintf("resource function '%s' in service class '%s'", fn.DisplayName(), svc.DisplayName())).
				Emit()
		case ast.QualRemote:
			kind, ok := contract.LookupEvent(fn.Name)
			if !ok {
				c.violation(contract.EventUpgrade, contract.ViolationQualifier, fn.NameSpan).
					WithNote(fn.NameSpan, fmt.Sprintf("'%s' is not a WebSocket event", fn.Name)).
					Emit()
				continue
			}
			c.eventHandler(kind, fn)
		}
	}
}

func (c *checker) eventHandler(kind contract.EventKind, fn *ast.Function) {
	ct, _ := contract.For(kind)
	c.checkParams(ct, fn)
	c.checkReturn(ct, fn)
}

func (c *checker) includesService(svc *ast.Service) bool {
	for _, inc := range svc.Includes {
		if c.cls.Classify(inc) == types.Service {
			return true
		}
	}
	return false
}
