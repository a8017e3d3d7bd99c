package check

import (
	"fmt"
	"strings"

	"wscheck/internal/ast"
	"wscheck/internal/contract"
	"wscheck/internal/diag"
	"wscheck/internal/source"
	"wscheck/internal/types"
)

type checker struct {
	pkg      *ast.Package
	reporter diag.Reporter

	// per file
	file *ast.File
	cls  *types.Classifier
}

// Package runs the upgrade and event validators over every service of pkg,
// file by file, in declaration order.
func Package(pkg *ast.Package, r diag.Reporter) {
	if pkg == nil || r == nil {
		return
	}
	c := &checker{pkg: pkg, reporter: r}
	for _, f := range pkg.Files {
		c.enterFile(f)
		for i := range f.Services {
			c.service(&f.Services[i])
		}
	}
}

// File validates a single file in isolation; listeners are looked up in f only.
func File(f *ast.File, r diag.Reporter) {
	if f == nil {
		return
	}
	Package(&ast.Package{Files: []*ast.File{f}}, r)
}

func (c *checker) enterFile(f *ast.File) {
	c.file = f
	c.cls = types.NewClassifier(f)
}

func (c *checker) service(svc *ast.Service) {
	switch svc.Kind {
	case ast.ServiceUpgrade:
		c.validateUpgradeService(svc)
	case ast.ServiceEvent:
		c.validateEventHandlers(svc)
	}
}

// violation reports the template of (kind, v) at sp.
func (c *checker) violation(kind contract.EventKind, v contract.Violation, sp source.Span) *diag.ReportBuilder {
	t := contract.MustMessage(kind, v)
	return diag.ReportError(c.reporter, diag.WSContract, sp, t.Text)
}

func (c *checker) args(fn *ast.Function) []contract.Arg {
	out := make([]contract.Arg, len(fn.Params))
	for i, p := range fn.Params {
		out[i] = contract.Arg{Category: c.cls.Classify(p.Type), Optional: p.Optional}
	}
	return out
}

// checkParams applies the parameter rule of ct to fn. A single offending
// parameter is pointed at directly; list violations point at the function.
func (c *checker) checkParams(ct contract.Contract, fn *ast.Function) {
	args := c.args(fn)
	v := ct.Params.Check(args)
	if v == contract.ViolationNone {
		return
	}
	if len(fn.Params) == 1 {
		p := fn.Params[0]
		b := c.violation(ct.Kind, v, p.Span).
			WithNote(p.Span, fmt.Sprintf("parameter '%s' has type %s (%s)", p.Name, c.cls.Qualified(p.Type), args[0].Category))
		if p.Optional {
			b.WithNote(p.Span, fmt.Sprintf("parameter '%s' must not have a default value", p.Name))
		}
		b.Emit()
		return
	}
	b := c.violation(ct.Kind, v, fn.NameSpan)
	if len(fn.Params) == 0 {
		b.WithNote(fn.NameSpan, fmt.Sprintf("'%s' declares no parameters", fn.DisplayName()))
	}
	b.WithNote(fn.NameSpan, "accepted: "+strings.Join(ct.Params.Describe(), ", ")).Emit()
}

// checkReturn applies the return rule of ct to fn; no return type is unit.
func (c *checker) checkReturn(ct contract.Contract, fn *ast.Function) {
	cat, values := types.Unit, []types.Category(nil)
	if fn.Returns != nil {
		cat = c.cls.Classify(*fn.Returns)
		values = c.cls.Values(*fn.Returns)
	}
	if ct.Return.Accepts(cat, values) {
		return
	}
	sp := fn.ReturnSpan
	if fn.Returns == nil || sp.Empty() {
		sp = fn.NameSpan
	}
	typ := "()"
	if fn.Returns != nil {
		typ = fn.Returns.String()
	}
	c.violation(ct.Kind, contract.ViolationReturn, sp).
		WithNote(sp, fmt.Sprintf("'%s' returns %s (%s)", fn.DisplayName(), typ, cat)).
		Emit()
}
