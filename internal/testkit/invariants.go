package testkit

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"wscheck/internal/ast"
	"wscheck/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) every declaration span is non-empty, points into sf and ends within its content
// 2) imports, listeners, services, functions and params appear in source order
// 3) a function's name span covers its name (the method for resources)
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	if f.ID != sf.ID {
		return fmt.Errorf("file id mismatch: got=%d want=%d", f.ID, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	check := func(what string, sp source.Span) error {
		if sp.End <= sp.Start {
			return fmt.Errorf("%s: empty span %v", what, sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("%s: span file mismatch: got=%d want=%d", what, sp.File, sf.ID)
		}
		if sp.End > lenContent {
			return fmt.Errorf("%s: span end beyond content: %d > %d", what, sp.End, lenContent)
		}
		return nil
	}
	var prev source.Span
	ordered := func(what string, sp source.Span) error {
		if err := check(what, sp); err != nil {
			return err
		}
		if prev.Known() && sp.Start < prev.Start {
			return fmt.Errorf("%s: span %v starts before previous %v", what, sp, prev)
		}
		prev = sp
		return nil
	}

	for _, imp := range f.Imports {
		if err := ordered("import "+imp.Module, imp.Span); err != nil {
			return err
		}
	}
	prev = source.Span{}
	for _, l := range f.Listeners {
		if err := ordered("listener "+l.Name, l.Span); err != nil {
			return err
		}
	}
	prev = source.Span{}
	for i := range f.Services {
		svc := &f.Services[i]
		if err := ordered("service "+svc.DisplayName(), svc.Span); err != nil {
			return err
		}
		if err := checkFunctions(svc, sf, check); err != nil {
			return err
		}
	}
	return nil
}

func checkFunctions(svc *ast.Service, sf *source.File, check func(string, source.Span) error) error {
	var prevFn source.Span
	for i := range svc.Functions {
		fn := &svc.Functions[i]
		what := svc.DisplayName() + "." + fn.DisplayName()
		if err := check(what, fn.Span); err != nil {
			return err
		}
		if prevFn.Known() && fn.Span.Start < prevFn.Start {
			return fmt.Errorf("%s: function out of order", what)
		}
		prevFn = fn.Span

		if err := check(what+" name", fn.NameSpan); err != nil {
			return err
		}
		text := strings.Trim(string(sf.Content[fn.NameSpan.Start:fn.NameSpan.End]), `"'`)
		want := fn.Name
		if fn.Qualifier == ast.QualResource {
			want = fn.Method
		}
		if !strings.EqualFold(text, want) {
			return fmt.Errorf("%s: name span covers %q", what, text)
		}

		var prevParam source.Span
		for _, p := range fn.Params {
			if err := check(what+" param "+p.Name, p.Span); err != nil {
				return err
			}
			if prevParam.Known() && p.Span.Start < prevParam.End {
				return fmt.Errorf("%s: param %s overlaps the previous one", what, p.Name)
			}
			prevParam = p.Span
		}
		if fn.Returns != nil {
			if err := check(what+" returns", fn.ReturnSpan); err != nil {
				return err
			}
		}
	}
	return nil
}
