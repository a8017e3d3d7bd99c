package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fortio.org/safecast"

	"wscheck/internal/ast"
	"wscheck/internal/check"
	"wscheck/internal/diag"
	"wscheck/internal/loader"
	"wscheck/internal/observ"
	"wscheck/internal/project"
	"wscheck/internal/source"
	"wscheck/internal/trace"
)

// PackageResult is the outcome of validating one package directory.
type PackageResult struct {
	Dir     string
	Name    string
	Package *ast.Package // nil when served from the cache
	Bag     *diag.Bag
	Cached  bool
	Timing  *observ.Report
}

// Diagnose loads and validates the package in dir. Unreadable or malformed
// files become diagnostics on the package; only directory-level failures
// (nothing to load, unreadable directory, cancellation) return an error.
func Diagnose(ctx context.Context, fs *source.FileSet, dir string, opts Options) (*PackageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()
	name := packageName(dir, opts.Manifest)
	ctx, span := trace.Start(trace.WithPackage(ctx, name), trace.ScopePackage, "package:"+name)

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}

	opts.emit(Event{Dir: dir, Status: StatusLoading})
	paths, err := loader.Sources(dir)
	if err != nil {
		span.End(err.Error())
		opts.emit(Event{Dir: dir, Status: StatusFailed, Err: err, Elapsed: time.Since(started)})
		return nil, err
	}

	res := &PackageResult{Dir: dir, Name: name, Bag: diag.NewBag(opts.MaxDiagnostics)}
	reporter := diag.BagReporter{Bag: res.Bag}

	// Read every file first: the cache key covers their content.
	var ids []source.FileID
	timer.Measure("read", func() string {
		ids = readSources(fs, paths, reporter)
		return fmt.Sprintf("files=%d", len(ids))
	})
	key := cacheKey(fs, ids, opts.Manifest)

	if opts.Cache != nil && len(ids) == len(paths) {
		var payload DiskPayload
		if ok, err := opts.Cache.Get(key, &payload); err == nil && ok {
			if restoreDiagnostics(fs, &payload, ids, reporter) {
				res.Cached = true
				trace.Point(ctx, trace.ScopePackage, "cache", "hit")
			}
		}
	}

	if !res.Cached {
		pkg := &ast.Package{Name: name, Dir: dir}
		timer.Measure("parse", func() string {
			for _, id := range ids {
				f, err := loader.Parse(fs.Get(id), reporter)
				if err != nil {
					reportLoadError(fs, reporter, fs.Get(id).Path, err)
					continue
				}
				pkg.Files = append(pkg.Files, f)
			}
			return fmt.Sprintf("files=%d", len(pkg.Files))
		})
		opts.emit(Event{Dir: dir, Status: StatusChecking})
		timer.Measure("check", func() string {
			before := res.Bag.Len()
			check.Package(pkg, reporter)
			traceServices(ctx, pkg)
			return fmt.Sprintf("diags=%d", res.Bag.Len()-before)
		})
		res.Package = pkg
		if opts.Cache != nil && len(ids) == len(paths) && res.Bag.Dropped() == 0 {
			if err := opts.Cache.Put(key, payloadFor(fs, name, ids, res.Bag)); err != nil {
				trace.Point(ctx, trace.ScopePackage, "cache", "put failed: "+err.Error())
			}
		}
	}

	applySeverityPolicy(res.Bag, opts)

	if timer != nil {
		report := timer.Report()
		res.Timing = &report
		appendTimingDiagnostic(res.Bag, timingPayload{
			Kind:    "package",
			Path:    dir,
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		})
	}

	span.WithExtra("diags", fmt.Sprint(res.Bag.Len())).End("")
	opts.emit(Event{Dir: dir, Status: StatusDone, Diags: res.Bag.Len(), Cached: res.Cached, Elapsed: time.Since(started)})
	return res, nil
}

func packageName(dir string, m *project.Manifest) string {
	if m != nil && m.Config.Package.Name != "" {
		if abs, err := filepath.Abs(dir); err == nil && abs == m.Root {
			return m.Config.Package.Name
		}
	}
	return filepath.Base(dir)
}

func readSources(fs *source.FileSet, paths []string, r diag.Reporter) []source.FileID {
	ids := make([]source.FileID, 0, len(paths))
	for _, p := range paths {
		id, err := fs.Load(p)
		if err != nil {
			reportLoadError(fs, r, p, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// reportLoadError turns a per-file failure into a diagnostic so the rest of
// the package is still checked.
func reportLoadError(fs *source.FileSet, r diag.Reporter, path string, err error) {
	var se *loader.SyntaxError
	if errors.As(err, &se) {
		sp := source.Span{}
		line, convErr := safecast.Conv[uint32](se.Line)
		if id, ok := fs.GetLatest(path); ok && convErr == nil && line > 0 {
			sp = fs.Get(id).SpanAt(source.LineCol{Line: line, Col: 1}, len(fs.Get(id).GetLine(line)))
		}
		diag.ReportError(r, diag.SynMalformedYAML, sp, "malformed package description: "+se.Msg).
			WithNote(sp, se.Path).
			Emit()
		return
	}
	diag.ReportError(r, diag.IOLoadFileError, source.Span{}, fmt.Sprintf("failed to load %s: %v", path, err)).Emit()
}

func applySeverityPolicy(bag *diag.Bag, opts Options) {
	warningsAsErrors := opts.WarningsAsErrors
	if opts.Manifest != nil && opts.Manifest.Config.Check.WarningsAsErrors {
		warningsAsErrors = true
	}
	if opts.IgnoreWarnings {
		bag.Filter(func(d diag.Diagnostic) bool {
			return d.Severity != diag.SevWarning && d.Severity != diag.SevInfo
		})
	}
	if warningsAsErrors {
		// severity only; emission order is kept
		bag.Transform(func(d diag.Diagnostic) diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
			return d
		})
	}
}

func traceServices(ctx context.Context, pkg *ast.Package) {
	if !trace.FromContext(ctx).Level().ShouldEmit(trace.ScopeService) {
		return
	}
	for _, f := range pkg.Files {
		for i := range f.Services {
			svc := &f.Services[i]
			trace.Point(ctx, trace.ScopeService, "service:"+svc.DisplayName(),
				fmt.Sprintf("%s, %d functions", svc.Kind, len(svc.Functions)))
		}
	}
}
