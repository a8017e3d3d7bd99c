package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"wscheck/internal/loader"
	"wscheck/internal/source"
	"wscheck/internal/trace"
)

// DirResult collects the packages found under one root.
type DirResult struct {
	FileSet  *source.FileSet
	Packages []*PackageResult
}

// HasErrors reports whether any package carries an error diagnostic.
func (r *DirResult) HasErrors() bool {
	for _, p := range r.Packages {
		if p != nil && p.Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Diagnostics counts diagnostics across packages.
func (r *DirResult) Diagnostics() int {
	n := 0
	for _, p := range r.Packages {
		if p != nil {
			n += p.Bag.Len()
		}
	}
	return n
}

// ListPackages returns every directory under root that holds at least one
// description file, sorted. Hidden directories are skipped.
func ListPackages(root string) ([]string, error) {
	seen := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, loader.Ext) {
			seen[filepath.Dir(path)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	// Сортируем для детерминированного порядка
	sort.Strings(dirs)
	return dirs, nil
}

// DiagnoseDir validates every package under root in parallel. Each package
// gets its own bag; results keep the sorted package order regardless of
// scheduling.
func DiagnoseDir(ctx context.Context, root string, opts Options) (*DirResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "diagnose-dir")
	defer span.End("")

	_, discover := trace.Start(ctx, trace.ScopePass, "discover")
	dirs, err := ListPackages(root)
	discover.WithExtra("packages", fmt.Sprint(len(dirs))).End("")
	if err != nil {
		return nil, err
	}

	fileSet := source.NewFileSetWithBase(root)
	out := &DirResult{FileSet: fileSet}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%s: %w", root, loader.ErrNoSources)
	}
	for _, dir := range dirs {
		opts.emit(Event{Dir: dir, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]*PackageResult, len(dirs))

	checkCtx, checkSpan := trace.Start(ctx, trace.ScopePass, "check")
	g, gctx := errgroup.WithContext(checkCtx)
	g.SetLimit(min(jobs, len(dirs)))
	for i, dir := range dirs {
		g.Go(func() error {
			res, err := Diagnose(gctx, fileSet, dir, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", dir, err)
			}
			results[i] = res
			return nil
		})
	}
	err = g.Wait()
	checkSpan.End("")
	if err != nil {
		return nil, err
	}
	out.Packages = results
	return out, nil
}
