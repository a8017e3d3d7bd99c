package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"wscheck/internal/ast"
	"wscheck/internal/diag"
	"wscheck/internal/source"
)

// Ext is the suffix of package description files.
const Ext = ".svc.yaml"

// Sources lists the description files of dir in lexical order.
func Sources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoSources)
	}
	slices.Sort(out)
	return out, nil
}

// LoadFile reads path into fs and decodes it.
func LoadFile(fs *source.FileSet, path string, r diag.Reporter) (*ast.File, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return Parse(fs.Get(id), r)
}

// Parse decodes a file already registered in a FileSet.
func Parse(file *source.File, r diag.Reporter) (*ast.File, error) {
	if r == nil {
		r = diag.NopReporter{}
	}
	root, err := decodeDocument(file)
	if err != nil {
		return nil, err
	}
	d := &decoder{file: file, reporter: r}
	out := &ast.File{ID: file.ID, Path: file.Path}
	d.document(root, out)
	return out, nil
}

// LoadDir loads every description file in dir into one package. The first
// unreadable or malformed file stops the load.
func LoadDir(fs *source.FileSet, dir, name string, r diag.Reporter) (*ast.Package, error) {
	paths, err := Sources(dir)
	if err != nil {
		return nil, err
	}
	pkg := &ast.Package{Name: name, Dir: dir}
	if pkg.Name == "" {
		pkg.Name = filepath.Base(dir)
	}
	for _, p := range paths {
		f, err := LoadFile(fs, p, r)
		if err != nil {
			return nil, err
		}
		pkg.Files = append(pkg.Files, f)
	}
	return pkg, nil
}
