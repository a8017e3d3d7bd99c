package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"wscheck/internal/diag"
	"wscheck/internal/project"
	"wscheck/internal/source"
)

// Current schema version - increment when DiskPayload format or the
// contract table changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты проверки пакетов по хешу содержимого.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached outcome of one package.
type DiskPayload struct {
	Schema uint16

	Name       string
	FilePaths  []string
	FileHashes []project.Digest

	Diagnostics []CachedDiagnostic
}

// CachedDiagnostic stores spans as byte offsets into a file named by index
// into DiskPayload.FilePaths; -1 means no location.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Format   string
	Message  string
	File     int
	Start    uint32
	End      uint32
	Notes    []CachedNote
}

type CachedNote struct {
	File  int
	Start uint32
	End   uint32
	Msg   string
}

// OpenDiskCache initializes a disk cache under $XDG_CACHE_HOME/app.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt uses dir as the cache root.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "pkgs", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) error {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	// after a successful rename the temp name is gone and Remove is a no-op
	defer func() { _ = os.Remove(tmp) }()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads and deserializes a payload from the disk cache. Payloads of
// another schema version are reported as misses.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// cacheKey: H( schema || manifest || file1 || file2 ... ) in load order.
func cacheKey(fs *source.FileSet, ids []source.FileID, m *project.Manifest) project.Digest {
	parts := make([]project.Digest, 0, len(ids)+1)
	if m != nil {
		parts = append(parts, m.Digest)
	}
	for _, id := range ids {
		f := fs.Get(id)
		parts = append(parts, project.Sum([]byte(f.Path)), project.Digest(f.Hash))
	}
	schema := project.Sum([]byte(fmt.Sprintf("wscheck-cache-v%d", diskCacheSchemaVersion)))
	return project.Combine(schema, parts...)
}

func payloadFor(fs *source.FileSet, name string, ids []source.FileID, bag *diag.Bag) *DiskPayload {
	p := &DiskPayload{
		Schema:     diskCacheSchemaVersion,
		Name:       name,
		FilePaths:  make([]string, len(ids)),
		FileHashes: make([]project.Digest, len(ids)),
	}
	index := make(map[source.FileID]int, len(ids))
	for i, id := range ids {
		f := fs.Get(id)
		p.FilePaths[i] = f.Path
		p.FileHashes[i] = project.Digest(f.Hash)
		index[id] = i
	}
	fileOf := func(sp source.Span) int {
		if i, ok := index[sp.File]; ok && sp.Known() {
			return i
		}
		return -1
	}
	for _, d := range bag.Items() {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Format:   d.Format,
			Message:  d.Message,
			File:     fileOf(d.Primary),
			Start:    d.Primary.Start,
			End:      d.Primary.End,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{File: fileOf(n.Span), Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		p.Diagnostics = append(p.Diagnostics, cd)
	}
	return p
}

// restoreDiagnostics replays a cached outcome against the freshly loaded
// files. It refuses payloads whose file list does not match.
func restoreDiagnostics(fs *source.FileSet, p *DiskPayload, ids []source.FileID, r diag.Reporter) bool {
	if len(p.FilePaths) != len(ids) {
		return false
	}
	for i, id := range ids {
		f := fs.Get(id)
		if f.Path != p.FilePaths[i] || project.Digest(f.Hash) != p.FileHashes[i] {
			return false
		}
	}
	spanOf := func(file int, start, end uint32) source.Span {
		if file < 0 || file >= len(ids) {
			return source.Span{}
		}
		return source.Span{File: ids[file], Start: start, End: end}
	}
	for _, cd := range p.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Format:   cd.Format,
			Message:  cd.Message,
			Primary:  spanOf(cd.File, cd.Start, cd.End),
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: spanOf(n.File, n.Start, n.End), Msg: n.Msg})
		}
		r.Report(d)
	}
	return true
}
