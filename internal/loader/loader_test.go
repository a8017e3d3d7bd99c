package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wscheck/internal/ast"
	"wscheck/internal/diag"
	"wscheck/internal/source"
	"wscheck/internal/testkit"
)

const chatYAML = `imports:
  - module: ballerina/websocket
    alias: ws
  - ballerina/http
listeners:
  - name: wsl
    type: ws:Listener
    arg: http:Listener
services:
  - kind: upgrade
    path: /chat
    listener: wsl
    functions:
      - qualifier: resource
        method: GET
        params:
          - {name: req, type: http:Request}
        returns: ws:Service|ws:UpgradeError
  - kind: event
    name: ChatService
    includes: [ws:Service]
    functions:
      - qualifier: remote
        name: onText
        params:
          - {name: caller, type: ws:Caller}
          - {name: data, type: string, optional: true}
        returns: "string|error?"
      - name: helper
`

func parse(t *testing.T, content string) (*ast.File, *diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("chat.svc.yaml", []byte(content))
	bag := diag.NewBag(0)
	f, err := Parse(fs.Get(id), diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	return f, bag, fs
}

func TestParseChat(t *testing.T) {
	f, bag, fs := parse(t, chatYAML)
	assert.Zero(t, bag.Len(), "%v", bag.Items())
	require.NoError(t, testkit.CheckSpanInvariants(f, fs.Get(f.ID)))

	require.Len(t, f.Imports, 2)
	assert.Equal(t, "ws", f.Imports[0].Prefix())
	assert.Equal(t, "http", f.Imports[1].Prefix())

	require.Len(t, f.Listeners, 1)
	l := f.Listeners[0]
	assert.Equal(t, "ws:Listener", l.Type.String())
	require.NotNil(t, l.Arg)
	assert.Equal(t, "http:Listener", l.Arg.String())

	require.Len(t, f.Services, 2)
	up := f.Services[0]
	assert.Equal(t, ast.ServiceUpgrade, up.Kind)
	assert.Equal(t, "/chat", up.Path)
	assert.Equal(t, "wsl", up.Listener)
	require.Len(t, up.Functions, 1)
	res := up.Functions[0]
	assert.Equal(t, ast.QualResource, res.Qualifier)
	assert.Equal(t, "get", res.Method)
	assert.Equal(t, ".", res.Path)
	assert.Equal(t, "ws:Service|ws:UpgradeError", res.Returns.String())

	start, _ := fs.Resolve(res.NameSpan)
	assert.Equal(t, source.LineCol{Line: 15, Col: 17}, start)
	start, _ = fs.Resolve(res.ReturnSpan)
	assert.Equal(t, source.LineCol{Line: 18, Col: 18}, start)

	ev := f.Services[1]
	assert.Equal(t, ast.ServiceEvent, ev.Kind)
	assert.Equal(t, "ChatService", ev.Name)
	require.Len(t, ev.Includes, 1)
	require.Len(t, ev.Functions, 2)
	onText := ev.Functions[0]
	assert.Equal(t, ast.QualRemote, onText.Qualifier)
	require.Len(t, onText.Params, 2)
	assert.True(t, onText.Params[1].Optional)
	assert.Equal(t, "string|error?", onText.Returns.String())
	start, _ = fs.Resolve(onText.ReturnSpan)
	assert.Equal(t, source.LineCol{Line: 28, Col: 19}, start, "quotes are not part of the type")
	assert.Equal(t, ast.QualPlain, ev.Functions[1].Qualifier)
}

func TestInlineListener(t *testing.T) {
	f, bag, _ := parse(t, `imports: [ballerina/websocket]
services:
  - kind: upgrade
    listener: websocket:Listener
`)
	assert.Zero(t, bag.Len())
	require.Len(t, f.Services, 1)
	require.NotNil(t, f.Services[0].ListenerType)
	assert.Empty(t, f.Services[0].Listener)
}

func TestSchemaProblemsAreReported(t *testing.T) {
	f, bag, _ := parse(t, `imports:
  - ballerina/websocket
  - module: acme/websocket
listeners:
  - name: l
services:
  - kind: weird
  - kind: event
    name: S
    colour: blue
    functions:
      - qualifier: private
        name: x
      - qualifier: remote
        name: onOpen
        returns: "string|"
`)
	codes := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []diag.Code{
		diag.SynDuplicateImport,
		diag.SynMissingField,
		diag.SynBadServiceKind,
		diag.SynUnknownField,
		diag.SynBadQualifier,
		diag.SynBadTypeExpr,
	}, codes)
	require.Len(t, f.Services, 1)
	assert.Empty(t, f.Services[0].Functions)
	assert.True(t, bag.HasWarnings())
}

func TestMalformedYAML(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("bad.svc.yaml", []byte("services:\n  a: b: c\n"))
	_, err := Parse(fs.Get(id), nil)
	require.Error(t, err)
	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "bad.svc.yaml", se.Path)
	assert.Positive(t, se.Line)
}

func TestEmptyDocument(t *testing.T) {
	f, bag, _ := parse(t, "")
	assert.Zero(t, bag.Len())
	assert.Empty(t, f.Services)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.svc.yaml"), []byte(chatYAML), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.svc.yaml"), []byte("imports: [ballerina/http]\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("x: 1\n"), 0o600))

	fs := source.NewFileSet()
	pkg, err := LoadDir(fs, dir, "", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), pkg.Name)
	require.Len(t, pkg.Files, 2)
	assert.Equal(t, "a.svc.yaml", filepath.Base(pkg.Files[0].Path))

	_, err = LoadDir(fs, t.TempDir(), "x", nil)
	assert.ErrorIs(t, err, ErrNoSources)
}
