package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"wscheck/internal/diag"
	"wscheck/internal/source"
)

const serviceYAML = "services:\n  - kind: upgrade\n    functions:\n      - qualifier: resource\n        method: post\n"

// methodSpan points at "post" on line 5.
func methodSpan(fs *source.FileSet, id source.FileID) source.Span {
	return fs.Get(id).SpanAt(source.LineCol{Line: 5, Col: 17}, 4)
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/home/user/project/chat/service.svc.yaml", []byte(serviceYAML))
	fs.SetBaseDir("/home/user/project")

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.WSContract, methodSpan(fs, fileID), "function is not accepted by the WebSocket service"))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/chat/service.svc.yaml:5:17"},
		{"Relative path", PathModeRelative, "chat/service.svc.yaml:5:17"},
		{"Basename only", PathModeBasename, "service.svc.yaml:5:17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR WS_101") {
				t.Errorf("Expected severity and code in output, got:\n%s", output)
			}
			if !strings.Contains(output, "not accepted") {
				t.Error("Expected error message in output")
			}
		})
	}
}

// TestPrettyExcerpt проверяет контекст и подчёркивание
func TestPrettyExcerpt(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("service.svc.yaml", []byte(serviceYAML))

	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.WSContract, methodSpan(fs, fileID), "bad method"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename})
	lines := strings.Split(buf.String(), "\n")

	want := []string{
		"service.svc.yaml:5:17: ERROR WS_101: bad method",
		" 4 |       - qualifier: resource",
		" 5 |         method: post",
		"  |                 ^~~~",
		" 6 | ",
	}
	if len(lines) < len(want) {
		t.Fatalf("output too short:\n%s", buf.String())
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: want %q, got %q", i, w, lines[i])
		}
	}
}

func TestPrettyNotes(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("service.svc.yaml", []byte(serviceYAML))

	d := diag.NewError(diag.WSContract, methodSpan(fs, fileID), "bad method").
		WithNote(methodSpan(fs, fileID), "expected a resource function with the 'get' accessor").
		WithNote(source.Span{}, "accepted: get")
	bag := diag.NewBag(0)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note:") {
		t.Fatalf("notes must be hidden by default, got:\n%s", buf.String())
	}

	buf.Reset()
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	output := buf.String()
	if !strings.Contains(output, "note: service.svc.yaml:5:17: expected a resource function") {
		t.Fatalf("expected note with location, got:\n%s", output)
	}
	if !strings.Contains(output, "note: accepted: get") {
		t.Fatalf("expected note without location, got:\n%s", output)
	}
}

func TestPrettyWithoutLocation(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load a.svc.yaml"))
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "dropped"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	output := buf.String()
	if !strings.HasPrefix(output, "ERROR IO4001: failed to load a.svc.yaml\n") {
		t.Fatalf("unexpected output:\n%s", output)
	}
	if !strings.Contains(output, "1 more diagnostics not shown") {
		t.Fatalf("expected dropped counter, got:\n%s", output)
	}
}

func TestPrettyKeepsEmissionOrder(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("service.svc.yaml", []byte(serviceYAML))

	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.WSContract, methodSpan(fs, fileID), "second by position"))
	bag.Add(diag.NewError(diag.WSContract, source.Span{File: fileID, Start: 0, End: 8}, "first by position"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	output := buf.String()
	if strings.Index(output, "second by position") > strings.Index(output, "first by position") {
		t.Fatalf("pretty output reordered diagnostics:\n%s", output)
	}
}

func TestPrettyWidth(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("long.svc.yaml", []byte("returns: websocket:Service|websocket:UpgradeError|error\n"))

	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.WSContract, source.Span{File: fileID, Start: 9, End: 26}, "bad return"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Width: 20})
	if !strings.Contains(buf.String(), "returns: websocke...") {
		t.Fatalf("expected clipped line, got:\n%s", buf.String())
	}
}

func TestUnderline(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		start, end source.LineCol
		pad, width int
	}{
		{"plain", "method: post", source.LineCol{Line: 1, Col: 9}, source.LineCol{Line: 1, Col: 13}, 8, 4},
		{"tab", "\tpost", source.LineCol{Line: 1, Col: 2}, source.LineCol{Line: 1, Col: 6}, tabWidth, 4},
		{"empty span", "post", source.LineCol{Line: 1, Col: 3}, source.LineCol{Line: 1, Col: 3}, 2, 1},
		{"multiline", "post", source.LineCol{Line: 1, Col: 2}, source.LineCol{Line: 2, Col: 1}, 1, 3},
		{"wide runes", "имя: x", source.LineCol{Line: 1, Col: 9}, source.LineCol{Line: 1, Col: 10}, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pad, width := underline(tt.text, tt.start, tt.end)
			if pad != tt.pad || width != tt.width {
				t.Errorf("want %d/%d, got %d/%d", tt.pad, tt.width, pad, width)
			}
		})
	}
}
