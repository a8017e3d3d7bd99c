package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"wscheck/internal/diag"
	"wscheck/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("service.svc.yaml", []byte(serviceYAML))

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.WSContract, methodSpan(fs, fileID), "function is not accepted by the WebSocket service"))

	var buf bytes.Buffer
	opts := JSONOpts{
		IncludePositions: true,
		PathMode:         PathModeBasename,
		IncludeNotes:     true,
	}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	// Парсим JSON чтобы убедиться что он валидный
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %+v", output)
	}

	d := output.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "WS_101" {
		t.Errorf("Expected ERROR WS_101, got %s %s", d.Severity, d.Code)
	}
	if d.Template != "" {
		t.Errorf("template must be omitted when equal to the message, got %q", d.Template)
	}
	if d.Location == nil {
		t.Fatalf("Expected location")
	}
	if d.Location.File != "service.svc.yaml" {
		t.Errorf("Expected file=service.svc.yaml, got %s", d.Location.File)
	}
	if d.Location.StartLine != 5 || d.Location.StartCol != 17 || d.Location.EndCol != 21 {
		t.Errorf("unexpected position %+v", *d.Location)
	}
}

// TestJSONWithoutPositions проверяет, что line/col опускаются
func TestJSONWithoutPositions(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("service.svc.yaml", []byte(serviceYAML))

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevWarning, diag.SynUnknownField, source.Span{File: fileID, Start: 4, End: 5}, "unknown field"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	loc := output.Diagnostics[0].Location
	if loc.StartLine != 0 {
		t.Errorf("Expected start_line to be omitted (0), got %d", loc.StartLine)
	}
	// Но байтовые позиции должны быть всегда
	if loc.StartByte != 4 {
		t.Errorf("Expected start_byte=4, got %d", loc.StartByte)
	}
}

func TestJSONWithoutLocation(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load a.svc.yaml").
		WithNote(source.Span{}, "permission denied"))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{IncludeNotes: true})
	d := out.Diagnostics[0]
	if d.Location != nil {
		t.Errorf("expected no location, got %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location != nil || d.Notes[0].Message != "permission denied" {
		t.Errorf("unexpected notes %+v", d.Notes)
	}
}

// TestJSONMaxLimit проверяет ограничение количества диагностик
func TestJSONMaxLimit(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("service.svc.yaml", []byte(serviceYAML))

	bag := diag.NewBag(10)
	for i := range uint32(5) {
		bag.Add(diag.NewError(diag.WSContract, source.Span{File: fileID, Start: i, End: i + 1}, "error"))
	}

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 3})
	if out.Count != 3 || len(out.Diagnostics) != 3 {
		t.Errorf("Expected count=3 (limited), got %d", out.Count)
	}
	if out.Dropped != 2 {
		t.Errorf("Expected dropped=2, got %d", out.Dropped)
	}
}

func TestJSONNotesAndTimings(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("service.svc.yaml", []byte(serviceYAML))

	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.WSContract, methodSpan(fs, fileID), "bad method").
		WithNote(methodSpan(fs, fileID), "expected get"))
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, "timings").
		WithMessage("timings (package): total 1.00 ms").
		WithNote(source.Span{}, `{"kind":"package"}`))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{})
	if len(out.Diagnostics[0].Notes) != 0 {
		t.Errorf("notes must be opt-in, got %+v", out.Diagnostics[0].Notes)
	}
	timing := out.Diagnostics[1]
	if len(timing.Notes) != 1 {
		t.Fatalf("timing payload must always be included, got %+v", timing)
	}
	if timing.Template != "timings" || timing.Severity != "INFO" {
		t.Errorf("unexpected timing diagnostic %+v", timing)
	}
}

// TestJSONPathModes проверяет различные режимы путей
func TestJSONPathModes(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/home/user/project")
	fileID := fs.AddVirtual("/home/user/project/chat/service.svc.yaml", []byte(serviceYAML))

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.WSContract, source.Span{File: fileID, Start: 0, End: 1}, "error"))

	tests := []struct {
		name     string
		pathMode PathMode
		expected string
	}{
		{"Absolute", PathModeAbsolute, "/home/user/project/chat/service.svc.yaml"},
		{"Relative", PathModeRelative, "chat/service.svc.yaml"},
		{"Basename", PathModeBasename, "service.svc.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := BuildDiagnosticsOutput(bag, fs, JSONOpts{PathMode: tt.pathMode})
			if got := out.Diagnostics[0].Location.File; got != tt.expected {
				t.Errorf("Expected file=%s, got %s", tt.expected, got)
			}
		})
	}
}
