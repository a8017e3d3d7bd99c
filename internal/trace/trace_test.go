package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, true},
		{LevelError, ScopePass, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopePackage, false},
		{LevelDetail, ScopePackage, true},
		{LevelDetail, ScopeService, false},
		{LevelDebug, ScopeService, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestStreamTracerJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Mode: ModeStream, Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)
	ctx, root := Start(ctx, ScopeDriver, "diag")
	_, pkg := Start(ctx, ScopePackage, "package:chat")
	pkg.WithExtra("diags", "2").End("")
	_, svc := Start(ctx, ScopeService, "service:/chat") // filtered out at detail
	svc.End("")
	root.End("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 records, got %d:\n%s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "package:chat" || rec["kind"] != "end" || rec["x.diags"] != "2" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["parent"] != float64(root.ID()) {
		t.Fatalf("package span should be a child of the root span: %v", rec)
	}
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for i := 0; i < 5; i++ {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopePass, Name: string(rune('a' + i))})
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	if snap[0].Name != "c" || snap[2].Name != "e" {
		t.Fatalf("unexpected order: %v %v", snap[0].Name, snap[2].Name)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("dump should have 3 lines:\n%s", buf.String())
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Format: FormatText, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := tr.(*MultiTracer)
	if !ok {
		t.Fatalf("expected *MultiTracer, got %T", tr)
	}
	Point(WithTracer(context.Background(), tr), ScopePass, "load", "3 files")
	if got := len(m.Ring().Snapshot()); got != 1 {
		t.Fatalf("ring should hold 1 event, got %d", got)
	}
	if !strings.Contains(buf.String(), "msg=load") {
		t.Fatalf("stream output missing event:\n%s", buf.String())
	}
}

func TestNopWhenOff(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Enabled() {
		t.Fatal("off tracer must be disabled")
	}
	ctx, sp := Start(WithTracer(context.Background(), tr), ScopeDriver, "x")
	if sp.ID() != 0 || carrierOf(ctx).span != 0 {
		t.Fatal("disabled tracer must not open spans")
	}
}

func TestPackageTag(t *testing.T) {
	r := NewRingTracer(8, LevelDebug)
	ctx := WithPackage(WithTracer(context.Background(), r), "chat")
	ctx, sp := Start(ctx, ScopePackage, "package:chat")
	Point(ctx, ScopeService, "service:ChatService", "")
	sp.End("")

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	for _, ev := range snap {
		if ev.Package != "chat" {
			t.Fatalf("event %s lost the package tag", ev.Name)
		}
	}
	if snap[1].ParentID != sp.ID() {
		t.Fatalf("point should hang under the package span")
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "package=chat") {
		t.Fatalf("dump misses the package field:\n%s", buf.String())
	}

	// without a tracer the tag is not stored
	if got := WithPackage(context.Background(), "x"); carrierOf(got).pkg != "" {
		t.Fatal("package tag stored without a tracer")
	}
}
