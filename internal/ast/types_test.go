package ast

import (
	"testing"

	"wscheck/internal/source"
)

func TestTypeExprString(t *testing.T) {
	sp := source.Span{}
	tests := []struct {
		expr TypeExpr
		want string
	}{
		{Named("ws", "Caller", sp), "ws:Caller"},
		{ArrayOf(Builtin("byte", sp), sp), "byte[]"},
		{OptionalOf(Builtin("error", sp), sp), "error?"},
		{UnionOf(sp, Named("websocket", "Service", sp), Named("websocket", "UpgradeError", sp)), "websocket:Service|websocket:UpgradeError"},
		{OptionalOf(UnionOf(sp, Builtin("string", sp), Builtin("error", sp)), sp), "(string|error)?"},
		{Nil(sp), "()"},
		{TypeExpr{}, "<invalid>"},
	}
	for _, tt := range tests {
		if got := tt.expr.String(); got != tt.want {
			t.Errorf("want %q, got %q", tt.want, got)
		}
	}
}

func TestImportPrefix(t *testing.T) {
	if got := (Import{Module: "ballerina/websocket"}).Prefix(); got != "websocket" {
		t.Fatalf("default prefix: %q", got)
	}
	if got := (Import{Module: "ballerina/websocket", Alias: "ws"}).Prefix(); got != "ws" {
		t.Fatalf("alias prefix: %q", got)
	}
}

func TestFunctionDisplayName(t *testing.T) {
	res := Function{Qualifier: QualResource, Method: "get"}
	if got := res.DisplayName(); got != "get ." {
		t.Fatalf("resource display: %q", got)
	}
	rem := Function{Qualifier: QualRemote, Name: "onOpen"}
	if got := rem.DisplayName(); got != "onOpen" || !rem.IsEntry() {
		t.Fatalf("remote display: %q", got)
	}
	if (&Function{}).IsEntry() {
		t.Fatalf("plain function is not an entry point")
	}
}
