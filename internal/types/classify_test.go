package types

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wscheck/internal/ast"
	"wscheck/internal/source"
)

var sp = source.Span{}

func file(imports ...ast.Import) *ast.File {
	return &ast.File{Imports: imports}
}

func ws(name string) ast.TypeExpr   { return ast.Named("websocket", name, sp) }
func http(name string) ast.TypeExpr { return ast.Named("http", name, sp) }
func builtin(name string) ast.TypeExpr {
	return ast.Builtin(name, sp)
}

func TestClassifyLeaves(t *testing.T) {
	c := NewClassifier(file(
		ast.Import{Module: ModuleWebSocket},
		ast.Import{Module: ModuleHTTP},
	))
	tests := []struct {
		typ  ast.TypeExpr
		want Category
	}{
		{ast.Nil(sp), Unit},
		{ws("Caller"), Caller},
		{ws("Service"), Service},
		{ws("Listener"), WSListener},
		{ws("IdleTimeoutEvent"), TimeoutEvent},
		{ws("Error"), SpecificError},
		{ws("UpgradeError"), SpecificError},
		{ws("Unheard"), Unknown},
		{http("Request"), Request},
		{http("Caller"), HTTPCaller},
		{http("Listener"), HTTPListener},
		{builtin("string"), Text},
		{builtin("int"), Int},
		{builtin("error"), GenericError},
		{builtin("boolean"), Unknown},
		{builtin("nil"), Unknown}, // the loader turns nil into ast.Nil
		{ast.ArrayOf(builtin("byte"), sp), Binary},
		{ast.ArrayOf(builtin("string"), sp), Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.typ), tt.typ.String())
	}
}

func TestClassifyComposites(t *testing.T) {
	c := NewClassifier(file(ast.Import{Module: ModuleWebSocket}))
	tests := []struct {
		name string
		typ  ast.TypeExpr
		want Category
	}{
		{"error?", ast.OptionalOf(builtin("error"), sp), ErrorOrUnit},
		{"ws error or nil", ast.UnionOf(sp, ws("Error"), ast.Nil(sp)), ErrorOrUnit},
		{"specific errors", ast.UnionOf(sp, ws("Error"), ws("UpgradeError")), SpecificError},
		{"mixed errors", ast.UnionOf(sp, ws("Error"), builtin("error")), GenericError},
		{"service or error", ast.UnionOf(sp, ws("Service"), ws("UpgradeError")), DomainErrorUnion},
		{"text or binary", ast.UnionOf(sp, builtin("string"), ast.ArrayOf(builtin("byte"), sp)), DomainValue},
		{"text?", ast.OptionalOf(builtin("string"), sp), DomainValue},
		{"dup text", ast.UnionOf(sp, builtin("string"), builtin("string")), Text},
		{"unknown member", ast.UnionOf(sp, builtin("string"), builtin("json")), Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.typ))
		})
	}
}

func TestAliasResolution(t *testing.T) {
	c := NewClassifier(file(ast.Import{Module: ModuleWebSocket, Alias: "ws"}))
	assert.Equal(t, Caller, c.Classify(ast.Named("ws", "Caller", sp)))
	// the default prefix is shadowed once an alias is given
	assert.Equal(t, Unknown, c.Classify(ws("Caller")))
	assert.Equal(t, "ballerina/websocket:Caller", c.Qualified(ast.Named("ws", "Caller", sp)))
	assert.Equal(t, "string", c.Qualified(builtin("string")))
}

func TestUnknownModuleAlias(t *testing.T) {
	c := NewClassifier(file(ast.Import{Module: "acme/websocket", Alias: "ws"}))
	assert.Equal(t, Unknown, c.Classify(ast.Named("ws", "Caller", sp)))
	assert.Equal(t, Unknown, NewClassifier(nil).Classify(ws("Caller")))
}

func TestValues(t *testing.T) {
	c := NewClassifier(file(ast.Import{Module: ModuleWebSocket}))
	typ := ast.UnionOf(sp,
		builtin("string"), ws("Error"), ast.ArrayOf(builtin("byte"), sp), builtin("string"), ast.Nil(sp))
	assert.Equal(t, []Category{Text, Binary}, c.Values(typ))
	assert.Empty(t, c.Values(ast.OptionalOf(builtin("error"), sp)))
}

func TestSet(t *testing.T) {
	s := SetOf(Text, Caller)
	assert.True(t, s.Has(Text))
	assert.False(t, s.Has(Binary))
	assert.Equal(t, []Category{Caller, Text}, s.Slice())
	assert.Equal(t, "{caller, text}", s.String())
}
