package attrmap

import (
	"testing"

	"github.com/dewolfe001/dynamic-points/core"
)

func TestResolveDeclaredPath(t *testing.T) {
	r := New()
	r.Define(core.DataTypeDecimal, "user", "score")

	attr, ok := r.Resolve(core.EventContext{}, []string{"user", "score"})
	if !ok {
		t.Fatal("declared path should resolve")
	}
	if attr.DataType() != core.DataTypeDecimal {
		t.Fatalf("unexpected data type %q", attr.DataType())
	}
	if _, ok := r.Resolve(core.EventContext{}, []string{"user", "ghost"}); ok {
		t.Fatal("undeclared path should not resolve")
	}
}

func TestResolveValueWalksNestedMaps(t *testing.T) {
	r := New()
	fc := core.FiringContext{
		"user": map[string]any{"score": 4.3, "profile": map[string]any{"age": 30}},
	}

	v, ok := r.ResolveValue(fc, []string{"user", "score"})
	if !ok || v != 4.3 {
		t.Fatalf("got %v %v", v, ok)
	}
	v, ok = r.ResolveValue(fc, []string{"user", "profile", "age"})
	if !ok || v != 30 {
		t.Fatalf("got %v %v", v, ok)
	}
	if _, ok = r.ResolveValue(fc, []string{"user", "missing"}); ok {
		t.Fatal("missing segment should report absent")
	}
	if _, ok = r.ResolveValue(fc, []string{"user", "score", "deeper"}); ok {
		t.Fatal("walking through a leaf should report absent")
	}
}

func TestResolveValueNilLeafIsAbsent(t *testing.T) {
	r := New()
	fc := core.FiringContext{"user": map[string]any{"score": nil}}
	if _, ok := r.ResolveValue(fc, []string{"user", "score"}); ok {
		t.Fatal("nil leaf should report absent")
	}
}

func TestAttributeValue(t *testing.T) {
	r := New()
	r.Define(core.DataTypeInteger, "user", "comments")
	attr, _ := r.Resolve(core.EventContext{}, []string{"user", "comments"})

	v, ok := attr.Value(core.FiringContext{"user": map[string]any{"comments": 3}})
	if !ok || v != 3 {
		t.Fatalf("got %v %v", v, ok)
	}
}
