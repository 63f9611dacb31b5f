package jsonfile

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	entry := map[string]any{"arg": []any{"user", "comments"}, "min": float64(1)}
	if err := s.PutMeta(ctx, "rule-1", "dynamic_points", entry); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := reopened.GetMeta(ctx, "rule-1", "dynamic_points")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got["min"] != float64(1) {
		t.Fatalf("unexpected entry: %v", got)
	}
}

func TestStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutMeta(ctx, "rule-1", "dynamic_points", map[string]any{"arg": []any{"a"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMeta(ctx, "rule-1", "dynamic_points"); err != nil {
		t.Fatal(err)
	}
	rules, err := s.ListRules(ctx)
	if err != nil || len(rules) != 0 {
		t.Fatalf("list after delete: %v %v", rules, err)
	}
}
