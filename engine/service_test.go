package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/dewolfe001/dynamic-points/core"
)

// mapMeta is a minimal MetaStore for tests.
type mapMeta struct {
	data map[string]map[string]any
}

func newMapMeta() *mapMeta { return &mapMeta{data: map[string]map[string]any{}} }

func (m *mapMeta) PutMeta(_ context.Context, ruleID, key string, value map[string]any) error {
	m.data[ruleID+"/"+key] = value
	return nil
}

func (m *mapMeta) GetMeta(_ context.Context, ruleID, key string) (map[string]any, bool, error) {
	v, ok := m.data[ruleID+"/"+key]
	return v, ok, nil
}

func (m *mapMeta) DeleteMeta(_ context.Context, ruleID, key string) error {
	delete(m.data, ruleID+"/"+key)
	return nil
}

func (m *mapMeta) ListRules(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, strings.SplitN(k, "/", 2)[0])
	}
	return out, nil
}

type attr struct {
	dt  core.DataType
	val any
}

func (a attr) DataType() core.DataType              { return a.dt }
func (a attr) Value(core.FiringContext) (any, bool) { return a.val, a.val != nil }

type table map[string]attr

func (t table) Resolve(_ core.EventContext, path []string) (core.Attribute, bool) {
	a, ok := t[strings.Join(path, ".")]
	return a, ok
}

func (t table) ResolveValue(_ core.FiringContext, path []string) (any, bool) {
	a, ok := t[strings.Join(path, ".")]
	if !ok || a.val == nil {
		return nil, false
	}
	return a.val, true
}

func newTestService() (*AwardService, *mapMeta) {
	attrs := table{
		"user.comments": {dt: core.DataTypeInteger, val: 3},
		"user.score":    {dt: core.DataTypeDecimal, val: 4.3},
	}
	reg := core.DefaultRegistry()
	meta := newMapMeta()
	ext := NewExtension(core.NewValidator(reg, attrs), core.NewPipeline(reg, attrs), reg, meta)
	return NewAwardService(meta, NewEventBus(DispatchSync), ext), meta
}

func TestSaveAndFire(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	var events []core.Event
	svc.Subscribe(core.EventAwardComputed, func(_ context.Context, e core.Event) { events = append(events, e) })

	raw := map[string]any{"arg": []any{"user", "comments"}, "multiply_by": 2}
	settings, errs, err := svc.SaveSettings(ctx, "rule-1", raw, core.EventContext{})
	if err != nil || !errs.Empty() || settings == nil {
		t.Fatalf("save: settings=%v errs=%v err=%v", settings, errs, err)
	}

	award := svc.Fire(ctx, "rule-1", 0, core.FiringContext{})
	if award != 6 {
		t.Fatalf("want 6 got %d", award)
	}
	if len(events) != 1 || events[0].Award != 6 || events[0].RuleID != "rule-1" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestFireKeepsExistingAward(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	raw := map[string]any{"arg": []any{"user", "comments"}}
	if _, errs, err := svc.SaveSettings(ctx, "rule-1", raw, core.EventContext{}); err != nil || !errs.Empty() {
		t.Fatalf("save failed: %v %v", errs, err)
	}
	if got := svc.Fire(ctx, "rule-1", 42, core.FiringContext{}); got != 42 {
		t.Fatalf("non-zero current award must pass through, got %d", got)
	}
}

func TestFireWithoutSettings(t *testing.T) {
	svc, _ := newTestService()
	if got := svc.Fire(context.Background(), "unknown", 0, core.FiringContext{}); got != 0 {
		t.Fatalf("want 0 got %d", got)
	}
}

func TestSaveFatalDiscardsEntry(t *testing.T) {
	svc, meta := newTestService()
	ctx := context.Background()

	rejected := 0
	svc.Subscribe(core.EventSettingsRejected, func(_ context.Context, e core.Event) { rejected++ })

	_, errs, err := svc.SaveSettings(ctx, "rule-1", map[string]any{"min": 1}, core.EventContext{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if errs.Empty() || !errs[0].Code.Fatal() {
		t.Fatalf("expected fatal errors, got %v", errs)
	}
	if _, ok, _ := meta.GetMeta(ctx, "rule-1", MetaKeyDynamicPoints); ok {
		t.Fatal("fatal entry must not be persisted")
	}
	if rejected != 1 {
		t.Fatalf("want 1 rejected event got %d", rejected)
	}
}

func TestSaveStripsInvalidField(t *testing.T) {
	svc, meta := newTestService()
	ctx := context.Background()
	raw := map[string]any{"arg": []any{"user", "comments"}, "rounding_method": "banker"}
	settings, errs, err := svc.SaveSettings(ctx, "rule-1", raw, core.EventContext{})
	if err != nil || settings == nil {
		t.Fatalf("save: %v %v", settings, err)
	}
	if len(errs) != 1 || errs[0].Code != core.ErrRoundingMethodInvalid {
		t.Fatalf("unexpected errors: %v", errs)
	}
	stored, ok, _ := meta.GetMeta(ctx, "rule-1", MetaKeyDynamicPoints)
	if !ok {
		t.Fatal("stripped entry should still be persisted")
	}
	if _, present := stored[core.FieldRoundingMethod]; present {
		t.Fatal("stripped field must not be persisted")
	}
}

func TestDeleteSettings(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	raw := map[string]any{"arg": []any{"user", "comments"}}
	if _, _, err := svc.SaveSettings(ctx, "rule-1", raw, core.EventContext{}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteSettings(ctx, "rule-1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := svc.GetSettings(ctx, "rule-1"); ok {
		t.Fatal("settings should be gone")
	}
}

func TestDescribeListsStrategies(t *testing.T) {
	svc, _ := newTestService()
	d := svc.Describe()
	if len(d.RoundingMethods) != 3 {
		t.Fatalf("want 3 rounding methods, got %d", len(d.RoundingMethods))
	}
	if d.ArgLabel == "" || d.MinLabel == "" || d.MaxLabel == "" {
		t.Fatalf("labels must be populated: %+v", d)
	}
}
