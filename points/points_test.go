package points

import (
	"context"
	"testing"

	"github.com/dewolfe001/dynamic-points/adapters/attrmap"
	mem "github.com/dewolfe001/dynamic-points/adapters/memory"
	"github.com/dewolfe001/dynamic-points/core"
	"github.com/dewolfe001/dynamic-points/engine"
	"github.com/dewolfe001/dynamic-points/realtime"
)

func TestNewDefaultsAndOptions(t *testing.T) {
	resolver := attrmap.New()
	resolver.Define(core.DataTypeInteger, "user", "comments")

	hub := realtime.NewHub()
	svc := New(
		WithRealtime(hub),
		WithMetaStore(mem.New()),
		WithResolver(resolver),
		WithDispatchMode(engine.DispatchSync),
	)

	ctx := context.Background()
	raw := map[string]any{"arg": []any{"user", "comments"}, "multiply_by": 3}
	settings, errs, err := svc.SaveSettings(ctx, "rule-1", raw, core.EventContext{})
	if err != nil || !errs.Empty() || settings == nil {
		t.Fatalf("save: settings=%v errs=%v err=%v", settings, errs, err)
	}

	// realtime bridge should receive the award event
	_, ch := hub.Subscribe(4)
	fc := core.FiringContext{"user": map[string]any{"comments": 3}}
	if got := svc.Fire(ctx, "rule-1", 0, fc); got != 9 {
		t.Fatalf("want 9 got %d", got)
	}
	ev := <-ch
	if ev.Type != core.EventAwardComputed || ev.Award != 9 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestInMemoryFallback(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	ctx := context.Background()

	// default resolver resolves nothing, so any arg is fatal
	_, errs, err := svc.SaveSettings(ctx, "rule-1", map[string]any{"arg": []any{"user", "comments"}}, core.EventContext{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if errs.Empty() || errs[0].Code != core.ErrArgUnresolvable {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if got := svc.Fire(ctx, "rule-1", 0, core.FiringContext{}); got != 0 {
		t.Fatalf("want 0 got %d", got)
	}
}

func TestCustomRegistry(t *testing.T) {
	resolver := attrmap.New()
	resolver.Define(core.DataTypeDecimal, "order", "total")

	reg := core.DefaultRegistry()
	svc := New(
		WithRegistry(reg),
		WithResolver(resolver),
		WithDispatchMode(engine.DispatchSync),
	)

	ctx := context.Background()
	raw := map[string]any{"arg": []any{"order", "total"}, "rounding_method": "down"}
	if _, errs, err := svc.SaveSettings(ctx, "rule-1", raw, core.EventContext{}); err != nil || !errs.Empty() {
		t.Fatalf("save: errs=%v err=%v", errs, err)
	}
	fc := core.FiringContext{"order": map[string]any{"total": 19.99}}
	if got := svc.Fire(ctx, "rule-1", 0, fc); got != 19 {
		t.Fatalf("want 19 got %d", got)
	}
}
