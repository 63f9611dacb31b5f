package points

import (
	"context"
	"sync"

	"github.com/dewolfe001/dynamic-points/core"
	"github.com/dewolfe001/dynamic-points/engine"
	"github.com/dewolfe001/dynamic-points/realtime"
)

// Resolver combines the authoring-time hierarchy resolver and the
// firing-time value resolver, which implementations usually provide
// together.
type Resolver interface {
	core.HierarchyResolver
	core.ValueResolver
}

// Option configures the award service builder.
type Option func(*config)

type config struct {
	meta     engine.MetaStore
	registry *core.Registry
	resolver Resolver
	mode     engine.DispatchMode
	hub      *realtime.Hub
}

// WithMetaStore sets the rule metadata persistence adapter.
func WithMetaStore(m engine.MetaStore) Option { return func(c *config) { c.meta = m } }

// WithRegistry sets the rounding strategy registry.
func WithRegistry(r *core.Registry) Option { return func(c *config) { c.registry = r } }

// WithResolver sets the attribute resolver.
func WithResolver(r Resolver) Option { return func(c *config) { c.resolver = r } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all service events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// New builds a configured AwardService. If not provided, defaults are used:
//   - meta store: in-memory
//   - registry: DefaultRegistry (nearest, up, down)
//   - resolver: resolves nothing; pass an explicit resolver in prod
//   - dispatch: async
func New(opts ...Option) *engine.AwardService {
	cfg := &config{mode: engine.DispatchAsync, registry: core.DefaultRegistry()}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.meta == nil {
		cfg.meta = &memMeta{}
	}
	if cfg.resolver == nil {
		cfg.resolver = emptyResolver{}
	}
	bus := engine.NewEventBus(cfg.mode)
	ext := engine.NewExtension(
		core.NewValidator(cfg.registry, cfg.resolver),
		core.NewPipeline(cfg.registry, cfg.resolver),
		cfg.registry,
		cfg.meta,
	)
	svc := engine.NewAwardService(cfg.meta, bus, ext)
	if cfg.hub != nil {
		// Bridge all primary events to realtime
		for _, typ := range []core.EventType{
			core.EventAwardComputed,
			core.EventSettingsSaved,
			core.EventSettingsRejected,
			core.EventSettingsDeleted,
		} {
			bus.Subscribe(typ, func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
		}
	}
	return svc
}

// emptyResolver keeps New() usable without an attribute schema; every path
// fails to resolve.
type emptyResolver struct{}

func (emptyResolver) Resolve(core.EventContext, []string) (core.Attribute, bool) { return nil, false }

func (emptyResolver) ResolveValue(core.FiringContext, []string) (any, bool) { return nil, false }

// memMeta is a tiny local meta store to keep New() usable without external
// adapters; mirrors adapters/memory.
type memMeta struct {
	mu   sync.Mutex
	data map[string]map[string]map[string]any
}

func (m *memMeta) PutMeta(_ context.Context, ruleID, key string, value map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]map[string]map[string]any{}
	}
	if m.data[ruleID] == nil {
		m.data[ruleID] = map[string]map[string]any{}
	}
	m.data[ruleID][key] = value
	return nil
}

func (m *memMeta) GetMeta(_ context.Context, ruleID, key string) (map[string]any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[ruleID][key]
	return v, ok, nil
}

func (m *memMeta) DeleteMeta(_ context.Context, ruleID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entries, ok := m.data[ruleID]; ok {
		delete(entries, key)
		if len(entries) == 0 {
			delete(m.data, ruleID)
		}
	}
	return nil
}

func (m *memMeta) ListRules(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for id := range m.data {
		out = append(out, id)
	}
	return out, nil
}
