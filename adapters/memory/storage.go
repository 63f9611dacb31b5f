package memory

import (
	"context"
	"sync"
)

// Store is a concurrent in-memory rule metadata store.
type Store struct {
	rules sync.Map // map[string]*ruleRecord
}

type ruleRecord struct {
	mu      sync.Mutex
	entries map[string]map[string]any
}

func New() *Store { return &Store{} }

func (s *Store) getOrCreate(ruleID string) *ruleRecord {
	if v, ok := s.rules.Load(ruleID); ok {
		return v.(*ruleRecord)
	}
	rec := &ruleRecord{entries: map[string]map[string]any{}}
	actual, _ := s.rules.LoadOrStore(ruleID, rec)
	return actual.(*ruleRecord)
}

func (s *Store) PutMeta(_ context.Context, ruleID, key string, value map[string]any) error {
	rec := s.getOrCreate(ruleID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.entries[key] = cloneEntry(value)
	return nil
}

func (s *Store) GetMeta(_ context.Context, ruleID, key string) (map[string]any, bool, error) {
	v, ok := s.rules.Load(ruleID)
	if !ok {
		return nil, false, nil
	}
	rec := v.(*ruleRecord)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	entry, ok := rec.entries[key]
	if !ok {
		return nil, false, nil
	}
	return cloneEntry(entry), true, nil
}

func (s *Store) DeleteMeta(_ context.Context, ruleID, key string) error {
	if v, ok := s.rules.Load(ruleID); ok {
		rec := v.(*ruleRecord)
		rec.mu.Lock()
		delete(rec.entries, key)
		rec.mu.Unlock()
	}
	return nil
}

func (s *Store) ListRules(_ context.Context) ([]string, error) {
	var out []string
	s.rules.Range(func(k, v any) bool {
		rec := v.(*ruleRecord)
		rec.mu.Lock()
		n := len(rec.entries)
		rec.mu.Unlock()
		if n > 0 {
			out = append(out, k.(string))
		}
		return true
	})
	return out, nil
}

// cloneEntry copies one level deep; nested slices are copied too so callers
// cannot mutate stored state.
func cloneEntry(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if seq, ok := v.([]any); ok {
			cp := make([]any, len(seq))
			copy(cp, seq)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

var _ interface {
	PutMeta(context.Context, string, string, map[string]any) error
	GetMeta(context.Context, string, string) (map[string]any, bool, error)
	DeleteMeta(context.Context, string, string) error
	ListRules(context.Context) ([]string, error)
} = (*Store)(nil)
