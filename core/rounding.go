package core

import (
	"math"
	"sync"
)

// Strategy reduces a numeric value to an integer under a fixed policy.
// Callers are expected to pass validated numeric input (integer, float, or
// numeric string); anything else rounds to 0.
type Strategy interface {
	Key() string
	Title() string
	Round(value any) int64
}

// Built-in strategy keys.
const (
	RoundNearest = "nearest"
	RoundUp      = "up"
	RoundDown    = "down"
)

// Registry maps strategy keys to rounding strategies. Registration normally
// happens once at startup; reads afterwards are lock-cheap.
// Registering an existing key overwrites it, last registration wins.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// DefaultRegistry returns a registry populated with the nearest, up, and
// down strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(nearestStrategy{})
	r.Register(upStrategy{})
	r.Register(downStrategy{})
	return r
}

func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Key()] = s
}

func (r *Registry) IsRegistered(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[key]
	return ok
}

func (r *Registry) Get(key string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[key]
	return s, ok
}

// All returns a copy of the registered strategies keyed by strategy key.
func (r *Registry) All() map[string]Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Strategy, len(r.strategies))
	for k, s := range r.strategies {
		out[k] = s
	}
	return out
}

// nearestStrategy rounds half away from zero: 1.5 -> 2, -1.5 -> -2.
type nearestStrategy struct{}

func (nearestStrategy) Key() string   { return RoundNearest }
func (nearestStrategy) Title() string { return "Round to nearest" }
func (nearestStrategy) Round(value any) int64 {
	f, ok := ToNumber(value)
	if !ok {
		return 0
	}
	return int64(math.Round(f))
}

// upStrategy rounds toward positive infinity: 4.3 -> 5, -4.3 -> -4.
// Integers pass through unchanged.
type upStrategy struct{}

func (upStrategy) Key() string   { return RoundUp }
func (upStrategy) Title() string { return "Round up" }
func (upStrategy) Round(value any) int64 {
	f, ok := ToNumber(value)
	if !ok {
		return 0
	}
	return int64(math.Ceil(f))
}

// downStrategy rounds toward negative infinity: 4.7 -> 4, -4.3 -> -5.
type downStrategy struct{}

func (downStrategy) Key() string   { return RoundDown }
func (downStrategy) Title() string { return "Round down" }
func (downStrategy) Round(value any) int64 {
	f, ok := ToNumber(value)
	if !ok {
		return 0
	}
	return int64(math.Floor(f))
}
