package attrmap

import (
	"strings"
	"sync"

	"github.com/dewolfe001/dynamic-points/core"
)

// Resolver is a map-backed attribute hierarchy: a declared schema of typed
// attribute paths whose firing-time values are walked out of nested maps in
// the firing context. It implements both resolver contracts consumed by the
// validator and the calculation pipeline.
type Resolver struct {
	mu    sync.RWMutex
	types map[string]core.DataType
}

func New() *Resolver {
	return &Resolver{types: map[string]core.DataType{}}
}

// Define declares an attribute path and its data type. Definition normally
// happens once at startup, before validations run.
func (r *Resolver) Define(dt core.DataType, path ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[strings.Join(path, ".")] = dt
}

// Resolve returns the attribute at path, or false when the path is not part
// of the declared hierarchy.
func (r *Resolver) Resolve(_ core.EventContext, path []string) (core.Attribute, bool) {
	if len(path) == 0 {
		return nil, false
	}
	r.mu.RLock()
	dt, ok := r.types[strings.Join(path, ".")]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return attribute{path: path, dt: dt}, true
}

// ResolveValue walks the firing context along path. Absent segments and
// nil leaves report false.
func (r *Resolver) ResolveValue(fc core.FiringContext, path []string) (any, bool) {
	return walk(map[string]any(fc), path)
}

type attribute struct {
	path []string
	dt   core.DataType
}

func (a attribute) DataType() core.DataType { return a.dt }

func (a attribute) Value(fc core.FiringContext) (any, bool) {
	return walk(map[string]any(fc), a.path)
}

func walk(m map[string]any, path []string) (any, bool) {
	var current any = m
	for _, seg := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}
