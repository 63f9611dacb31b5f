package core

// Pipeline turns a resolved attribute value into a final integer award under
// a rule's rounding, scaling, and clamping policy. Computation never fails:
// a misconfigured or stale rule must never block live event processing, so
// every failure path degrades to an award of 0.
type Pipeline struct {
	registry *Registry
	values   ValueResolver
}

func NewPipeline(registry *Registry, values ValueResolver) *Pipeline {
	if registry == nil || values == nil {
		panic("NewPipeline requires non-nil registry and value resolver")
	}
	return &Pipeline{registry: registry, values: values}
}

// Compute resolves the configured attribute from the firing context and
// applies rounding, multiplication, integer coercion, and clamping, in that
// order.
func (p *Pipeline) Compute(s *Settings, fc FiringContext) int64 {
	if s == nil || len(s.Arg) == 0 {
		return 0
	}

	raw, ok := p.values.ResolveValue(fc, s.Arg)
	if !ok || raw == nil {
		return 0
	}
	value, numeric := ToNumber(raw)
	if !numeric {
		return 0
	}

	var strategy Strategy
	if s.RoundingMethod != "" {
		strategy, ok = p.registry.Get(s.RoundingMethod)
		if !ok {
			// Strategy was deregistered after validation; fail closed.
			return 0
		}
		value = float64(strategy.Round(value))
	}

	if s.MultiplyBy != nil {
		value *= *s.MultiplyBy
		if !IsIntegral(value) {
			if strategy == nil {
				// Validation guarantees a strategy whenever the product can
				// be fractional; its absence here means the stored entry no
				// longer honors that invariant.
				return 0
			}
			value = float64(strategy.Round(value))
		}
	}

	if _, numeric = ToNumber(value); !numeric {
		return 0
	}
	award := int64(value)

	if s.Min != nil && award < *s.Min {
		award = *s.Min
	}
	if s.Max != nil && award > *s.Max {
		award = *s.Max
	}
	return award
}
