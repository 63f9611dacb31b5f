package engine

import (
	"context"

	"github.com/dewolfe001/dynamic-points/core"
)

// Description is the read-only configuration metadata exposed to the host's
// rule-authoring UI. Labels are opaque display strings; localization happens
// outside this module.
type Description struct {
	ArgLabel            string            `json:"arg_label"`
	MultiplyByLabel     string            `json:"multiply_by_label"`
	RoundingMethodLabel string            `json:"rounding_method_label"`
	RoundingMethods     map[string]string `json:"rounding_methods"`
	MinLabel            string            `json:"min_label"`
	MaxLabel            string            `json:"max_label"`
}

// Extension adapts the validator and the calculation pipeline into the
// host's award-computation and describe-configuration extension points. All
// collaborators are injected at construction; the extension itself holds no
// mutable state.
type Extension struct {
	validator *core.Validator
	pipeline  *core.Pipeline
	registry  *core.Registry
	meta      MetaStore
}

func NewExtension(validator *core.Validator, pipeline *core.Pipeline, registry *core.Registry, meta MetaStore) *Extension {
	if validator == nil || pipeline == nil || registry == nil || meta == nil {
		panic("NewExtension requires non-nil validator, pipeline, registry, and meta store")
	}
	return &Extension{validator: validator, pipeline: pipeline, registry: registry, meta: meta}
}

// ShouldApply never suppresses a firing; the extension only affects the
// magnitude of the award.
func (e *Extension) ShouldApply(core.FiringContext) bool { return true }

// ValidateSettings runs the settings validator against one raw entry.
func (e *Extension) ValidateSettings(raw any, vctx core.ValidationContext, ec core.EventContext) (*core.Settings, core.ErrorList) {
	return e.validator.Validate(raw, vctx, ec)
}

// ComputeAwardToFilter returns the award for one firing. The pipeline is a
// fallback: a current award that is already non-zero passes through
// untouched, as does the current award when no settings are stored for the
// rule or the store cannot be read.
func (e *Extension) ComputeAwardToFilter(ctx context.Context, ruleID string, current int64, fc core.FiringContext) int64 {
	if current != 0 {
		return current
	}
	raw, ok, err := e.meta.GetMeta(ctx, ruleID, MetaKeyDynamicPoints)
	if err != nil || !ok {
		return current
	}
	settings := core.SettingsFromMap(raw)
	if settings == nil {
		return current
	}
	return e.pipeline.Compute(settings, fc)
}

// Describe returns the configuration schema for the external UI, including
// a snapshot of the registered rounding strategies.
func (e *Extension) Describe() Description {
	methods := map[string]string{}
	for key, s := range e.registry.All() {
		methods[key] = s.Title()
	}
	return Description{
		ArgLabel:            "Attribute to derive points from",
		MultiplyByLabel:     "Multiply by",
		RoundingMethodLabel: "Rounding method",
		RoundingMethods:     methods,
		MinLabel:            "Minimum points",
		MaxLabel:            "Maximum points",
	}
}
