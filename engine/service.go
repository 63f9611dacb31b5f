package engine

import (
	"context"
	"log/slog"

	"github.com/dewolfe001/dynamic-points/core"
)

// AwardService wires the metadata store, event bus, and extension facade
// into a cohesive API for saving rule settings and computing awards.
type AwardService struct {
	meta MetaStore
	bus  *EventBus
	ext  *Extension
}

func NewAwardService(meta MetaStore, bus *EventBus, ext *Extension) *AwardService {
	if meta == nil || bus == nil || ext == nil {
		panic("NewAwardService requires non-nil meta store, bus, and extension")
	}
	return &AwardService{meta: meta, bus: bus, ext: ext}
}

// Subscribe convenience method.
func (a *AwardService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return a.bus.Subscribe(typ, handler)
}

func (a *AwardService) Publish(ctx context.Context, ev core.Event) {
	a.bus.Publish(ctx, ev)
}

// SaveSettings validates one raw settings entry and persists whatever
// survives. A fatal validation error discards the entry entirely; with
// field-local errors the stripped entry is stored and the errors are
// returned so the author can correct them.
func (a *AwardService) SaveSettings(ctx context.Context, ruleID string, raw any, ec core.EventContext) (*core.Settings, core.ErrorList, error) {
	settings, errs := a.ext.ValidateSettings(raw, core.ValidationContext{}, ec)
	if settings == nil {
		slog.Debug("settings rejected", "rule_id", ruleID, "errors", errs.Messages())
		a.bus.Publish(ctx, core.NewSettingsRejected(ruleID, errs))
		return nil, errs, nil
	}
	if err := a.meta.PutMeta(ctx, ruleID, MetaKeyDynamicPoints, settings.ToMap()); err != nil {
		return nil, errs, err
	}
	if errs.Empty() {
		a.bus.Publish(ctx, core.NewSettingsSaved(ruleID, settings.Arg))
	} else {
		a.bus.Publish(ctx, core.NewSettingsRejected(ruleID, errs))
	}
	return settings, errs, nil
}

// GetSettings loads the stored settings for a rule.
func (a *AwardService) GetSettings(ctx context.Context, ruleID string) (*core.Settings, bool, error) {
	raw, ok, err := a.meta.GetMeta(ctx, ruleID, MetaKeyDynamicPoints)
	if err != nil || !ok {
		return nil, false, err
	}
	return core.SettingsFromMap(raw), true, nil
}

// DeleteSettings removes the stored settings for a rule.
func (a *AwardService) DeleteSettings(ctx context.Context, ruleID string) error {
	if err := a.meta.DeleteMeta(ctx, ruleID, MetaKeyDynamicPoints); err != nil {
		return err
	}
	a.bus.Publish(ctx, core.NewSettingsDeleted(ruleID))
	return nil
}

// Fire computes the award for one rule firing and publishes the result.
// Computation never fails; misconfigured rules simply award nothing.
func (a *AwardService) Fire(ctx context.Context, ruleID string, current int64, fc core.FiringContext) int64 {
	if !a.ext.ShouldApply(fc) {
		return current
	}
	award := a.ext.ComputeAwardToFilter(ctx, ruleID, current, fc)

	var arg []string
	if settings, ok, err := a.GetSettings(ctx, ruleID); err == nil && ok {
		arg = settings.Arg
	}
	a.bus.Publish(ctx, core.NewAwardComputed(ruleID, award, arg))
	return award
}

// Describe exposes the configuration schema for the authoring UI.
func (a *AwardService) Describe() Description { return a.ext.Describe() }

// ListRules returns the rule ids with stored metadata.
func (a *AwardService) ListRules(ctx context.Context) ([]string, error) {
	return a.meta.ListRules(ctx)
}

func (a *AwardService) Close() { a.bus.Close() }
