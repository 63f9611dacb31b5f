package engine

import (
	"context"
)

// MetaKeyDynamicPoints is the metadata key under which a rule's
// dynamic-points settings are stored.
const MetaKeyDynamicPoints = "dynamic_points"

// MetaStore abstracts persistence of per-rule metadata entries. Values are
// the raw settings mappings produced by validation.
type MetaStore interface {
	PutMeta(ctx context.Context, ruleID, key string, value map[string]any) error
	GetMeta(ctx context.Context, ruleID, key string) (map[string]any, bool, error)
	DeleteMeta(ctx context.Context, ruleID, key string) error
	ListRules(ctx context.Context) ([]string, error)
}
