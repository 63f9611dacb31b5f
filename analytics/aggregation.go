package analytics

import (
	"sync"
	"time"

	"github.com/dewolfe001/dynamic-points/core"
)

// AggregatedData is a point-in-time rollup of award activity.
type AggregatedData struct {
	Day           string      `json:"day"`
	Firings       int64       `json:"firings"`
	PointsAwarded int64       `json:"points_awarded"`
	Rules         []RuleStats `json:"rules"`
	CreatedAt     time.Time   `json:"created_at"`
}

// AggregationEngine rolls the live metrics up into daily snapshots.
type AggregationEngine struct {
	mu sync.RWMutex

	metrics *RuleMetrics
	daily   map[string]*AggregatedData
}

func NewAggregationEngine(metrics *RuleMetrics) *AggregationEngine {
	return &AggregationEngine{
		metrics: metrics,
		daily:   map[string]*AggregatedData{},
	}
}

// OnEvent forwards events to the underlying metrics hook so the engine can
// be registered directly on the bus.
func (ae *AggregationEngine) OnEvent(e core.Event) { ae.metrics.OnEvent(e) }

// AggregateNow captures today's rollup and returns it.
func (ae *AggregationEngine) AggregateNow() *AggregatedData {
	now := time.Now().UTC()
	day := Day(now)

	data := &AggregatedData{
		Day:           day,
		Firings:       ae.metrics.FiringsOn(day),
		PointsAwarded: ae.metrics.AwardedOn(day),
		Rules:         ae.metrics.AllStats(),
		CreatedAt:     now,
	}

	ae.mu.Lock()
	ae.daily[day] = data
	ae.mu.Unlock()
	return data
}

// Daily returns the stored rollup for a day, if one was captured.
func (ae *AggregationEngine) Daily(day string) (*AggregatedData, bool) {
	ae.mu.RLock()
	defer ae.mu.RUnlock()
	data, ok := ae.daily[day]
	return data, ok
}
