package analytics

import (
	"sync"
	"time"

	"github.com/dewolfe001/dynamic-points/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// RuleStats holds the award KPIs collected for one rule.
type RuleStats struct {
	RuleID       string `json:"rule_id"`
	Firings      int64  `json:"firings"`
	ZeroAwards   int64  `json:"zero_awards"`
	TotalAwarded int64  `json:"total_awarded"`
	MinAward     int64  `json:"min_award"`
	MaxAward     int64  `json:"max_award"`
	Saves        int64  `json:"saves"`
	Rejections   int64  `json:"rejections"`
}

// RuleMetrics tracks per-rule and per-day award activity.
type RuleMetrics struct {
	mu sync.RWMutex

	byRule       map[string]*RuleStats
	awardedByDay map[string]int64
	firingsByDay map[string]int64
}

func NewRuleMetrics() *RuleMetrics {
	return &RuleMetrics{
		byRule:       map[string]*RuleStats{},
		awardedByDay: map[string]int64{},
		firingsByDay: map[string]int64{},
	}
}

func (m *RuleMetrics) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.byRule[e.RuleID]
	if stats == nil {
		stats = &RuleStats{RuleID: e.RuleID}
		m.byRule[e.RuleID] = stats
	}

	switch e.Type {
	case core.EventAwardComputed:
		stats.Firings++
		if e.Award == 0 {
			stats.ZeroAwards++
		}
		stats.TotalAwarded += e.Award
		if stats.Firings == 1 || e.Award < stats.MinAward {
			stats.MinAward = e.Award
		}
		if e.Award > stats.MaxAward {
			stats.MaxAward = e.Award
		}
		m.awardedByDay[day] += e.Award
		m.firingsByDay[day]++
	case core.EventSettingsSaved:
		stats.Saves++
	case core.EventSettingsRejected:
		stats.Rejections++
	}
}

// Stats returns a copy of the collected stats for one rule.
func (m *RuleMetrics) Stats(ruleID string) (RuleStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, ok := m.byRule[ruleID]
	if !ok {
		return RuleStats{}, false
	}
	return *stats, true
}

// AllStats returns a copy of every rule's stats.
func (m *RuleMetrics) AllStats() []RuleStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RuleStats, 0, len(m.byRule))
	for _, stats := range m.byRule {
		out = append(out, *stats)
	}
	return out
}

// AwardedOn returns the points awarded across all rules on a given UTC day.
func (m *RuleMetrics) AwardedOn(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.awardedByDay[day]
}

// FiringsOn returns the firings recorded on a given UTC day.
func (m *RuleMetrics) FiringsOn(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.firingsByDay[day]
}

// Day formats t as the UTC day key used by the metrics maps.
func Day(t time.Time) string { return t.UTC().Format("2006-01-02") }
