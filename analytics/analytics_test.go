package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dewolfe001/dynamic-points/core"
)

func awardEvent(ruleID string, award int64) core.Event {
	return core.Event{Type: core.EventAwardComputed, Time: time.Now().UTC(), RuleID: ruleID, Award: award}
}

func TestRuleMetricsCollectsAwards(t *testing.T) {
	m := NewRuleMetrics()
	m.OnEvent(awardEvent("rule-1", 5))
	m.OnEvent(awardEvent("rule-1", 2))
	m.OnEvent(awardEvent("rule-1", 0))
	m.OnEvent(awardEvent("rule-2", 7))

	stats, ok := m.Stats("rule-1")
	if !ok {
		t.Fatal("missing stats")
	}
	if stats.Firings != 3 || stats.TotalAwarded != 7 || stats.ZeroAwards != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.MinAward != 0 || stats.MaxAward != 5 {
		t.Fatalf("unexpected min/max: %+v", stats)
	}

	day := Day(time.Now())
	if got := m.AwardedOn(day); got != 14 {
		t.Fatalf("want 14 awarded today, got %d", got)
	}
	if got := m.FiringsOn(day); got != 4 {
		t.Fatalf("want 4 firings today, got %d", got)
	}
}

func TestRuleMetricsTracksSavesAndRejections(t *testing.T) {
	m := NewRuleMetrics()
	m.OnEvent(core.NewSettingsSaved("rule-1", []string{"user", "score"}))
	m.OnEvent(core.NewSettingsRejected("rule-1", nil))
	m.OnEvent(core.NewSettingsRejected("rule-1", nil))

	stats, _ := m.Stats("rule-1")
	if stats.Saves != 1 || stats.Rejections != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestBridgeFansOut(t *testing.T) {
	a := NewRuleMetrics()
	b := NewRuleMetrics()
	bridge := NewBridge(a, b)
	bridge.OnEvent(awardEvent("rule-1", 3))

	if _, ok := a.Stats("rule-1"); !ok {
		t.Fatal("first hook missed event")
	}
	if _, ok := b.Stats("rule-1"); !ok {
		t.Fatal("second hook missed event")
	}
}

func TestAggregateNow(t *testing.T) {
	m := NewRuleMetrics()
	m.OnEvent(awardEvent("rule-1", 5))
	ae := NewAggregationEngine(m)

	data := ae.AggregateNow()
	if data.PointsAwarded != 5 || data.Firings != 1 || len(data.Rules) != 1 {
		t.Fatalf("unexpected rollup: %+v", data)
	}

	stored, ok := ae.Daily(data.Day)
	if !ok || stored.PointsAwarded != 5 {
		t.Fatalf("rollup not stored: %+v ok=%v", stored, ok)
	}
}

func TestHTTPExporterBatches(t *testing.T) {
	var received []AggregatedData
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := NewHTTPExporter(srv.URL, "secret", 2)
	ctx := context.Background()

	if err := e.Export(ctx, &AggregatedData{Day: "2026-08-30"}); err != nil {
		t.Fatal(err)
	}
	if len(received) != 0 {
		t.Fatal("should not flush before the batch fills")
	}
	if err := e.Export(ctx, &AggregatedData{Day: "2026-08-31"}); err != nil {
		t.Fatal(err)
	}
	if len(received) != 2 {
		t.Fatalf("want 2 rollups, got %d", len(received))
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rules := []RuleStats{
		{RuleID: "b", Firings: 1, TotalAwarded: 2},
		{RuleID: "a", Firings: 3, TotalAwarded: 9},
	}
	if err := WriteCSV(&buf, rules); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "a,3,") {
		t.Fatalf("rows must be sorted by rule id: %q", lines[1])
	}
}

func TestWriterExporter(t *testing.T) {
	var buf bytes.Buffer
	e := NewWriterExporter(&buf, "[KPI] ")
	if err := e.Export(context.Background(), &AggregatedData{Day: "2026-08-30"}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "[KPI] {") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
