package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// Exporter defines the interface for shipping rollups to external systems.
type Exporter interface {
	Export(ctx context.Context, data *AggregatedData) error
	Flush(ctx context.Context) error
	Close() error
}

// HTTPExporter posts rollups to an external HTTP endpoint in batches.
type HTTPExporter struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	buffer     []*AggregatedData
	batchSize  int
}

func NewHTTPExporter(endpoint, apiKey string, batchSize int) *HTTPExporter {
	return &HTTPExporter{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		buffer:    make([]*AggregatedData, 0, batchSize),
		batchSize: batchSize,
	}
}

func (e *HTTPExporter) Export(ctx context.Context, data *AggregatedData) error {
	e.buffer = append(e.buffer, data)
	if len(e.buffer) >= e.batchSize {
		return e.Flush(ctx)
	}
	return nil
}

func (e *HTTPExporter) Flush(ctx context.Context) error {
	if len(e.buffer) == 0 {
		return nil
	}
	payload, err := json.Marshal(e.buffer)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to export analytics data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("analytics export rejected: status %d", resp.StatusCode)
	}
	e.buffer = e.buffer[:0]
	return nil
}

func (e *HTTPExporter) Close() error {
	return e.Flush(context.Background())
}

// WriterExporter writes each rollup as a JSON line, for logs and demos.
type WriterExporter struct {
	w      io.Writer
	prefix string
}

func NewWriterExporter(w io.Writer, prefix string) *WriterExporter {
	return &WriterExporter{w: w, prefix: prefix}
}

func (e *WriterExporter) Export(_ context.Context, data *AggregatedData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.w, "%s%s\n", e.prefix, b)
	return err
}

func (e *WriterExporter) Flush(context.Context) error { return nil }

func (e *WriterExporter) Close() error { return nil }

// WriteCSV renders per-rule stats as CSV, sorted by rule id.
func WriteCSV(w io.Writer, rules []RuleStats) error {
	sorted := make([]RuleStats, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RuleID < sorted[j].RuleID })

	if _, err := io.WriteString(w, "rule_id,firings,zero_awards,total_awarded,min_award,max_award,saves,rejections\n"); err != nil {
		return err
	}
	for _, r := range sorted {
		row := r.RuleID + "," +
			strconv.FormatInt(r.Firings, 10) + "," +
			strconv.FormatInt(r.ZeroAwards, 10) + "," +
			strconv.FormatInt(r.TotalAwarded, 10) + "," +
			strconv.FormatInt(r.MinAward, 10) + "," +
			strconv.FormatInt(r.MaxAward, 10) + "," +
			strconv.FormatInt(r.Saves, 10) + "," +
			strconv.FormatInt(r.Rejections, 10) + "\n"
		if _, err := io.WriteString(w, row); err != nil {
			return err
		}
	}
	return nil
}

// ExportManager fans rollups out to a set of exporters.
type ExportManager struct {
	exporters []Exporter
}

func NewExportManager(exporters ...Exporter) *ExportManager {
	return &ExportManager{exporters: exporters}
}

func (m *ExportManager) Export(ctx context.Context, data *AggregatedData) error {
	for _, e := range m.exporters {
		if err := e.Export(ctx, data); err != nil {
			return err
		}
	}
	return nil
}

func (m *ExportManager) Close() error {
	var firstErr error
	for _, e := range m.exporters {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
