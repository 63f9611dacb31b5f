package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// FieldError mirrors the public JSON surface of a validation error.
type FieldError struct {
	Path    []string `json:"path"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

// SaveResult is the outcome of saving rule settings. When the entry was
// accepted with field-local problems, Settings holds the stripped entry
// and Errors the problems to surface to the author.
type SaveResult struct {
	Settings map[string]any `json:"settings"`
	Errors   []FieldError   `json:"errors"`
}

// Description mirrors the /schema response: display labels plus the
// registered rounding strategies.
type Description struct {
	ArgLabel            string            `json:"arg_label"`
	MultiplyByLabel     string            `json:"multiply_by_label"`
	RoundingMethodLabel string            `json:"rounding_method_label"`
	RoundingMethods     map[string]string `json:"rounding_methods"`
	MinLabel            string            `json:"min_label"`
	MaxLabel            string            `json:"max_label"`
}

// RuleScore is one leaderboard row from /rules/top.
type RuleScore struct {
	RuleID       string `json:"rule_id"`
	TotalAwarded int64  `json:"total_awarded"`
}

// Event mirrors the JSON surface of the server's domain events.
type Event struct {
	Type      string         `json:"type"`
	Time      time.Time      `json:"time"`
	RuleID    string         `json:"rule_id"`
	Award     int64          `json:"award,omitempty"`
	Attribute string         `json:"attribute,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyRuleID is returned when the rule id is empty.
var ErrEmptyRuleID = errors.New("rule id is required")

// ErrSettingsRejected is returned when the server discarded a settings
// entry entirely; the SaveResult carries the validation errors.
var ErrSettingsRejected = errors.New("settings entry rejected")

// ErrNotFound is returned when no settings are stored for a rule.
var ErrNotFound = errors.New("not found")
