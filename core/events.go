package core

import (
	"strings"
	"time"
)

// EventType enumerates domain events.
type EventType string

const (
	EventAwardComputed    EventType = "award_computed"
	EventSettingsSaved    EventType = "settings_saved"
	EventSettingsRejected EventType = "settings_rejected"
	EventSettingsDeleted  EventType = "settings_deleted"
)

// Event represents an immutable domain event.
type Event struct {
	Type      EventType      `json:"type"`
	Time      time.Time      `json:"time"`
	RuleID    string         `json:"rule_id"`
	Award     int64          `json:"award,omitempty"`
	Attribute string         `json:"attribute,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewAwardComputed(ruleID string, award int64, arg []string) Event {
	return Event{
		Type:      EventAwardComputed,
		Time:      time.Now().UTC(),
		RuleID:    ruleID,
		Award:     award,
		Attribute: strings.Join(arg, "."),
	}
}

func NewSettingsSaved(ruleID string, arg []string) Event {
	return Event{
		Type:      EventSettingsSaved,
		Time:      time.Now().UTC(),
		RuleID:    ruleID,
		Attribute: strings.Join(arg, "."),
	}
}

func NewSettingsRejected(ruleID string, errs ErrorList) Event {
	return Event{
		Type:   EventSettingsRejected,
		Time:   time.Now().UTC(),
		RuleID: ruleID,
		Errors: errs.Messages(),
	}
}

func NewSettingsDeleted(ruleID string) Event {
	return Event{Type: EventSettingsDeleted, Time: time.Now().UTC(), RuleID: ruleID}
}
