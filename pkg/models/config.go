package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Node configs are stored as free-form documents but decoded into a
// discriminated type per provider before a handler runs, so malformed
// configs fail at the node boundary instead of deep inside a handler.

// Translation overrides the default message content for one locale.
type Translation struct {
	Message string `json:"message,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// MessagingConfig drives the whatsapp/email/sms handlers.
type MessagingConfig struct {
	Message      string                 `json:"message"`
	Subject      string                 `json:"subject,omitempty"`
	Translations map[string]Translation `json:"translations,omitempty"`
}

// CRMConfig drives the crm sync handler. RegionalOverrides maps a country
// code to the integration id that should receive leads from that country
// instead of the node's default integration.
type CRMConfig struct {
	RegionalOverrides map[string]string `json:"regional_overrides,omitempty"`
}

// WebhookConfig drives the outbound webhook handler.
type WebhookConfig struct {
	URL string `json:"url"`
}

// ABVariant is one arm of an A/B test with its proportional weight.
type ABVariant struct {
	ID     string `json:"id"`
	Weight int    `json:"weight"`
}

// ABTestConfig drives the deterministic A/B split handler.
type ABTestConfig struct {
	TestID   string      `json:"test_id"`
	Variants []ABVariant `json:"variants"`
}

// ConditionConfig drives condition node evaluation.
type ConditionConfig struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// DelayConfig bounds how long a delay node may suspend the run.
type DelayConfig struct {
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// Duration returns the configured delay, defaulting to one hour.
func (c DelayConfig) Duration() time.Duration {
	if c.DurationMs <= 0 {
		return time.Hour
	}

	return time.Duration(c.DurationMs) * time.Millisecond
}

// DecodeConfig decodes a node's raw config document into a typed config.
func DecodeConfig(raw map[string]any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal node config: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode node config: %w", err)
	}

	return nil
}
