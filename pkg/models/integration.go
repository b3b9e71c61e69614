package models

import "time"

// Integration is a tenant's credentialed connection to an external provider.
// The engine resolves one per action node and treats it as read-only.
type Integration struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Provider       ProviderKind   `json:"provider"`
	Name           string         `json:"name"`
	Region         string         `json:"region,omitempty"`
	IsActive       bool           `json:"is_active"`
	Credentials    map[string]any `json:"credentials,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Credential returns a string credential field, or "" when absent.
func (i *Integration) Credential(key string) string {
	if i == nil || i.Credentials == nil {
		return ""
	}

	if v, ok := i.Credentials[key].(string); ok {
		return v
	}

	return ""
}
