package models

import "time"

// Compliance holds the tenant-level regulatory flags the engine gates on.
type Compliance struct {
	IsGDPR bool `json:"is_gdpr"`
}

// OrganizationSettings are the tenant preferences the engine reads.
type OrganizationSettings struct {
	Timezone string `json:"timezone,omitempty"` // IANA name, UTC when empty
}

// Organization is a tenant. The engine reads it, never writes it.
type Organization struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Compliance Compliance           `json:"compliance"`
	Settings   OrganizationSettings `json:"settings"`
	CreatedAt  time.Time            `json:"created_at"`
}
