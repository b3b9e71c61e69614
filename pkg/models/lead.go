package models

import (
	"fmt"
	"strings"
	"time"
)

// AIAnalysis is the enrichment an AI scoring pass attaches to a lead.
type AIAnalysis struct {
	Score      int       `json:"score"`
	Intent     string    `json:"intent,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Lead is the triggering entity for most workflow runs: an inbound sales
// lead ingested from an ad form. Handlers may enrich it mid-run; concurrent
// runs touching the same lead race last-write-wins.
type Lead struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Country        string         `json:"country"`
	Locale         string         `json:"locale,omitempty"`
	Campaign       string         `json:"campaign,omitempty"`
	CampaignName   string         `json:"campaign_name,omitempty"`
	Score          int            `json:"score,omitempty"`
	AssignedTo     string         `json:"assigned_to,omitempty"`
	GDPRConsent    bool           `json:"gdpr_consent,omitempty"`
	AIAnalysis     *AIAnalysis    `json:"ai_analysis,omitempty"`
	RawData        map[string]any `json:"raw_data,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Identifier returns the most stable identity for deterministic hashing:
// email, then phone, then id.
func (l *Lead) Identifier() string {
	switch {
	case l.Email != "":
		return l.Email
	case l.Phone != "":
		return l.Phone
	default:
		return l.ID
	}
}

// CampaignKey is the campaign identity used for ROI lookups.
func (l *Lead) CampaignKey() string {
	if l.Campaign != "" {
		return l.Campaign
	}

	return l.CampaignName
}

// Field resolves a condition field name against the lead. Country falls back
// to the raw-ingestion metadata before defaulting to the "Unknown" sentinel.
func (l *Lead) Field(name string) any {
	switch strings.ToLower(name) {
	case "name":
		return l.Name
	case "email":
		return l.Email
	case "phone":
		return l.Phone
	case "country":
		return l.countryOrRaw()
	case "campaign", "campaign_name":
		return l.CampaignKey()
	case "score":
		return l.Score
	case "assigned_to":
		return l.AssignedTo
	case "locale":
		return l.Locale
	default:
		if l.RawData != nil {
			if v, ok := l.RawData[name]; ok {
				return v
			}
		}

		return nil
	}
}

const unknownCountry = "Unknown"

func (l *Lead) countryOrRaw() string {
	if l.Country != "" {
		return l.Country
	}

	for _, key := range []string{"country", "country_code", "country_name"} {
		if v, ok := l.RawData[key]; ok {
			if s := fmt.Sprintf("%v", v); s != "" {
				return s
			}
		}
	}

	return unknownCountry
}
