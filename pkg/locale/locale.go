// Package locale resolves the language a lead should be contacted in and
// selects per-locale content overrides for messaging nodes.
package locale

import (
	"strings"

	"github.com/leadflowhq/leadflow/pkg/models"
)

// Default is the baseline locale used when nothing else matches.
const Default = "en"

// phonePrefixes maps dialing prefixes to locales. Longest prefix wins, so
// +971 resolves before +9.
var phonePrefixes = map[string]string{
	"+91":  "hi",
	"+55":  "pt",
	"+34":  "es",
	"+52":  "es",
	"+49":  "de",
	"+33":  "fr",
	"+971": "ar",
	"+966": "ar",
	"+7":   "ru",
}

// Detect resolves a lead's locale: an explicit locale field takes priority,
// then the phone country-code prefix, then the default.
func Detect(lead *models.Lead) string {
	if lead == nil {
		return Default
	}

	if lead.Locale != "" {
		return strings.ToLower(lead.Locale)
	}

	phone := strings.TrimSpace(lead.Phone)
	if phone == "" {
		return Default
	}

	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	best := ""
	match := ""

	for prefix, loc := range phonePrefixes {
		if strings.HasPrefix(phone, prefix) && len(prefix) > len(best) {
			best = prefix
			match = loc
		}
	}

	if match == "" {
		return Default
	}

	return match
}

// Content selects the message and subject for a locale: translation
// overrides apply field by field, defaults pass through unchanged.
func Content(cfg models.MessagingConfig, loc string) (message, subject string) {
	message = cfg.Message
	subject = cfg.Subject

	tr, ok := cfg.Translations[loc]
	if !ok {
		return message, subject
	}

	if tr.Message != "" {
		message = tr.Message
	}

	if tr.Subject != "" {
		subject = tr.Subject
	}

	return message, subject
}
