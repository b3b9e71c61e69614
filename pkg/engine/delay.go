package engine

import (
	"time"

	"github.com/leadflowhq/leadflow/pkg/models"
)

// Business-hours send window, in the tenant's local time.
const (
	windowOpenHour  = 9
	windowCloseHour = 18
)

// maxDelay caps any in-process suspension. A run never sleeps longer than
// this regardless of configuration; longer pauses belong in a scheduler, not
// a held goroutine.
const maxDelay = time.Hour

// delayDuration computes how long a delay node suspends the run: the
// configured duration, shortened to the start of the tenant's next send
// window when the clock is currently outside it, and hard-capped. The tenant
// timezone falls back to UTC when unset or invalid.
func delayDuration(cfg models.DelayConfig, org *models.Organization, now time.Time) time.Duration {
	wait := cfg.Duration()
	if wait > maxDelay {
		wait = maxDelay
	}

	local := now.In(tenantLocation(org))

	if until, outside := untilWindowOpen(local); outside && until < wait {
		wait = until
	}

	if wait < 0 {
		wait = 0
	}

	return wait
}

func tenantLocation(org *models.Organization) *time.Location {
	if org == nil || org.Settings.Timezone == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(org.Settings.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

// untilWindowOpen reports whether the local time is outside the send window
// and, if so, how long until the window next opens.
func untilWindowOpen(local time.Time) (time.Duration, bool) {
	hour := local.Hour()
	if hour >= windowOpenHour && hour < windowCloseHour {
		return 0, false
	}

	next := time.Date(local.Year(), local.Month(), local.Day(), windowOpenHour, 0, 0, 0, local.Location())
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}

	return next.Sub(local), true
}
