// internal/app/system/notify/filter.go
package notify

import (
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
)

// ShouldDeliver applies the user's delivery preferences to one emission.
// Order matters: an active mute short-circuits everything, then quiet
// hours suppress non-critical types, then the priority tier applies.
func ShouldDeliver(prefs models.NotificationPreferences, t EventType, now time.Time) bool {
	if prefs.Muted(now) {
		return false
	}
	if t.Priority() < PriorityCritical && inQuietHours(prefs, now.Hour()) {
		return false
	}
	switch prefs.PriorityFilter {
	case models.PriorityFilterImportant:
		return t.Priority() >= PriorityImportant
	case models.PriorityFilterCritical:
		return t.Priority() >= PriorityCritical
	default:
		return true
	}
}

// inQuietHours evaluates the hour-of-day window. A window whose start is
// after its end spans midnight; start equal to end is a degenerate
// window that never suppresses.
func inQuietHours(prefs models.NotificationPreferences, hour int) bool {
	start, end := prefs.QuietStartHour, prefs.QuietEndHour
	if start < 0 || end < 0 || start == end {
		return false
	}
	if start > end {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}
