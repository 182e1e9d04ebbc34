package notify_test

import (
	"testing"
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/notify"
	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
)

func atHour(hour int) time.Time {
	return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
}

func TestShouldDeliver_QuietHoursSpanningMidnight(t *testing.T) {
	prefs := models.DefaultNotificationPreferences("u-1")
	prefs.QuietStartHour = 22
	prefs.QuietEndHour = 7

	tests := []struct {
		hour int
		want bool
	}{
		{23, false},
		{6, false},
		{12, true},
		{22, false}, // boundary: window starts
		{7, true},   // boundary: window ended
	}
	for _, tt := range tests {
		got := notify.ShouldDeliver(prefs, notify.EventProjectUpdate, atHour(tt.hour))
		if got != tt.want {
			t.Errorf("hour %d: got %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestShouldDeliver_DegenerateQuietWindow(t *testing.T) {
	prefs := models.DefaultNotificationPreferences("u-1")
	prefs.QuietStartHour = 13
	prefs.QuietEndHour = 13

	for hour := 0; hour < 24; hour++ {
		if !notify.ShouldDeliver(prefs, notify.EventProjectUpdate, atHour(hour)) {
			t.Errorf("hour %d: start==end must never suppress", hour)
		}
	}
}

func TestShouldDeliver_CriticalBypassesQuietHours(t *testing.T) {
	prefs := models.DefaultNotificationPreferences("u-1")
	prefs.QuietStartHour = 22
	prefs.QuietEndHour = 7

	if !notify.ShouldDeliver(prefs, notify.EventSyncFailure, atHour(23)) {
		t.Error("critical events must bypass quiet hours")
	}
}

func TestShouldDeliver_MuteShortCircuits(t *testing.T) {
	now := atHour(12)
	prefs := models.DefaultNotificationPreferences("u-1")
	until := now.Add(time.Hour)
	prefs.MuteUntil = &until

	// Mute beats even critical events.
	if notify.ShouldDeliver(prefs, notify.EventSyncFailure, now) {
		t.Error("active mute must suppress everything")
	}

	// Expired mute no longer applies.
	expired := now.Add(-time.Minute)
	prefs.MuteUntil = &expired
	if !notify.ShouldDeliver(prefs, notify.EventProjectUpdate, now) {
		t.Error("expired mute must not suppress")
	}
}

func TestShouldDeliver_PriorityTiers(t *testing.T) {
	now := atHour(12)
	tests := []struct {
		filter string
		event  notify.EventType
		want   bool
	}{
		{models.PriorityFilterAll, notify.EventTaskCompleted, true},
		{models.PriorityFilterImportant, notify.EventTaskCompleted, false},
		{models.PriorityFilterImportant, notify.EventAssignment, true},
		{models.PriorityFilterCritical, notify.EventAssignment, false},
		{models.PriorityFilterCritical, notify.EventSyncFailure, true},
	}
	for _, tt := range tests {
		prefs := models.DefaultNotificationPreferences("u-1")
		prefs.PriorityFilter = tt.filter
		if got := notify.ShouldDeliver(prefs, tt.event, now); got != tt.want {
			t.Errorf("filter=%s event=%s: got %v, want %v", tt.filter, tt.event, got, tt.want)
		}
	}
}
