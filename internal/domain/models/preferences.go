// internal/domain/models/preferences.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Priority filter tiers for notification delivery.
const (
	PriorityFilterAll       = "all"
	PriorityFilterImportant = "important" // important and critical only
	PriorityFilterCritical  = "critical"  // critical only
)

// NotificationPreferences are the per-user delivery settings read (never
// written) by the notification subsystem.
//
// Quiet hours are hours of day in the user's local time. A window with
// QuietStartHour > QuietEndHour spans midnight; QuietStartHour equal to
// QuietEndHour disables the window. Hours of -1 also disable it.
type NotificationPreferences struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID         string             `bson:"user_id" json:"user_id"`
	QuietStartHour int                `bson:"quiet_start_hour" json:"quiet_start_hour"`
	QuietEndHour   int                `bson:"quiet_end_hour" json:"quiet_end_hour"`
	MuteUntil      *time.Time         `bson:"mute_until,omitempty" json:"mute_until,omitempty"`
	PriorityFilter string             `bson:"priority_filter,omitempty" json:"priority_filter,omitempty"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultNotificationPreferences returns the settings used when a user has
// never saved any: everything delivered, no quiet hours, no mute.
func DefaultNotificationPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{
		UserID:         userID,
		QuietStartHour: -1,
		QuietEndHour:   -1,
		PriorityFilter: PriorityFilterAll,
	}
}

// Muted reports whether a temporary mute is still in effect at now.
// An expired MuteUntil no longer suppresses anything; it simply stops
// applying, which is the auto-clear behavior callers rely on.
func (p *NotificationPreferences) Muted(now time.Time) bool {
	return p.MuteUntil != nil && now.Before(*p.MuteUntil)
}
