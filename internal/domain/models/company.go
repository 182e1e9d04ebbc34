// internal/domain/models/company.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStatus is the parsed subscription state of a company.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionGrace     SubscriptionStatus = "grace"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// ParseSubscriptionStatus maps the directory service's raw status string
// to a known state. The second return is false for empty or unrecognized
// values, which callers must treat as "status absent".
func ParseSubscriptionStatus(raw string) (SubscriptionStatus, bool) {
	switch SubscriptionStatus(raw) {
	case SubscriptionTrial, SubscriptionActive, SubscriptionGrace,
		SubscriptionExpired, SubscriptionCancelled:
		return SubscriptionStatus(raw), true
	default:
		return "", false
	}
}

// Company is the subscribing organization a user belongs to.
//
// SubscriptionStatus is stored raw as received from the directory
// service; use Subscription to get the parsed value. The seat invariant
// len(SeatedEmployeeIDs) <= MaxSeats is checked by the access gate and
// never auto-healed here: a violation is a data-integrity error, not
// something to silently truncate.
type Company struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CompanyID          string             `bson:"company_id" json:"company_id"`
	Name               string             `bson:"name" json:"name"`
	SubscriptionStatus string             `bson:"subscription_status,omitempty" json:"subscription_status,omitempty"`
	MaxSeats           int                `bson:"max_seats" json:"max_seats"`
	SeatedEmployeeIDs  []string           `bson:"seated_employee_ids,omitempty" json:"seated_employee_ids,omitempty"`
	AdminIDs           []string           `bson:"admin_ids,omitempty" json:"admin_ids,omitempty"`
	TrialEndsAt        *time.Time         `bson:"trial_ends_at,omitempty" json:"trial_ends_at,omitempty"`
	GraceEndsAt        *time.Time         `bson:"grace_ends_at,omitempty" json:"grace_ends_at,omitempty"`

	LastSyncedAt *time.Time `bson:"last_synced_at,omitempty" json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// Subscription returns the parsed subscription status; ok is false when
// the raw value is missing or unparseable.
func (c *Company) Subscription() (SubscriptionStatus, bool) {
	return ParseSubscriptionStatus(c.SubscriptionStatus)
}

// IsAdmin reports whether the user id is a company admin.
func (c *Company) IsAdmin(userID string) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasSeat reports whether the user id holds a seat.
func (c *Company) HasSeat(userID string) bool {
	for _, id := range c.SeatedEmployeeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// TrialDaysRemaining returns whole days left in the trial, rounding up so
// a trial ending later today still counts as one day. ok is false when no
// trial end date is known.
func (c *Company) TrialDaysRemaining(now time.Time) (int, bool) {
	if c.TrialEndsAt == nil {
		return 0, false
	}
	remaining := c.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0, true
	}
	days := int((remaining + 24*time.Hour - 1) / (24 * time.Hour))
	return days, true
}
