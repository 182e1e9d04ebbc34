// internal/app/system/access/gate.go

// Package access decides whether a user is locked out of the app based
// on subscription and seat state, and mediates seat allocation against
// the directory service.
//
// The lockout decision is a pure function over five ordered layers; the
// first matching layer denies and its reason names the user-visible
// message. Nothing here is cached beyond the currently published value:
// the decision is recomputed on every app-foreground event and after
// every successful company sync, so a stale lockout can never outlive a
// fresh sync.
package access

import (
	"errors"

	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
)

var (
	// ErrNotAuthorized means a non-admin attempted a seat operation.
	ErrNotAuthorized = errors.New("access: admin privileges required")
	// ErrSelfRemoval means an admin tried to remove their own seat.
	ErrSelfRemoval = errors.New("access: cannot remove your own seat")
	// ErrNoSeatsAvailable means the company has no free seats.
	ErrNoSeatsAvailable = errors.New("access: no seats available")
	// ErrSyncFailed means the remote seat update did not go through;
	// local state was left untouched.
	ErrSyncFailed = errors.New("access: seat update failed to sync")
)

// LockoutReason identifies which layer denied access.
type LockoutReason string

const (
	ReasonNone                  LockoutReason = ""
	ReasonNoCompany             LockoutReason = "no_company"
	ReasonStatusUnknown         LockoutReason = "status_unknown"
	ReasonSeatsMisconfigured    LockoutReason = "seats_misconfigured"
	ReasonSeatIntegrity         LockoutReason = "seat_integrity"
	ReasonSubscriptionExpired   LockoutReason = "subscription_expired"
	ReasonSubscriptionCancelled LockoutReason = "subscription_cancelled"
	ReasonTrialExpired          LockoutReason = "trial_expired"
	ReasonNoSeat                LockoutReason = "no_seat"
)

// Message returns the user-facing lockout message for the reason.
func (r LockoutReason) Message() string {
	switch r {
	case ReasonNoCompany:
		return "Your account is not linked to a company."
	case ReasonStatusUnknown:
		return "Your company's subscription could not be verified."
	case ReasonSeatsMisconfigured:
		return "Your company's subscription has no seats configured."
	case ReasonSeatIntegrity:
		return "Your company's seat allocation needs attention. Contact your administrator."
	case ReasonSubscriptionExpired:
		return "Your company's subscription has expired."
	case ReasonSubscriptionCancelled:
		return "Your company's subscription was cancelled."
	case ReasonTrialExpired:
		return "Your company's trial has ended."
	case ReasonNoSeat:
		return "No seat is assigned to you. Ask your administrator for one."
	default:
		return ""
	}
}

// LockoutInput is everything the decision needs, pre-resolved so the
// function stays referentially pure.
type LockoutInput struct {
	HasCompany  bool
	Status      models.SubscriptionStatus
	StatusKnown bool
	MaxSeats    int
	SeatedCount int
	UserHasSeat bool

	TrialDaysRemaining int
	TrialDaysKnown     bool
}

// Decision is the outcome of one lockout evaluation.
type Decision struct {
	Lockout bool
	Reason  LockoutReason
}

// Evaluate runs the five deny layers in order and returns the first hit.
//
//	1. no company resolvable
//	2. subscription status missing or unparseable
//	3. max seats not positive
//	4. more seats occupied than allowed (data integrity, never healed here)
//	5. status-specific: expired/cancelled always deny; trial denies when
//	   days remaining are unknown or exhausted; active/grace deny a user
//	   without a seat
func Evaluate(in LockoutInput) Decision {
	if !in.HasCompany {
		return Decision{Lockout: true, Reason: ReasonNoCompany}
	}
	if !in.StatusKnown {
		return Decision{Lockout: true, Reason: ReasonStatusUnknown}
	}
	if in.MaxSeats <= 0 {
		return Decision{Lockout: true, Reason: ReasonSeatsMisconfigured}
	}
	if in.SeatedCount > in.MaxSeats {
		return Decision{Lockout: true, Reason: ReasonSeatIntegrity}
	}
	switch in.Status {
	case models.SubscriptionExpired:
		return Decision{Lockout: true, Reason: ReasonSubscriptionExpired}
	case models.SubscriptionCancelled:
		return Decision{Lockout: true, Reason: ReasonSubscriptionCancelled}
	case models.SubscriptionTrial:
		if !in.TrialDaysKnown || in.TrialDaysRemaining <= 0 {
			return Decision{Lockout: true, Reason: ReasonTrialExpired}
		}
	case models.SubscriptionActive, models.SubscriptionGrace:
		if !in.UserHasSeat {
			return Decision{Lockout: true, Reason: ReasonNoSeat}
		}
	}
	return Decision{}
}

// ShouldLockout is the boolean form of Evaluate.
func ShouldLockout(in LockoutInput) bool {
	return Evaluate(in).Lockout
}
