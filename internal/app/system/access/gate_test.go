package access_test

import (
	"testing"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/access"
	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
)

func activeSeated() access.LockoutInput {
	return access.LockoutInput{
		HasCompany:  true,
		Status:      models.SubscriptionActive,
		StatusKnown: true,
		MaxSeats:    5,
		SeatedCount: 3,
		UserHasSeat: true,
	}
}

func TestEvaluate_Layers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*access.LockoutInput)
		want   access.LockoutReason
	}{
		{"allow when healthy", func(in *access.LockoutInput) {}, access.ReasonNone},
		{"no company", func(in *access.LockoutInput) { in.HasCompany = false }, access.ReasonNoCompany},
		{"status unknown", func(in *access.LockoutInput) { in.StatusKnown = false }, access.ReasonStatusUnknown},
		{"zero seats", func(in *access.LockoutInput) { in.MaxSeats = 0 }, access.ReasonSeatsMisconfigured},
		{"negative seats", func(in *access.LockoutInput) { in.MaxSeats = -1 }, access.ReasonSeatsMisconfigured},
		{"over capacity", func(in *access.LockoutInput) { in.SeatedCount = 6 }, access.ReasonSeatIntegrity},
		{"expired", func(in *access.LockoutInput) { in.Status = models.SubscriptionExpired }, access.ReasonSubscriptionExpired},
		{"cancelled", func(in *access.LockoutInput) { in.Status = models.SubscriptionCancelled }, access.ReasonSubscriptionCancelled},
		{"active without seat", func(in *access.LockoutInput) { in.UserHasSeat = false }, access.ReasonNoSeat},
		{"grace without seat", func(in *access.LockoutInput) {
			in.Status = models.SubscriptionGrace
			in.UserHasSeat = false
		}, access.ReasonNoSeat},
		{"grace with seat allows", func(in *access.LockoutInput) { in.Status = models.SubscriptionGrace }, access.ReasonNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := activeSeated()
			tt.mutate(&in)
			d := access.Evaluate(in)
			if d.Reason != tt.want {
				t.Errorf("reason: got %q, want %q", d.Reason, tt.want)
			}
			if d.Lockout != (tt.want != access.ReasonNone) {
				t.Errorf("lockout: got %v for reason %q", d.Lockout, d.Reason)
			}
		})
	}
}

func TestEvaluate_LayerPrecedence(t *testing.T) {
	// Status unknown and over-capacity at once: the earlier layer wins.
	in := activeSeated()
	in.StatusKnown = false
	in.SeatedCount = 99
	if d := access.Evaluate(in); d.Reason != access.ReasonStatusUnknown {
		t.Errorf("reason: got %q, want status_unknown", d.Reason)
	}
}

func TestEvaluate_TrialDays(t *testing.T) {
	in := activeSeated()
	in.Status = models.SubscriptionTrial

	in.TrialDaysKnown = true
	in.TrialDaysRemaining = 0
	if !access.ShouldLockout(in) {
		t.Error("trial with 0 days remaining must lock out")
	}

	in.TrialDaysRemaining = 1
	if access.ShouldLockout(in) {
		t.Error("trial with 1 day remaining must not lock out")
	}

	in.TrialDaysKnown = false
	if !access.ShouldLockout(in) {
		t.Error("trial with unknown days remaining must lock out")
	}
}

func TestEvaluate_OverCapacityBeatsEveryStatus(t *testing.T) {
	for _, status := range []models.SubscriptionStatus{
		models.SubscriptionTrial,
		models.SubscriptionActive,
		models.SubscriptionGrace,
		models.SubscriptionExpired,
		models.SubscriptionCancelled,
	} {
		in := activeSeated()
		in.Status = status
		in.MaxSeats = 5
		in.SeatedCount = 6
		d := access.Evaluate(in)
		if !d.Lockout || d.Reason != access.ReasonSeatIntegrity {
			t.Errorf("status %s: got %+v, want seat_integrity lockout", status, d)
		}
	}
}

func TestEvaluate_Pure(t *testing.T) {
	in := activeSeated()
	in.Status = models.SubscriptionTrial
	in.TrialDaysKnown = true
	in.TrialDaysRemaining = 3
	first := access.Evaluate(in)
	for i := 0; i < 100; i++ {
		if got := access.Evaluate(in); got != first {
			t.Fatalf("evaluation not pure: %+v then %+v", first, got)
		}
	}
}
