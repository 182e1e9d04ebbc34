// internal/app/system/access/seats.go
package access

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SeatDirectory is the slice of the directory client the gate needs:
// the authoritative seat update. The server's returned list wins.
type SeatDirectory interface {
	UpdateCompanySeats(ctx context.Context, companyID string, seatedIDs []string) (models.Company, error)
}

// CompanySource is the slice of the company store the gate needs.
type CompanySource interface {
	GetByCompanyID(ctx context.Context, companyID string) (*models.Company, error)
	ReplaceSeats(ctx context.Context, companyID string, seatedIDs []string) error
}

// Status is the published subscription/lockout state for one user.
type Status struct {
	Lockout            bool       `json:"lockout"`
	Reason             string     `json:"reason,omitempty"`
	Message            string     `json:"message,omitempty"`
	SubscriptionStatus string     `json:"subscription_status,omitempty"`
	TrialDaysRemaining *int       `json:"trial_days_remaining,omitempty"`
	GraceEndsAt        *time.Time `json:"grace_ends_at,omitempty"`
	SeatedCount        int        `json:"seated_count"`
	MaxSeats           int        `json:"max_seats"`
	CheckedAt          time.Time  `json:"checked_at"`
}

// Gate recomputes lockout state and mediates seat changes. Seat
// mutations on the same company are serialized through a per-company
// mutex; concurrent mutations on different companies proceed freely.
type Gate struct {
	companies CompanySource
	dir       SeatDirectory
	log       *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	published map[string]Status // keyed by user id

	seatMu    sync.Mutex
	companyMu map[string]*sync.Mutex
}

// NewGate builds the access gate.
func NewGate(companies CompanySource, dir SeatDirectory, logger *zap.Logger) *Gate {
	return &Gate{
		companies: companies,
		dir:       dir,
		log:       logger,
		now:       time.Now,
		published: make(map[string]Status),
		companyMu: make(map[string]*sync.Mutex),
	}
}

// CheckSubscriptionStatus recomputes the lockout decision for a user
// from the locally cached company and publishes it. Callers invoke it on
// every app-foreground event and after every successful company sync.
func (g *Gate) CheckSubscriptionStatus(ctx context.Context, userID, companyID string) (Status, error) {
	now := g.now()
	in := LockoutInput{}
	st := Status{CheckedAt: now}

	var company *models.Company
	if companyID != "" {
		c, err := g.companies.GetByCompanyID(ctx, companyID)
		if err == nil {
			company = c
		} else if !isNotFound(err) {
			return Status{}, fmt.Errorf("load company %s: %w", companyID, err)
		}
	}

	if company != nil {
		in.HasCompany = true
		in.Status, in.StatusKnown = company.Subscription()
		in.MaxSeats = company.MaxSeats
		in.SeatedCount = len(company.SeatedEmployeeIDs)
		in.UserHasSeat = company.HasSeat(userID)
		in.TrialDaysRemaining, in.TrialDaysKnown = company.TrialDaysRemaining(now)

		st.SubscriptionStatus = company.SubscriptionStatus
		st.SeatedCount = in.SeatedCount
		st.MaxSeats = in.MaxSeats
		st.GraceEndsAt = company.GraceEndsAt
		if in.StatusKnown && in.Status == models.SubscriptionTrial && in.TrialDaysKnown {
			days := in.TrialDaysRemaining
			st.TrialDaysRemaining = &days
		}
	}

	d := Evaluate(in)
	st.Lockout = d.Lockout
	st.Reason = string(d.Reason)
	st.Message = d.Reason.Message()

	g.mu.Lock()
	g.published[userID] = st
	g.mu.Unlock()

	if st.Lockout {
		g.log.Info("user locked out",
			zap.String("user_id", userID),
			zap.String("reason", st.Reason))
	}
	return st, nil
}

// Published returns the last computed status for a user, if any. It is
// only a convenience for read paths; decision points must call
// CheckSubscriptionStatus.
func (g *Gate) Published(userID string) (Status, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.published[userID]
	return st, ok
}

// AddSeat grants a seat to userID on behalf of actorID. Admin-only. The
// locally desired list is sent to the directory service and, only on
// success, the local list is replaced with the server-returned one.
func (g *Gate) AddSeat(ctx context.Context, actorID, userID, companyID string) error {
	unlock := g.lockCompany(companyID)
	defer unlock()

	company, err := g.companies.GetByCompanyID(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load company %s: %w", companyID, err)
	}
	if !company.IsAdmin(actorID) {
		return ErrNotAuthorized
	}
	if company.HasSeat(userID) {
		return nil // already seated
	}
	if len(company.SeatedEmployeeIDs) >= company.MaxSeats {
		return ErrNoSeatsAvailable
	}

	desired := append(append([]string(nil), company.SeatedEmployeeIDs...), userID)
	return g.applySeatUpdate(ctx, companyID, desired)
}

// RemoveSeat revokes userID's seat on behalf of actorID. Admin-only, and
// an admin can never remove their own seat.
func (g *Gate) RemoveSeat(ctx context.Context, actorID, userID, companyID string) error {
	unlock := g.lockCompany(companyID)
	defer unlock()

	company, err := g.companies.GetByCompanyID(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load company %s: %w", companyID, err)
	}
	if !company.IsAdmin(actorID) {
		return ErrNotAuthorized
	}
	if actorID == userID {
		return ErrSelfRemoval
	}
	if !company.HasSeat(userID) {
		return nil // nothing to remove
	}

	desired := make([]string, 0, len(company.SeatedEmployeeIDs))
	for _, id := range company.SeatedEmployeeIDs {
		if id != userID {
			desired = append(desired, id)
		}
	}
	return g.applySeatUpdate(ctx, companyID, desired)
}

// applySeatUpdate performs the remote mutation and adopts the server's
// answer. On failure the local list is untouched and the error is
// surfaced once; no automatic retry.
func (g *Gate) applySeatUpdate(ctx context.Context, companyID string, desired []string) error {
	updated, err := g.dir.UpdateCompanySeats(ctx, companyID, desired)
	if err != nil {
		g.log.Warn("remote seat update failed, local seats unchanged",
			zap.String("company_id", companyID),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	if err := g.companies.ReplaceSeats(ctx, companyID, updated.SeatedEmployeeIDs); err != nil {
		return fmt.Errorf("persist seat list: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func (g *Gate) lockCompany(companyID string) func() {
	g.seatMu.Lock()
	mu, ok := g.companyMu[companyID]
	if !ok {
		mu = &sync.Mutex{}
		g.companyMu[companyID] = mu
	}
	g.seatMu.Unlock()
	mu.Lock()
	return mu.Unlock
}
