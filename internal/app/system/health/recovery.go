// internal/app/system/health/recovery.go
package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ExecuteRecoveryAction performs one recovery action, once. Recovery is
// single-shot: if the repair fails the error is returned and the next
// health check decides what happens, there is no internal retry loop.
func (m *Monitor) ExecuteRecoveryAction(ctx context.Context, sess Session, action Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Info("executing recovery action", zap.String("action", string(action.Kind)))

	switch action.Kind {
	case ActionNone:
		return nil

	case ActionLogout:
		m.setCurrent(nil)
		sess.Clear()
		return nil

	case ActionReturnToOnboarding:
		step := action.OnboardingStep
		if step == "" {
			step = OnboardingStepCompanyCode
		}
		sess.RequireOnboarding(step)
		return nil

	case ActionFetchUser:
		return m.refetchUser(ctx, sess.CurrentUserID())

	case ActionFetchCompany:
		return m.refetchCompany(ctx, sess.CurrentUserID())

	case ActionReinitializeSyncEngine:
		return m.reinitializeSyncEngine(ctx)

	default:
		return fmt.Errorf("unknown recovery action %q", action.Kind)
	}
}

func (m *Monitor) refetchUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("refetch user: no user id in session")
	}
	if m.cfg.Directory == nil || m.cfg.Users == nil {
		return fmt.Errorf("refetch user: directory or store unavailable")
	}
	remote, err := m.cfg.Directory.FetchUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("refetch user %s: %w", userID, err)
	}
	merged, err := m.cfg.Users.MergeFromRemote(ctx, remote)
	if err != nil {
		return fmt.Errorf("persist refetched user %s: %w", userID, err)
	}
	m.setCurrent(&merged)
	return nil
}

func (m *Monitor) refetchCompany(ctx context.Context, userID string) error {
	if m.cfg.Directory == nil || m.cfg.Companies == nil {
		return fmt.Errorf("refetch company: directory or store unavailable")
	}
	u, ok := m.loadUser(ctx, userID)
	if !ok || u.CompanyID == nil || *u.CompanyID == "" {
		return fmt.Errorf("refetch company: user %s has no company id", userID)
	}
	remote, err := m.cfg.Directory.FetchCompany(ctx, *u.CompanyID)
	if err != nil {
		return fmt.Errorf("refetch company %s: %w", *u.CompanyID, err)
	}
	if _, err := m.cfg.Companies.MergeFromRemote(ctx, remote); err != nil {
		return fmt.Errorf("persist refetched company %s: %w", *u.CompanyID, err)
	}
	return nil
}

// reinitializeSyncEngine re-runs the attach sequence, waits out a short
// grace period, then verifies the engine actually came up.
func (m *Monitor) reinitializeSyncEngine(ctx context.Context) error {
	if m.cfg.Reattach == nil {
		return fmt.Errorf("reinitialize sync engine: no reattach hook configured")
	}
	if err := m.cfg.Reattach(ctx); err != nil {
		return fmt.Errorf("reattach sync engine: %w", err)
	}

	select {
	case <-time.After(m.cfg.GraceDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if m.cfg.Engine == nil || !m.cfg.Engine.Ready() {
		return fmt.Errorf("sync engine still not ready after reattach")
	}
	m.log.Info("sync engine reinitialized")
	return nil
}
