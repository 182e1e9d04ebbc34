// internal/app/system/health/monitor.go
package health

import (
	"context"
	"sync"
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.uber.org/zap"
)

// Session is the slice of the device session the monitor reads and
// repairs. auth.DeviceSession satisfies it.
type Session interface {
	CurrentUserID() string
	Clear()
	RequireOnboarding(step string)
}

// UserSource is the slice of the user store the monitor needs.
type UserSource interface {
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	MergeFromRemote(ctx context.Context, u models.User) (models.User, error)
}

// CompanySource is the slice of the company store the monitor needs.
type CompanySource interface {
	GetByCompanyID(ctx context.Context, companyID string) (*models.Company, error)
	MergeFromRemote(ctx context.Context, c models.Company) (models.Company, error)
}

// DirectoryService is the slice of the directory client the monitor
// needs.
type DirectoryService interface {
	FetchUser(ctx context.Context, userID string) (models.User, error)
	FetchCompany(ctx context.Context, companyID string) (models.Company, error)
}

// SyncEngine is whatever drives sync passes; the monitor only needs to
// know whether it is attached and how to re-verify it.
type SyncEngine interface {
	Ready() bool
}

// Config wires a Monitor.
type Config struct {
	Users     UserSource
	Companies CompanySource
	Directory DirectoryService
	Engine    SyncEngine

	// Reattach re-runs the store-attach sequence when the sync engine
	// needs reinitializing. Optional.
	Reattach func(ctx context.Context) error

	// GraceDelay is how long ReinitializeSyncEngine waits before
	// re-verifying the engine. Defaults to 2s.
	GraceDelay time.Duration
}

// Monitor runs the ordered health checks. A mutex serializes whole
// check-and-recover invocations so two concurrent callers cannot
// interleave their repairs.
type Monitor struct {
	mu  sync.Mutex
	cfg Config
	log *zap.Logger

	stateMu         sync.Mutex
	current         *models.User
	lastHealthCheck time.Time
}

// NewMonitor builds a Monitor.
func NewMonitor(cfg Config, logger *zap.Logger) *Monitor {
	if cfg.GraceDelay <= 0 {
		cfg.GraceDelay = 2 * time.Second
	}
	return &Monitor{cfg: cfg, log: logger}
}

// checkFunc evaluates one layer. ok=true means the layer passed and the
// next one runs.
type checkFunc func(ctx context.Context, m *Monitor, sess Session) (State, Action, bool)

// checkTable is the fixed evaluation order. The first failing entry
// wins; when several conditions hold at once, the earlier row decides
// both the state and the action.
var checkTable = []struct {
	name string
	run  checkFunc
}{
	{"user-id", checkUserID},
	{"user-data", checkUserData},
	{"company-id", checkCompanyID},
	{"company-data", checkCompanyData},
	{"sync-engine", checkSyncEngine},
	{"store", checkStore},
}

// PerformHealthCheck evaluates the check table in order and returns the
// first failure with its recovery action, or Healthy/NoAction when
// everything passes.
func (m *Monitor) PerformHealthCheck(ctx context.Context, sess Session) (State, Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range checkTable {
		state, action, ok := c.run(ctx, m, sess)
		if !ok {
			m.log.Warn("health check failed",
				zap.String("check", c.name),
				zap.String("state", string(state)),
				zap.String("action", string(action.Kind)))
			return state, action
		}
	}

	m.stateMu.Lock()
	m.lastHealthCheck = time.Now()
	m.stateMu.Unlock()
	return StateHealthy, actionNone
}

// LastHealthCheck returns when the monitor last reported Healthy.
func (m *Monitor) LastHealthCheck() time.Time {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.lastHealthCheck
}

// HasMinimumRequiredData reports whether the session has a user id, a
// loadable user with a company id, and a locally cached company. It
// never fetches remotely and never mutates anything.
func (m *Monitor) HasMinimumRequiredData(ctx context.Context, sess Session) bool {
	userID := sess.CurrentUserID()
	if userID == "" {
		return false
	}
	u, ok := m.loadUser(ctx, userID)
	if !ok {
		return false
	}
	if u.CompanyID == nil || *u.CompanyID == "" {
		return false
	}
	if m.cfg.Companies == nil {
		return false
	}
	if _, err := m.cfg.Companies.GetByCompanyID(ctx, *u.CompanyID); err != nil {
		return false
	}
	return true
}

// CanPerformSync is the pre-flight gate before a sync pass: minimum
// data plus an attached engine and a reachable store.
func (m *Monitor) CanPerformSync(ctx context.Context, sess Session) bool {
	if m.cfg.Users == nil || m.cfg.Companies == nil {
		return false
	}
	if m.cfg.Engine == nil || !m.cfg.Engine.Ready() {
		return false
	}
	return m.HasMinimumRequiredData(ctx, sess)
}

/* individual checks, in table order */

func checkUserID(_ context.Context, _ *Monitor, sess Session) (State, Action, bool) {
	if sess.CurrentUserID() == "" {
		return StateMissingUserID, actionLogout, false
	}
	return "", Action{}, true
}

func checkUserData(ctx context.Context, m *Monitor, sess Session) (State, Action, bool) {
	if _, ok := m.loadUser(ctx, sess.CurrentUserID()); !ok {
		return StateMissingUserData, actionFetchUser, false
	}
	return "", Action{}, true
}

func checkCompanyID(ctx context.Context, m *Monitor, sess Session) (State, Action, bool) {
	u, _ := m.loadUser(ctx, sess.CurrentUserID())
	if u.CompanyID != nil && *u.CompanyID != "" {
		return "", Action{}, true
	}

	// The local copy has no company. Ask the directory before deciding:
	// a fresher remote copy may already carry one.
	if m.cfg.Directory == nil {
		return StateMissingCompanyID, actionOnboarding, false
	}
	remote, err := m.cfg.Directory.FetchUser(ctx, u.UserID)
	if err != nil {
		m.log.Warn("remote user fetch failed during health check",
			zap.String("user_id", u.UserID),
			zap.Error(err))
		return StateMissingUserData, actionLogout, false
	}
	if remote.CompanyID != nil && *remote.CompanyID != "" {
		// Adopt the remote company id locally and keep checking.
		if m.cfg.Users != nil {
			merged, err := m.cfg.Users.MergeFromRemote(ctx, remote)
			if err != nil {
				m.log.Error("adopting remote company id failed", zap.Error(err))
			} else {
				m.setCurrent(&merged)
			}
		}
		return "", Action{}, true
	}
	// Remote confirms there is no company: back to onboarding.
	return StateMissingCompanyID, actionOnboarding, false
}

func checkCompanyData(ctx context.Context, m *Monitor, sess Session) (State, Action, bool) {
	u, _ := m.loadUser(ctx, sess.CurrentUserID())
	if u == nil || u.CompanyID == nil {
		// company id was adopted this invocation; re-read the cache
		u = m.getCurrent()
	}
	if u == nil || u.CompanyID == nil || *u.CompanyID == "" {
		return StateMissingCompanyData, actionFetchCompany, false
	}
	if m.cfg.Companies == nil {
		return StateMissingCompanyData, actionFetchCompany, false
	}
	if _, err := m.cfg.Companies.GetByCompanyID(ctx, *u.CompanyID); err != nil {
		return StateMissingCompanyData, actionFetchCompany, false
	}
	return "", Action{}, true
}

func checkSyncEngine(_ context.Context, m *Monitor, _ Session) (State, Action, bool) {
	if m.cfg.Engine == nil || !m.cfg.Engine.Ready() {
		return StateSyncEngineNotInitialized, actionReinitialize, false
	}
	return "", Action{}, true
}

func checkStore(_ context.Context, m *Monitor, _ Session) (State, Action, bool) {
	if m.cfg.Users == nil || m.cfg.Companies == nil {
		return StateStoreUnavailable, actionLogout, false
	}
	return "", Action{}, true
}

/* in-memory current-user cache */

func (m *Monitor) loadUser(ctx context.Context, userID string) (*models.User, bool) {
	if userID == "" {
		return nil, false
	}
	m.stateMu.Lock()
	cur := m.current
	m.stateMu.Unlock()
	if cur != nil && cur.UserID == userID {
		return cur, true
	}
	if m.cfg.Users == nil {
		return nil, false
	}
	u, err := m.cfg.Users.GetByUserID(ctx, userID)
	if err != nil {
		return nil, false
	}
	m.setCurrent(u)
	return u, true
}

func (m *Monitor) getCurrent() *models.User {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.current
}

func (m *Monitor) setCurrent(u *models.User) {
	m.stateMu.Lock()
	m.current = u
	m.stateMu.Unlock()
}
