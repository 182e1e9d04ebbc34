// internal/app/system/syncpass/runner.go

// Package syncpass orchestrates one full sync pass: pre-flight, batch
// collection, remote refresh, reconciliation, and the final flush.
package syncpass

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/access"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/health"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/notify"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/reconcile"
	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.uber.org/zap"
)

// ErrPreflightFailed means the health predicates refused the pass; the
// caller should run a health check instead of retrying blindly.
var ErrPreflightFailed = errors.New("sync pre-flight failed: minimum required data or sync engine missing")

// Preflight is the slice of the health monitor the runner needs.
type Preflight interface {
	CanPerformSync(ctx context.Context, sess health.Session) bool
}

// Batch is the slice of the notification collector the runner drives
// through one collect-to-flush cycle.
type Batch interface {
	StartBatch()
	Add(ctx context.Context, e notify.Event)
	FlushBatch(ctx context.Context)
	CancelBatch()
}

// BatchSource hands out the per-user collector.
type BatchSource interface {
	For(userID string) Batch
}

// Directory is the slice of the directory client the runner needs.
type Directory interface {
	FetchUser(ctx context.Context, userID string) (models.User, error)
	FetchCompany(ctx context.Context, companyID string) (models.Company, error)
	Online() bool
}

// UserStore is the slice of the user store the runner needs.
type UserStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	All(ctx context.Context) ([]models.User, error)
	MergeFromRemote(ctx context.Context, u models.User) (models.User, error)
}

// ProjectStore is the slice of the project store the runner needs.
type ProjectStore interface {
	All(ctx context.Context) ([]models.Project, error)
}

// CompanyStore is the slice of the company store the runner needs.
type CompanyStore interface {
	MergeFromRemote(ctx context.Context, c models.Company) (models.Company, error)
}

// StatusChecker recomputes the lockout decision after a company fetch.
type StatusChecker interface {
	CheckSubscriptionStatus(ctx context.Context, userID, companyID string) (access.Status, error)
}

// ReconcilerFactory binds a reconciler to the pass's event sink.
type ReconcilerFactory func(sink reconcile.EventSink) *reconcile.Reconciler

// Report summarizes one pass. PassID correlates the report with the
// pass's log lines.
type Report struct {
	PassID               string `json:"pass_id"`
	UsersRefreshed       int    `json:"users_refreshed"`
	PlaceholdersEnriched int    `json:"placeholders_enriched"`
	GroupsMerged         int    `json:"groups_merged"`
	DuplicatesRemoved    int    `json:"duplicates_removed"`
	EdgesRepaired        int    `json:"edges_repaired"`
	MembersLinked        int    `json:"members_linked"`
	PlaceholdersCreated  int    `json:"placeholders_created"`
	EventsBatched        int    `json:"events_batched"`
}

// Runner drives sync passes. One Runner serves every user; the
// per-user collector comes from the BatchSource.
type Runner struct {
	monitor    Preflight
	collectors BatchSource
	dir        Directory
	users      UserStore
	projects   ProjectStore
	companies  CompanyStore
	gate       StatusChecker
	reconciler ReconcilerFactory
	log        *zap.Logger
}

// NewRunner builds a Runner.
func NewRunner(
	monitor Preflight,
	collectors BatchSource,
	dir Directory,
	users UserStore,
	projects ProjectStore,
	companies CompanyStore,
	gate StatusChecker,
	reconciler ReconcilerFactory,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		monitor:    monitor,
		collectors: collectors,
		dir:        dir,
		users:      users,
		projects:   projects,
		companies:  companies,
		gate:       gate,
		reconciler: reconciler,
		log:        logger,
	}
}

// countingSink forwards events to the batch and counts them for the
// pass report.
type countingSink struct {
	batch Batch
	n     int
}

func (s *countingSink) Add(ctx context.Context, e notify.Event) {
	s.n++
	s.batch.Add(ctx, e)
}

// Run executes one sync pass for the session's user. Any pass-level
// failure cancels the batch so no partial-notification spam escapes,
// and the error is returned.
func (r *Runner) Run(ctx context.Context, sess health.Session) (Report, error) {
	var report Report

	if !r.monitor.CanPerformSync(ctx, sess) {
		return report, ErrPreflightFailed
	}
	userID := sess.CurrentUserID()
	passID := uuid.NewString()
	report.PassID = passID
	log := r.log.With(zap.String("pass_id", passID), zap.String("user_id", userID))

	batch := r.collectors.For(userID)
	batch.StartBatch()
	sink := &countingSink{batch: batch}

	if err := r.pass(ctx, userID, sink, &report); err != nil {
		batch.CancelBatch()
		log.Warn("sync pass failed, batch cancelled", zap.Error(err))
		return report, err
	}

	report.EventsBatched = sink.n
	batch.FlushBatch(ctx)
	log.Info("sync pass complete",
		zap.Int("groups_merged", report.GroupsMerged),
		zap.Int("members_linked", report.MembersLinked),
		zap.Int("events", report.EventsBatched))
	return report, nil
}

func (r *Runner) pass(ctx context.Context, userID string, sink reconcile.EventSink, report *Report) error {
	// Refresh the current user and their company from the directory.
	remote, err := r.dir.FetchUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("refresh user %s: %w", userID, err)
	}
	merged, err := r.users.MergeFromRemote(ctx, remote)
	if err != nil {
		return fmt.Errorf("persist refreshed user %s: %w", userID, err)
	}
	report.UsersRefreshed++

	if merged.CompanyID != nil && *merged.CompanyID != "" {
		companyID := *merged.CompanyID
		company, err := r.dir.FetchCompany(ctx, companyID)
		if err != nil {
			return fmt.Errorf("refresh company %s: %w", companyID, err)
		}
		if _, err := r.companies.MergeFromRemote(ctx, company); err != nil {
			return fmt.Errorf("persist refreshed company %s: %w", companyID, err)
		}
		// Lockout state is recomputed after every successful company fetch.
		if _, err := r.gate.CheckSubscriptionStatus(ctx, userID, companyID); err != nil {
			r.log.Warn("lockout recompute failed after company fetch",
				zap.String("company_id", companyID),
				zap.Error(err))
		}
	}

	r.enrichPlaceholders(ctx, report)

	rec := r.reconciler(sink)

	candidates, err := r.users.All(ctx)
	if err != nil {
		return fmt.Errorf("load reconciliation candidates: %w", err)
	}
	dupes, err := rec.ReconcileDuplicates(ctx, candidates)
	if err != nil {
		return fmt.Errorf("reconcile duplicates: %w", err)
	}
	report.GroupsMerged += dupes.GroupsMerged
	report.DuplicatesRemoved += dupes.DuplicatesRemoved
	report.EdgesRepaired += dupes.EdgesRepaired

	projects, err := r.projects.All(ctx)
	if err != nil {
		return fmt.Errorf("load projects for team repair: %w", err)
	}
	for i := range projects {
		teamRep, err := rec.ReconcileProjectTeamMembers(ctx, &projects[i])
		if err != nil {
			return fmt.Errorf("repair project %s: %w", projects[i].ProjectID, err)
		}
		report.MembersLinked += teamRep.MembersLinked
		report.EdgesRepaired += teamRep.EdgesRepaired
		report.PlaceholdersCreated += teamRep.PlaceholdersCreated
	}
	return nil
}

// enrichPlaceholders upgrades offline-synthesized users with real
// directory data. Individual failures are logged and skipped; the pass
// keeps going.
func (r *Runner) enrichPlaceholders(ctx context.Context, report *Report) {
	if !r.dir.Online() {
		return
	}
	all, err := r.users.All(ctx)
	if err != nil {
		r.log.Warn("placeholder scan failed", zap.Error(err))
		return
	}
	for i := range all {
		if !all[i].Placeholder && !all[i].NeedsSync {
			continue
		}
		remote, err := r.dir.FetchUser(ctx, all[i].UserID)
		if err != nil {
			r.log.Warn("placeholder enrichment fetch failed",
				zap.String("user_id", all[i].UserID),
				zap.Error(err))
			continue
		}
		if _, err := r.users.MergeFromRemote(ctx, remote); err != nil {
			r.log.Warn("placeholder enrichment persist failed",
				zap.String("user_id", all[i].UserID),
				zap.Error(err))
			continue
		}
		report.PlaceholdersEnriched++
	}
}
