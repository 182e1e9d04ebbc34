// internal/app/system/reconcile/reconciler.go

// Package reconcile merges duplicate user records and repairs the
// bidirectional User↔Project relationship edges after a sync pass.
// Reconciliation is the only path that deletes entities.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/notify"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/txn"
	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UserStore is the slice of the user store the reconciler needs.
type UserStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	Save(ctx context.Context, u models.User) error
	BulkApply(ctx context.Context, updates []models.User, deleteIDs []primitive.ObjectID) error
}

// ProjectStore is the slice of the project store the reconciler needs.
type ProjectStore interface {
	GetByProjectID(ctx context.Context, projectID string) (*models.Project, error)
	Save(ctx context.Context, p models.Project) error
	BulkSave(ctx context.Context, projects []models.Project) error
}

// Directory is the slice of the directory client the reconciler needs.
// Online is the connectivity probe behind the placeholder branch.
type Directory interface {
	FetchUser(ctx context.Context, userID string) (models.User, error)
	Online() bool
}

// EventSink receives notification-worthy events during a sync pass.
// The batch collector satisfies it.
type EventSink interface {
	Add(ctx context.Context, e notify.Event)
}

// Report counts what a reconciliation pass changed.
type Report struct {
	GroupsMerged        int `json:"groups_merged"`
	DuplicatesRemoved   int `json:"duplicates_removed"`
	EdgesRepaired       int `json:"edges_repaired"`
	MembersLinked       int `json:"members_linked"`
	PlaceholdersCreated int `json:"placeholders_created"`
}

// Reconciler holds the stores and collaborators one pass works against.
type Reconciler struct {
	users    UserStore
	projects ProjectStore
	dir      Directory
	events   EventSink
	client   *mongo.Client
	log      *zap.Logger
}

// New builds a Reconciler. events may be nil when no pass is collecting.
func New(users UserStore, projects ProjectStore, dir Directory, events EventSink, client *mongo.Client, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		users:    users,
		projects: projects,
		dir:      dir,
		events:   events,
		client:   client,
		log:      logger,
	}
}

// ReconcileDuplicates collapses every group of user records sharing a
// user_id down to one survivor. The survivor is the record with the
// freshest non-nil last_synced_at; a timestamped record always outranks
// one without, and an all-nil group keeps its first member in the
// candidates' order. The survivor adopts the union of the group's
// project links, affected projects drop the duplicate edges, and the
// losers are deleted.
//
// Every group is merged in memory first, then the store changes land in
// one commit. If the commit fails the error is logged and returned; the
// in-memory merges are not rolled back.
func (r *Reconciler) ReconcileDuplicates(ctx context.Context, candidates []models.User) (Report, error) {
	var report Report

	groups := groupByUserID(candidates)

	var (
		survivors []models.User
		deleteIDs []primitive.ObjectID
		projEdits = map[string]*models.Project{} // keyed by project_id
	)

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		survivor := pickSurvivor(group)

		union := survivor.ProjectIDs
		for i := range group {
			if group[i].ID == survivor.ID {
				continue
			}
			for _, pid := range group[i].ProjectIDs {
				if !containsString(union, pid) {
					union = append(union, pid)
				}
			}
			deleteIDs = append(deleteIDs, group[i].ID)
			report.DuplicatesRemoved++
		}
		survivor.ProjectIDs = union

		// Repair the project side: every union project lists the id
		// exactly once.
		for _, pid := range union {
			p, err := r.loadProjectForEdit(ctx, projEdits, pid)
			if err != nil {
				r.log.Warn("project unavailable during duplicate merge",
					zap.String("project_id", pid),
					zap.Error(err))
				continue
			}
			if dedupeTeamMember(p, survivor.UserID) {
				report.EdgesRepaired++
			}
		}

		survivors = append(survivors, survivor)
		report.GroupsMerged++
		r.log.Info("merged duplicate user records",
			zap.String("user_id", survivor.UserID),
			zap.Int("duplicates", len(group)-1),
			zap.Int("projects", len(union)))
	}

	if len(survivors) == 0 && len(deleteIDs) == 0 {
		return report, nil
	}

	edited := make([]models.Project, 0, len(projEdits))
	for _, p := range projEdits {
		edited = append(edited, *p)
	}

	commit := func(ctx context.Context) error {
		if err := r.users.BulkApply(ctx, survivors, deleteIDs); err != nil {
			return fmt.Errorf("apply user merges: %w", err)
		}
		if err := r.projects.BulkSave(ctx, edited); err != nil {
			return fmt.Errorf("apply project edge repairs: %w", err)
		}
		return nil
	}

	var err error
	if r.client != nil {
		err = txn.WithTransaction(ctx, r.client, commit)
	} else {
		err = commit(ctx)
	}
	if err != nil {
		r.log.Error("reconciliation commit failed, in-memory merges not rolled back",
			zap.Int("groups", report.GroupsMerged),
			zap.Error(err))
		return report, err
	}
	return report, nil
}

// ReconcileProjectTeamMembers makes sure every id in the project's
// team_member_ids has a matching local user linked in both directions.
// A missing user is fetched from the directory when online, or
// synthesized as a placeholder when offline; the placeholder is
// enriched on a later successful fetch. Per-member failures are logged
// and the loop continues.
func (r *Reconciler) ReconcileProjectTeamMembers(ctx context.Context, project *models.Project) (Report, error) {
	var report Report
	projectDirty := false

	for _, memberID := range project.TeamMemberIDs {
		u, err := r.users.GetByUserID(ctx, memberID)
		switch {
		case err == nil:
			// exists locally; just guarantee the edge
		case isNotFound(err):
			u, err = r.materializeMember(ctx, memberID, project, &report)
			if err != nil {
				r.log.Warn("team member unresolved, continuing",
					zap.String("project_id", project.ProjectID),
					zap.String("user_id", memberID),
					zap.Error(err))
				continue
			}
		default:
			r.log.Warn("team member lookup failed, continuing",
				zap.String("project_id", project.ProjectID),
				zap.String("user_id", memberID),
				zap.Error(err))
			continue
		}

		if !u.HasProject(project.ProjectID) {
			u.AddProject(project.ProjectID)
			if err := r.users.Save(ctx, *u); err != nil {
				r.log.Warn("linking user to project failed, continuing",
					zap.String("project_id", project.ProjectID),
					zap.String("user_id", memberID),
					zap.Error(err))
				continue
			}
			report.MembersLinked++
			r.emit(ctx, notify.Event{
				Type:        notify.EventAssignment,
				ProjectID:   project.ProjectID,
				ProjectName: project.Name,
				Details:     u.DisplayName,
			})
		}
		if dedupeTeamMember(project, memberID) {
			projectDirty = true
			report.EdgesRepaired++
		}
	}

	if projectDirty {
		if err := r.projects.Save(ctx, *project); err != nil {
			return report, fmt.Errorf("save repaired project %s: %w", project.ProjectID, err)
		}
		r.emit(ctx, notify.Event{
			Type:        notify.EventProjectUpdate,
			ProjectID:   project.ProjectID,
			ProjectName: project.Name,
		})
	}
	return report, nil
}

// materializeMember resolves a team member id that has no local record:
// a remote fetch when the directory is reachable, otherwise a
// placeholder to be enriched later.
func (r *Reconciler) materializeMember(ctx context.Context, memberID string, project *models.Project, report *Report) (*models.User, error) {
	if r.dir != nil && r.dir.Online() {
		remote, err := r.dir.FetchUser(ctx, memberID)
		if err != nil {
			return nil, fmt.Errorf("fetch team member %s: %w", memberID, err)
		}
		created, err := r.users.Create(ctx, remote)
		if err != nil {
			return nil, fmt.Errorf("create team member %s: %w", memberID, err)
		}
		return &created, nil
	}

	placeholder := models.User{
		UserID:      memberID,
		CompanyID:   &project.CompanyID,
		DisplayName: PlaceholderName(memberID),
		Placeholder: true,
		NeedsSync:   true,
	}
	created, err := r.users.Create(ctx, placeholder)
	if err != nil {
		return nil, fmt.Errorf("create placeholder for %s: %w", memberID, err)
	}
	report.PlaceholdersCreated++
	r.log.Info("synthesized placeholder team member",
		zap.String("project_id", project.ProjectID),
		zap.String("user_id", memberID))
	return &created, nil
}

// PlaceholderName derives a stable display name from the tail of an id.
func PlaceholderName(userID string) string {
	tail := userID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "Team Member " + strings.ToUpper(tail)
}

func (r *Reconciler) emit(ctx context.Context, e notify.Event) {
	if r.events != nil {
		r.events.Add(ctx, e)
	}
}

func (r *Reconciler) loadProjectForEdit(ctx context.Context, edits map[string]*models.Project, projectID string) (*models.Project, error) {
	if p, ok := edits[projectID]; ok {
		return p, nil
	}
	p, err := r.projects.GetByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	edits[projectID] = p
	return p, nil
}

// groupByUserID buckets candidates by external id, preserving the
// candidates' order inside each group and across groups.
func groupByUserID(candidates []models.User) [][]models.User {
	index := map[string]int{}
	var groups [][]models.User
	for _, u := range candidates {
		i, ok := index[u.UserID]
		if !ok {
			i = len(groups)
			index[u.UserID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], u)
	}
	return groups
}

// pickSurvivor applies the freshest-timestamp rule; an all-nil group
// keeps its first member.
func pickSurvivor(group []models.User) models.User {
	survivor := group[0]
	for i := 1; i < len(group); i++ {
		if group[i].SyncedAfter(&survivor) {
			survivor = group[i]
		}
	}
	return survivor
}

// dedupeTeamMember guarantees the project lists the id exactly once,
// keeping the first occurrence's position. Reports whether it changed
// the list.
func dedupeTeamMember(p *models.Project, userID string) bool {
	if !p.HasTeamMember(userID) {
		p.AddTeamMember(userID)
		return true
	}
	changed := false
	seen := false
	kept := p.TeamMemberIDs[:0]
	for _, id := range p.TeamMemberIDs {
		if id == userID {
			if seen {
				changed = true
				continue
			}
			seen = true
		}
		kept = append(kept, id)
	}
	p.TeamMemberIDs = kept
	return changed
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
