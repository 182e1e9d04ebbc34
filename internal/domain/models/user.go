// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a field employee cached from the directory service.
//
// UserID is the stable external identifier assigned by the directory
// service; _id is only the local document id. After reconciliation,
// UserID is unique in the users collection.
//
// ProjectIDs is the user's side of the User↔Project relationship. The
// project's side is Project.TeamMemberIDs; the reconciler keeps the two
// consistent.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	UserID      string             `bson:"user_id" json:"user_id"`
	CompanyID   *string            `bson:"company_id,omitempty" json:"company_id,omitempty"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Role        string             `bson:"role,omitempty" json:"role,omitempty"` // admin | employee
	ProjectIDs  []string           `bson:"project_ids,omitempty" json:"project_ids,omitempty"`

	// Placeholder marks a record synthesized while offline from a project's
	// team member list. It is enriched on the next successful fetch.
	Placeholder bool `bson:"placeholder,omitempty" json:"placeholder,omitempty"`

	LastSyncedAt *time.Time `bson:"last_synced_at,omitempty" json:"last_synced_at,omitempty"`
	NeedsSync    bool       `bson:"needs_sync,omitempty" json:"needs_sync,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasProject reports whether the user is already linked to the project.
func (u *User) HasProject(projectID string) bool {
	for _, id := range u.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// AddProject links the user to a project, guarding against duplicate edges.
func (u *User) AddProject(projectID string) {
	if !u.HasProject(projectID) {
		u.ProjectIDs = append(u.ProjectIDs, projectID)
	}
}

// SyncedAfter reports whether u has a fresher sync timestamp than other.
// A record with a timestamp always outranks one without.
func (u *User) SyncedAfter(other *User) bool {
	if u.LastSyncedAt == nil {
		return false
	}
	if other.LastSyncedAt == nil {
		return true
	}
	return u.LastSyncedAt.After(*other.LastSyncedAt)
}
