// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a job site cached from the directory service.
//
// TeamMemberIDs is the denormalized, ordered list of external user ids
// assigned to the project. The linked user documents carry the other
// direction of the edge in User.ProjectIDs; after reconciliation the id
// set derived from those links equals TeamMemberIDs.
type Project struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProjectID     string             `bson:"project_id" json:"project_id"`
	CompanyID     string             `bson:"company_id" json:"company_id"`
	Name          string             `bson:"name" json:"name"`
	Status        string             `bson:"status,omitempty" json:"status,omitempty"`
	TeamMemberIDs []string           `bson:"team_member_ids,omitempty" json:"team_member_ids,omitempty"`

	LastSyncedAt *time.Time `bson:"last_synced_at,omitempty" json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// HasTeamMember reports whether the user id appears in TeamMemberIDs.
func (p *Project) HasTeamMember(userID string) bool {
	for _, id := range p.TeamMemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AddTeamMember appends a user id, guarding against duplicate edges.
func (p *Project) AddTeamMember(userID string) {
	if !p.HasTeamMember(userID) {
		p.TeamMemberIDs = append(p.TeamMemberIDs, userID)
	}
}

// ReplaceTeamMember swaps oldID for newID in place, preserving order. If
// newID is already present, oldID is simply removed so the list never
// carries a duplicate edge. It reports whether the list changed.
func (p *Project) ReplaceTeamMember(oldID, newID string) bool {
	if !p.HasTeamMember(oldID) {
		return false
	}
	if p.HasTeamMember(newID) {
		return p.RemoveTeamMember(oldID)
	}
	for i, id := range p.TeamMemberIDs {
		if id == oldID {
			p.TeamMemberIDs[i] = newID
			return true
		}
	}
	return false
}

// RemoveTeamMember deletes a user id from the list, preserving order.
func (p *Project) RemoveTeamMember(userID string) bool {
	for i, id := range p.TeamMemberIDs {
		if id == userID {
			p.TeamMemberIDs = append(p.TeamMemberIDs[:i], p.TeamMemberIDs[i+1:]...)
			return true
		}
	}
	return false
}
