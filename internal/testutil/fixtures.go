// internal/testutil/fixtures.go
package testutil

import (
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }

// UserFixture builds a user record with sensible defaults.
func UserFixture(userID, companyID string) models.User {
	now := time.Now().UTC()
	u := models.User{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		DisplayName: "Fixture User " + userID,
		Email:       userID + "@example.com",
		Role:        "employee",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if companyID != "" {
		u.CompanyID = &companyID
	}
	return u
}

// ProjectFixture builds a project record with the given team.
func ProjectFixture(projectID, companyID string, teamMemberIDs ...string) models.Project {
	now := time.Now().UTC()
	return models.Project{
		ID:            primitive.NewObjectID(),
		ProjectID:     projectID,
		CompanyID:     companyID,
		Name:          "Fixture Project " + projectID,
		Status:        "active",
		TeamMemberIDs: teamMemberIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CompanyFixture builds an active company with the given seat list.
func CompanyFixture(companyID string, maxSeats int, seatedIDs ...string) models.Company {
	now := time.Now().UTC()
	return models.Company{
		ID:                 primitive.NewObjectID(),
		CompanyID:          companyID,
		Name:               "Fixture Company " + companyID,
		SubscriptionStatus: string(models.SubscriptionActive),
		MaxSeats:           maxSeats,
		SeatedEmployeeIDs:  seatedIDs,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
