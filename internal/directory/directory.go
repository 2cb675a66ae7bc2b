// Package directory maps users to the organizations they belong to.
package directory

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrUserNotFound = errors.New("directory: user not found")
	ErrOrgNotFound  = errors.New("directory: organization not found")
)

// Organization is a customer organization that holds an entitlement.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is an individual account. A user may belong to at most one
// organization; individual purchasers have no organization.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	OrganizationID string    `json:"organizationId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Store provides read access to users and organizations.
type Store interface {
	// GetUser returns the user with the given ID, or ErrUserNotFound.
	GetUser(ctx context.Context, id string) (*User, error)
	// GetOrganization returns the organization with the given ID, or ErrOrgNotFound.
	GetOrganization(ctx context.Context, id string) (*Organization, error)
	// OrganizationForUser resolves a user's organization ID. Returns empty
	// string with nil error when the user belongs to no organization.
	OrganizationForUser(ctx context.Context, userID string) (string, error)
}
