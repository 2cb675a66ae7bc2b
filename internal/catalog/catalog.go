// Package catalog holds the authoritative plan catalog. Plan prices come from
// here and only here; client-supplied amounts are never trusted.
package catalog

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrPlanNotFound = errors.New("catalog: plan not found")
)

// Plan is a purchasable subscription plan. Price is the authoritative amount
// in major currency units as a decimal string (e.g. "349.00").
type Plan struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Price       string    `json:"price"`
	SeatLimit   int       `json:"seatLimit"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store provides read access to the plan catalog.
type Store interface {
	// Get returns the plan with the given ID, or ErrPlanNotFound.
	Get(ctx context.Context, id string) (*Plan, error)
	// List returns all plans ordered by ID.
	List(ctx context.Context) ([]*Plan, error)
}
