package services

import (
	"context"

	"food-order-service/apperrors"
	"food-order-service/models"

	"github.com/google/uuid"
)

// OwnershipLookup answers whether a user owns a restaurant.
type OwnershipLookup interface {
	IsRestaurantOwnedBy(ctx context.Context, restaurantID, ownerID uuid.UUID) (bool, error)
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Guard decides whether a caller may act on a restaurant's orders.
type Guard struct {
	lookup OwnershipLookup
}

func NewGuard(lookup OwnershipLookup) *Guard {
	return &Guard{lookup: lookup}
}

// RestaurantAccess returns the decision for who acting on restaurantID.
// Admins always pass, owners must own the restaurant, everyone else is denied.
// The error is only set when the ownership lookup itself failed.
func (g *Guard) RestaurantAccess(ctx context.Context, who models.Identity, restaurantID uuid.UUID) (Decision, error) {
	switch who.Role {
	case models.RoleAdmin:
		return allow(), nil
	case models.RoleOwner:
		return g.OwnerAccess(ctx, who, restaurantID)
	default:
		return deny("Insufficient permissions"), nil
	}
}

// OwnerAccess is the stricter check used for reading a restaurant's orders:
// staff of any role must own the restaurant, customers are denied.
func (g *Guard) OwnerAccess(ctx context.Context, who models.Identity, restaurantID uuid.UUID) (Decision, error) {
	if who.Role != models.RoleOwner && who.Role != models.RoleAdmin {
		return deny("Insufficient permissions"), nil
	}
	owned, err := g.lookup.IsRestaurantOwnedBy(ctx, restaurantID, who.UserID)
	if err != nil {
		return Decision{}, err
	}
	if !owned {
		return deny("Not authorized for this restaurant"), nil
	}
	return allow(), nil
}

// RequireRestaurant is RestaurantAccess folded into an error.
func (g *Guard) RequireRestaurant(ctx context.Context, who models.Identity, restaurantID uuid.UUID) error {
	return decisionError(g.RestaurantAccess(ctx, who, restaurantID))
}

// RequireOwner is OwnerAccess folded into an error.
func (g *Guard) RequireOwner(ctx context.Context, who models.Identity, restaurantID uuid.UUID) error {
	return decisionError(g.OwnerAccess(ctx, who, restaurantID))
}

func decisionError(d Decision, err error) error {
	if err != nil {
		return apperrors.Internal("Failed to verify restaurant ownership", err)
	}
	if !d.Allowed {
		return apperrors.Unauthorized("%s", d.Reason)
	}
	return nil
}
