package services

import (
	"context"
	"errors"
	"time"

	"food-order-service/apperrors"
	"food-order-service/logger"
	"food-order-service/models"
	"food-order-service/pricing"
	"food-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService builds a user's cart against the catalog.
type CartService interface {
	AddItem(ctx context.Context, userID uuid.UUID, req models.AddCartItemRequest) (*models.CartView, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error)
	RemoveItem(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartView, error)
	ClearCart(ctx context.Context, userID uuid.UUID) (*models.ClearCartResult, error)
}

type cartServiceImpl struct {
	carts          repository.CartRepository
	catalog        repository.CatalogRepository
	catalogTimeout time.Duration
	logger         *zap.Logger
}

// NewCartService creates a new CartService. A zero catalogTimeout disables
// the per-call bound on catalog lookups.
func NewCartService(
	carts repository.CartRepository,
	catalog repository.CatalogRepository,
	catalogTimeout time.Duration,
	logger *zap.Logger,
) CartService {
	return &cartServiceImpl{
		carts:          carts,
		catalog:        catalog,
		catalogTimeout: catalogTimeout,
		logger:         logger,
	}
}

func (s *cartServiceImpl) AddItem(ctx context.Context, userID uuid.UUID, req models.AddCartItemRequest) (*models.CartView, error) {
	if req.Qty < 1 {
		return nil, apperrors.InvalidInput("Quantity must be at least 1")
	}
	if req.Qty > models.MaxLineQty {
		return nil, apperrors.InvalidInput("Quantity cannot exceed %d", models.MaxLineQty)
	}
	if req.MenuItemID == uuid.Nil {
		return nil, apperrors.InvalidInput("menu_item_id is required")
	}

	item, err := resolveMenuItem(ctx, s.catalog, s.catalogTimeout, req.MenuItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, apperrors.Unavailable("Menu item is not available")
	}

	current, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to load cart", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to update cart", err)
	}
	if err := checkLineLimits(current, item, req.Qty); err != nil {
		return nil, err
	}

	cart, err := s.carts.AddItem(ctx, userID, models.CartItem{
		MenuItemID:     item.ID,
		RestaurantID:   item.RestaurantID,
		Name:           item.Name,
		UnitPriceCents: item.PriceCents,
		Qty:            req.Qty,
	})
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to add item to cart",
			zap.String("user_id", userID.String()),
			zap.String("menu_item_id", req.MenuItemID.String()),
			zap.Error(err),
		)
		return nil, apperrors.Internal("Failed to update cart", err)
	}

	view := models.NewCartView(cart)
	return &view, nil
}

func (s *cartServiceImpl) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to load cart", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	view := models.NewCartView(cart)
	return &view, nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, menuItemID uuid.UUID) (*models.CartView, error) {
	err := s.carts.RemoveItem(ctx, userID, menuItemID)
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		return nil, apperrors.NotFound("Cart not found")
	case errors.Is(err, repository.ErrCartItemNotFound):
		return nil, apperrors.NotFound("Item not found in cart")
	case err != nil:
		logger.For(ctx, s.logger).Error("Failed to remove cart item", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to update cart", err)
	}
	return s.GetCart(ctx, userID)
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID uuid.UUID) (*models.ClearCartResult, error) {
	existed, err := s.carts.DeleteCart(ctx, userID)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to clear cart", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to clear cart", err)
	}
	if !existed {
		return &models.ClearCartResult{Message: "Cart already empty"}, nil
	}
	return &models.ClearCartResult{Message: "Cart cleared successfully", Cleared: true}, nil
}

// checkLineLimits rejects an add that would push the line past MaxLineQty or
// the cart total out of range. Concurrent adds can overshoot the line cap by
// at most one request's quantity.
func checkLineLimits(current *models.Cart, item *models.MenuItem, qty int) error {
	var lines []models.CartItem
	found := false
	if current != nil {
		lines = append(lines, current.Items...)
	}
	for i := range lines {
		if lines[i].MenuItemID == item.ID {
			lines[i].Qty += qty
			found = true
			if lines[i].Qty > models.MaxLineQty {
				return apperrors.InvalidInput("Quantity of %s cannot exceed %d", item.Name, models.MaxLineQty)
			}
		}
	}
	if !found {
		lines = append(lines, models.CartItem{UnitPriceCents: item.PriceCents, Qty: qty})
	}
	if _, err := pricing.Subtotal(lines); err != nil {
		return apperrors.InvalidInput("Cart total is too large")
	}
	return nil
}

// resolveMenuItem looks the item up with a bounded wait. A timeout is reported
// as Unavailable rather than retried.
func resolveMenuItem(ctx context.Context, catalog repository.CatalogRepository, timeout time.Duration, id uuid.UUID) (*models.MenuItem, error) {
	cctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	item, err := catalog.FindMenuItem(cctx, id)
	return item, catalogError(err, "Menu item not found")
}

func resolveRestaurant(ctx context.Context, catalog repository.CatalogRepository, timeout time.Duration, id uuid.UUID) (*models.Restaurant, error) {
	cctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	r, err := catalog.FindRestaurant(cctx, id)
	return r, catalogError(err, "Restaurant not found")
}

func catalogError(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("%s", notFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.New(apperrors.KindUnavailable, "Catalog is unavailable, try again", err)
	default:
		return apperrors.Internal("Failed to query catalog", err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
