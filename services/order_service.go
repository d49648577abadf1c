package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"food-order-service/apperrors"
	"food-order-service/awsclient"
	"food-order-service/logger"
	"food-order-service/models"
	"food-order-service/pricing"
	"food-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService turns carts into orders and drives them through their lifecycle.
type OrderService interface {
	CreateFromCart(ctx context.Context, userID uuid.UUID, req models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, status *models.OrderStatus) ([]models.Order, error)
	ListRestaurantOrders(ctx context.Context, who models.Identity, restaurantID uuid.UUID, status *models.OrderStatus) ([]models.Order, error)
	UpdateStatus(ctx context.Context, who models.Identity, orderID uuid.UUID, newStatus models.OrderStatus) (*models.Order, error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
}

type orderServiceImpl struct {
	orders         repository.OrderRepository
	carts          repository.CartRepository
	catalog        repository.CatalogRepository
	addresses      repository.AddressRepository
	guard          *Guard
	events         eventPublisher
	catalogTimeout time.Duration
	logger         *zap.Logger
}

// OrderDeps groups the stores the order service is built from.
type OrderDeps struct {
	Orders    repository.OrderRepository
	Carts     repository.CartRepository
	Catalog   repository.CatalogRepository
	Addresses repository.AddressRepository
	Guard     *Guard
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	deps OrderDeps,
	snsClient awsclient.SNSPublisher,
	snsTopicArn string,
	catalogTimeout time.Duration,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		orders:         deps.Orders,
		carts:          deps.Carts,
		catalog:        deps.Catalog,
		addresses:      deps.Addresses,
		guard:          deps.Guard,
		events:         eventPublisher{sns: snsClient, topic: snsTopicArn, logger: logger},
		catalogTimeout: catalogTimeout,
		logger:         logger,
	}
}

func (s *orderServiceImpl) CreateFromCart(ctx context.Context, userID uuid.UUID, req models.CreateOrderRequest) (*models.Order, error) {
	log := logger.For(ctx, s.logger).With(zap.String("user_id", userID.String()))

	paymentType := models.PaymentTypeCOD
	if req.PaymentType != "" {
		pt, ok := models.ParsePaymentType(string(req.PaymentType))
		if !ok {
			return nil, apperrors.InvalidInput("Unsupported payment type %q", req.PaymentType)
		}
		paymentType = pt
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		log.Error("Failed to load cart", zap.Error(err))
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperrors.InvalidState("Cart is empty")
	}

	restaurantID := cart.Items[0].RestaurantID
	for _, it := range cart.Items[1:] {
		if it.RestaurantID != restaurantID {
			return nil, apperrors.InvalidState("All items must be from the same restaurant")
		}
	}

	restaurant, err := resolveRestaurant(ctx, s.catalog, s.catalogTimeout, restaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.IsOpen {
		return nil, apperrors.InvalidState("Restaurant is closed")
	}

	var address *models.DeliveryAddress
	if req.DeliveryAddressID != nil {
		a, err := s.resolveAddress(ctx, *req.DeliveryAddressID, userID)
		if err != nil {
			return nil, err
		}
		address = a.Snapshot()
	}

	price, err := priceCart(cart.Items, paymentType)
	if err != nil {
		return nil, err
	}

	paymentStatus := models.PaymentStatusNotRequested
	if paymentType == models.PaymentTypeCOD {
		paymentStatus = models.PaymentStatusPending
	}

	order := &models.Order{
		UserID:              userID,
		RestaurantID:        restaurantID,
		DeliveryAddress:     address,
		Items:               make([]models.OrderItem, 0, len(cart.Items)),
		SubtotalCents:       price.SubtotalCents,
		TaxCents:            price.TaxCents,
		DeliveryFeeCents:    price.DeliveryFeeCents,
		TotalCents:          price.TotalCents,
		PaymentType:         paymentType,
		PaymentStatus:       paymentStatus,
		Status:              models.OrderStatusCreated,
		SpecialInstructions: trimmed(req.SpecialInstructions),
	}
	for _, it := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID:     it.MenuItemID,
			Name:           it.Name,
			Qty:            it.Qty,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		log.Error("Failed to persist order", zap.Error(err))
		return nil, apperrors.Internal("Failed to create order", err)
	}

	// The order is committed at this point; a failed clear leaves a stale
	// cart behind but must not report the order as failed. Lines added after
	// the cart was read keep the cart alive.
	cleared, err := s.carts.DeleteCartIfUnchanged(ctx, userID, cart.UpdatedAt)
	switch {
	case err != nil:
		log.Error("Failed to clear cart after order creation",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	case !cleared:
		log.Warn("Cart changed during checkout, left in place", zap.String("order_id", order.ID.String()))
	}

	log.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("restaurant_id", restaurantID.String()),
		zap.Int64("total_cents", order.TotalCents),
	)
	s.events.publish(ctx, newOrderEvent(models.EventOrderCreated, order))

	return order, nil
}

func priceCart(items []models.CartItem, paymentType models.PaymentType) (pricing.Breakdown, error) {
	subtotal, err := pricing.Subtotal(items)
	if err != nil {
		return pricing.Breakdown{}, apperrors.InvalidInput("Order total is too large")
	}
	price, err := pricing.Compute(subtotal, paymentType)
	if err != nil {
		return pricing.Breakdown{}, apperrors.InvalidInput("Order total is too large")
	}
	return price, nil
}

func (s *orderServiceImpl) resolveAddress(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	cctx, cancel := withTimeout(ctx, s.catalogTimeout)
	defer cancel()

	a, err := s.addresses.FindByIDAndUserID(cctx, id, userID)
	switch {
	case err == nil:
		return a, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NotFound("Delivery address not found")
	case errors.Is(err, context.DeadlineExceeded):
		return nil, apperrors.New(apperrors.KindUnavailable, "Address lookup timed out", err)
	default:
		return nil, apperrors.Internal("Failed to load delivery address", err)
	}
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.findOwned(ctx, orderID, userID)
}

func (s *orderServiceImpl) findOwned(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, userID uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	orders, err := s.orders.FindByUserID(ctx, userID, status)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to list orders", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) ListRestaurantOrders(ctx context.Context, who models.Identity, restaurantID uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	if err := s.guard.RequireOwner(ctx, who, restaurantID); err != nil {
		return nil, err
	}
	orders, err := s.orders.FindByRestaurantID(ctx, restaurantID, status)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to list restaurant orders", zap.String("restaurant_id", restaurantID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	return orders, nil
}

// UpdateStatus advances an order one step along the fixed transition table.
// The write is conditioned on the status read here, so of two concurrent
// advances from the same state only one can succeed.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, who models.Identity, orderID uuid.UUID, newStatus models.OrderStatus) (*models.Order, error) {
	if _, ok := models.ParseOrderStatus(string(newStatus)); !ok {
		return nil, apperrors.InvalidInput("Invalid status %q", newStatus)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}

	if err := s.guard.RequireRestaurant(ctx, who, order.RestaurantID); err != nil {
		return nil, err
	}

	from := order.Status
	if !CanTransition(from, newStatus) {
		return nil, apperrors.InvalidTransition(string(from), string(newStatus))
	}

	now := time.Now().UTC()
	change := repository.StatusChange{Status: newStatus}
	if newStatus == models.OrderStatusDelivered {
		change.DeliveredAt = &now
	}

	ok, err := s.orders.UpdateStatus(ctx, orderID, repository.StatusGuard{From: []models.OrderStatus{from}}, change)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to update order status", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to update order status", err)
	}
	if !ok {
		return nil, apperrors.InvalidTransition(string(from), string(newStatus))
	}

	order.Status = newStatus
	order.UpdatedAt = now
	if change.DeliveredAt != nil {
		order.DeliveredAt = change.DeliveredAt
	}

	logger.For(ctx, s.logger).Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(newStatus)),
		zap.String("by", who.UserID.String()),
	)
	s.events.publish(ctx, newOrderEvent(models.EventOrderStatusChanged, order))

	return order, nil
}

func (s *orderServiceImpl) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.findOwned(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !CanCancel(order.Status) {
		return nil, apperrors.InvalidState("Order cannot be cancelled in status %s", order.Status)
	}

	now := time.Now().UTC()
	ok, err := s.orders.UpdateStatus(ctx, orderID,
		repository.StatusGuard{From: cancellableStatuses()},
		repository.StatusChange{Status: models.OrderStatusCancelled, CancelledAt: &now},
	)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to cancel order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, apperrors.Internal("Failed to cancel order", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("Order can no longer be cancelled")
	}

	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now
	order.UpdatedAt = now

	logger.For(ctx, s.logger).Info("Order cancelled", zap.String("order_id", orderID.String()))
	s.events.publish(ctx, newOrderEvent(models.EventOrderCancelled, order))

	return order, nil
}

func orderLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Order not found")
	}
	return apperrors.Internal("Failed to fetch order", err)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
