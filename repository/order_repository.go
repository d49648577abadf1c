package repository

import (
	"context"
	"time"

	"food-order-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusGuard is the precondition a status write is conditioned on. The
// UPDATE only matches when the row still satisfies it, which is what keeps two
// concurrent transitions from both succeeding.
type StatusGuard struct {
	From             []models.OrderStatus
	PaymentStatusNot models.PaymentStatus
}

// StatusChange is the set of columns written by a guarded update. Nil fields
// are left untouched.
type StatusChange struct {
	Status               models.OrderStatus
	PaymentStatus        *models.PaymentStatus
	PaymentTransactionID *string
	CancelledAt          *time.Time
	DeliveredAt          *time.Time
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, status *models.OrderStatus) ([]models.Order, error)
	FindByRestaurantID(ctx context.Context, restaurantID uuid.UUID, status *models.OrderStatus) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, guard StatusGuard, change StatusChange) (bool, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order and its items in one transaction.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// FindByIDAndUserID retrieves a specific order for a user
func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// FindByUserID lists a customer's orders, newest first.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	return r.list(ctx, "user_id = ?", userID, status)
}

// FindByRestaurantID lists a restaurant's orders, newest first.
func (r *GormOrderRepository) FindByRestaurantID(ctx context.Context, restaurantID uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	return r.list(ctx, "restaurant_id = ?", restaurantID, status)
}

func (r *GormOrderRepository) list(ctx context.Context, cond string, id uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	orders := []models.Order{}
	query := r.db.WithContext(ctx).Where(cond, id)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus applies change only if the row still matches guard. It
// reports false when nothing matched (the order is gone or moved on).
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, guard StatusGuard, change StatusChange) (bool, error) {
	updates := map[string]interface{}{
		"status":     change.Status,
		"updated_at": time.Now().UTC(),
	}
	if change.PaymentStatus != nil {
		updates["payment_status"] = *change.PaymentStatus
	}
	if change.PaymentTransactionID != nil {
		updates["payment_transaction_id"] = *change.PaymentTransactionID
	}
	if change.CancelledAt != nil {
		updates["cancelled_at"] = *change.CancelledAt
	}
	if change.DeliveredAt != nil {
		updates["delivered_at"] = *change.DeliveredAt
	}

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID)
	if len(guard.From) > 0 {
		query = query.Where("status IN ?", guard.From)
	}
	if guard.PaymentStatusNot != "" {
		query = query.Where("payment_status <> ?", guard.PaymentStatusNot)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
