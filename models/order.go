package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "CREATED"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReady          OrderStatus = "READY"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusFailed         OrderStatus = "FAILED"
)

// AllOrderStatuses lists every valid status, in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusFailed,
}

// ParseOrderStatus validates a raw status string.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range AllOrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// PaymentStatus tracks the money side of an order.
type PaymentStatus string

const (
	PaymentStatusNotRequested PaymentStatus = "NOT_REQUESTED"
	PaymentStatusPending      PaymentStatus = "PENDING"
	PaymentStatusCaptured     PaymentStatus = "CAPTURED"
	PaymentStatusFailed       PaymentStatus = "FAILED"
)

// DeliveryAddress is a by-value copy of the customer's address taken when the
// order is placed. Later edits to the address book do not touch it.
type DeliveryAddress struct {
	AddressLine string  `json:"address_line"`
	City        string  `json:"city"`
	PostalCode  string  `json:"postal_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type Order struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	RestaurantID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	DeliveryAddress      *DeliveryAddress `gorm:"type:jsonb;serializer:json" json:"delivery_address"`
	Items                []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	SubtotalCents        int64            `gorm:"not null" json:"subtotal_cents"`
	TaxCents             int64            `gorm:"not null" json:"tax_cents"`
	DeliveryFeeCents     int64            `gorm:"not null" json:"delivery_fee_cents"`
	TotalCents           int64            `gorm:"not null" json:"total_amount_cents"`
	PaymentType          PaymentType      `gorm:"type:varchar(20);not null" json:"payment_type"`
	PaymentStatus        PaymentStatus    `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentTransactionID *string          `gorm:"type:varchar(64)" json:"payment_transaction_id"`
	Status               OrderStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	SpecialInstructions  *string          `gorm:"type:text" json:"special_instructions"`
	CreatedAt            time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	CancelledAt          *time.Time       `json:"cancelled_at"`
	DeliveredAt          *time.Time       `json:"delivered_at"`
}

type OrderItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	MenuItemID     uuid.UUID `gorm:"type:uuid;not null" json:"menu_item_id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Qty            int       `gorm:"not null" json:"qty"`
	UnitPriceCents int64     `gorm:"not null" json:"price_cents"`
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	DeliveryAddressID   *uuid.UUID  `json:"delivery_address_id"`
	PaymentType         PaymentType `json:"payment_type"`
	SpecialInstructions *string     `json:"special_instructions" binding:"omitempty,max=500"`
}

// UpdateStatusRequest is the body of PATCH /orders/:orderId/status.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// OrderEvent is published to SNS whenever an order changes in a way other
// services care about.
type OrderEvent struct {
	EventType     string        `json:"event_type"`
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	RestaurantID  string        `json:"restaurant_id"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TotalCents    int64         `json:"total_amount_cents,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderCancelled     = "order_cancelled"
	EventPaymentCaptured    = "payment_captured"
	EventPaymentFailed      = "payment_failed"
)
