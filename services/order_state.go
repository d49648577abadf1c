package services

import "food-order-service/models"

// nextStatus is the only forward path a restaurant can drive an order along.
// Payment capture (CREATED -> CONFIRMED) and cancellation are separate operations.
var nextStatus = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusConfirmed:      models.OrderStatusPreparing,
	models.OrderStatusPreparing:      models.OrderStatusReady,
	models.OrderStatusReady:          models.OrderStatusOutForDelivery,
	models.OrderStatusOutForDelivery: models.OrderStatusDelivered,
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to models.OrderStatus) bool {
	next, ok := nextStatus[from]
	return ok && next == to
}

// notCancellable holds the statuses a customer can no longer cancel from.
var notCancellable = map[models.OrderStatus]bool{
	models.OrderStatusDelivered:      true,
	models.OrderStatusCancelled:      true,
	models.OrderStatusOutForDelivery: true,
}

// CanCancel reports whether an order in status s may be cancelled.
func CanCancel(s models.OrderStatus) bool {
	return !notCancellable[s]
}

// cancellableStatuses is the guard set for the cancel UPDATE.
func cancellableStatuses() []models.OrderStatus {
	out := make([]models.OrderStatus, 0, len(models.AllOrderStatuses))
	for _, s := range models.AllOrderStatuses {
		if CanCancel(s) {
			out = append(out, s)
		}
	}
	return out
}
