package controllers

import (
	"net/http"

	"food-order-service/models"
	"food-order-service/services"

	"github.com/gin-gonic/gin"
)

// OrderController handles order creation, payment and status endpoints.
type OrderController struct {
	orderService   services.OrderService
	paymentService services.PaymentService
}

func NewOrderController(orders services.OrderService, payments services.PaymentService) *OrderController {
	return &OrderController{orderService: orders, paymentService: payments}
}

// CreateOrder handles POST /orders
func (oc *OrderController) CreateOrder(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req models.CreateOrderRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	order, err := oc.orderService.CreateFromCart(c.Request.Context(), who.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// ProcessPayment handles POST /orders/:orderId/payment
func (oc *OrderController) ProcessPayment(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "orderId")
	if !ok {
		return
	}
	var req models.PaymentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := oc.paymentService.ProcessPayment(c.Request.Context(), orderID, who.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetOrder handles GET /orders/:orderId
func (oc *OrderController) GetOrder(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "orderId")
	if !ok {
		return
	}
	order, err := oc.orderService.GetOrder(c.Request.Context(), orderID, who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /orders
func (oc *OrderController) ListOrders(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	orders, err := oc.orderService.ListOrders(c.Request.Context(), who.UserID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// CancelOrder handles PATCH /orders/:orderId/cancel
func (oc *OrderController) CancelOrder(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "orderId")
	if !ok {
		return
	}
	order, err := oc.orderService.Cancel(c.Request.Context(), orderID, who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": order})
}

// UpdateStatus handles PATCH /orders/:orderId/status
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "orderId")
	if !ok {
		return
	}
	var req models.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := oc.orderService.UpdateStatus(c.Request.Context(), who, orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

// ListRestaurantOrders handles GET /orders/restaurant/:restaurantId
func (oc *OrderController) ListRestaurantOrders(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	restaurantID, ok := uuidParam(c, "restaurantId")
	if !ok {
		return
	}
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	orders, err := oc.orderService.ListRestaurantOrders(c.Request.Context(), who, restaurantID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}
