package routes

import (
	"net/http"

	"food-order-service/controllers"
	"food-order-service/middleware"
	"food-order-service/models"

	"github.com/gin-gonic/gin"
)

// Controllers bundles the handlers mounted by Register.
type Controllers struct {
	Cart    *controllers.CartController
	Order   *controllers.OrderController
	Address *controllers.AddressController
}

// Register mounts every endpoint. All routes except /health require auth.
func Register(r *gin.Engine, ctl Controllers, auth middleware.AuthConfig) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "food-order-service"})
	})

	orders := r.Group("/orders")
	orders.Use(middleware.AuthMiddleware(auth))
	{
		cart := orders.Group("/cart")
		cart.POST("", ctl.Cart.AddItem)
		cart.GET("", ctl.Cart.GetCart)
		cart.DELETE("", ctl.Cart.ClearCart)
		cart.DELETE("/:menuItemId", ctl.Cart.RemoveItem)

		orders.POST("", ctl.Order.CreateOrder)
		orders.GET("", ctl.Order.ListOrders)
		orders.GET("/:orderId", ctl.Order.GetOrder)
		orders.POST("/:orderId/payment", ctl.Order.ProcessPayment)
		orders.PATCH("/:orderId/cancel", ctl.Order.CancelOrder)

		staff := middleware.RequireRole(models.RoleOwner, models.RoleAdmin)
		orders.PATCH("/:orderId/status", staff, ctl.Order.UpdateStatus)
		orders.GET("/restaurant/:restaurantId", staff, ctl.Order.ListRestaurantOrders)
	}

	addresses := r.Group("/addresses")
	addresses.Use(middleware.AuthMiddleware(auth))
	{
		addresses.POST("", ctl.Address.AddAddress)
		addresses.GET("", ctl.Address.ListAddresses)
		addresses.PATCH("/:id/default", ctl.Address.SetDefault)
		addresses.DELETE("/:id", ctl.Address.RemoveAddress)
	}
}
