package controllers

import (
	"net/http"

	"food-order-service/models"
	"food-order-service/services"

	"github.com/gin-gonic/gin"
)

// CartController handles /orders/cart.
type CartController struct {
	cartService services.CartService
}

func NewCartController(svc services.CartService) *CartController {
	return &CartController{cartService: svc}
}

// AddItem handles POST /orders/cart
func (cc *CartController) AddItem(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req models.AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := cc.cartService.AddItem(c.Request.Context(), who.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetCart handles GET /orders/cart
func (cc *CartController) GetCart(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	view, err := cc.cartService.GetCart(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveItem handles DELETE /orders/cart/:menuItemId
func (cc *CartController) RemoveItem(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	menuItemID, ok := uuidParam(c, "menuItemId")
	if !ok {
		return
	}
	view, err := cc.cartService.RemoveItem(c.Request.Context(), who.UserID, menuItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearCart handles DELETE /orders/cart
func (cc *CartController) ClearCart(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	res, err := cc.cartService.ClearCart(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
