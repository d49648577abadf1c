package controllers

import (
	"net/http"

	"food-order-service/models"
	"food-order-service/services"

	"github.com/gin-gonic/gin"
)

type AddressController struct {
	addressService services.AddressService
}

func NewAddressController(svc services.AddressService) *AddressController {
	return &AddressController{addressService: svc}
}

// AddAddress handles POST /addresses
func (ac *AddressController) AddAddress(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	var req models.CreateAddressRequest
	if !bindJSON(c, &req) {
		return
	}
	address, err := ac.addressService.AddAddress(c.Request.Context(), who.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, address)
}

// ListAddresses handles GET /addresses
func (ac *AddressController) ListAddresses(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	list, err := ac.addressService.ListAddresses(c.Request.Context(), who.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": list})
}

// SetDefault handles PATCH /addresses/:id/default
func (ac *AddressController) SetDefault(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	address, err := ac.addressService.SetDefaultAddress(c.Request.Context(), who.UserID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, address)
}

// RemoveAddress handles DELETE /addresses/:id
func (ac *AddressController) RemoveAddress(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ac.addressService.RemoveAddress(c.Request.Context(), who.UserID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address removed"})
}
