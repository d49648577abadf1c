package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant and MenuItem are owned by the catalog service. This service only
// reads them, so the structs carry just the columns it needs.
type Restaurant struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name    string    `json:"name"`
	IsOpen  bool      `gorm:"not null" json:"is_open"`
}

type MenuItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Name         string    `json:"name"`
	PriceCents   int64     `gorm:"not null" json:"price_cents"`
	Available    bool      `gorm:"not null" json:"available"`
}

// Address is an entry in a user's address book.
type Address struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Label       string    `gorm:"type:varchar(64)" json:"label"`
	AddressLine string    `gorm:"type:varchar(255);not null" json:"address_line"`
	City        string    `gorm:"type:varchar(128);not null" json:"city"`
	PostalCode  string    `gorm:"type:varchar(16);not null" json:"postal_code"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	IsDefault   bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Snapshot copies the address by value for embedding in an order.
func (a *Address) Snapshot() *DeliveryAddress {
	return &DeliveryAddress{
		AddressLine: a.AddressLine,
		City:        a.City,
		PostalCode:  a.PostalCode,
		Lat:         a.Lat,
		Lon:         a.Lon,
	}
}

// CreateAddressRequest is the body of POST /addresses.
type CreateAddressRequest struct {
	Label       string  `json:"label" binding:"max=64"`
	AddressLine string  `json:"address_line" binding:"required"`
	City        string  `json:"city" binding:"required"`
	PostalCode  string  `json:"postal_code" binding:"required"`
	Lat         float64 `json:"lat" binding:"gte=-90,lte=90"`
	Lon         float64 `json:"lon" binding:"gte=-180,lte=180"`
	IsDefault   bool    `json:"is_default"`
}

// Role is the caller's role as asserted by the identity provider.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
)

// Identity is the authenticated caller attached to every request.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}
