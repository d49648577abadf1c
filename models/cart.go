package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a line in a cart. Name, price and restaurant are a snapshot of
// the catalog taken on the first add of the menu item.
type CartItem struct {
	ID             uuid.UUID `json:"id"`
	CartID         uuid.UUID `json:"cart_id"`
	MenuItemID     uuid.UUID `json:"menu_item_id"`
	RestaurantID   uuid.UUID `json:"restaurant_id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"price_cents"`
	Qty            int       `json:"qty"`
}

// LineTotal is the unit price times quantity.
func (i CartItem) LineTotal() int64 {
	return i.UnitPriceCents * int64(i.Qty)
}

type Cart struct {
	ID        uuid.UUID  `json:"cart_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Total is always derived from the current lines.
func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.LineTotal()
	}
	return total
}

// CartView is what the cart endpoints return. A user without a cart gets the
// zero view: no id, no items, total 0.
type CartView struct {
	CartID     *uuid.UUID `json:"cart_id,omitempty"`
	Items      []CartItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// NewCartView builds the response for c, which may be nil.
func NewCartView(c *Cart) CartView {
	if c == nil {
		return CartView{Items: []CartItem{}}
	}
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	id := c.ID
	updated := c.UpdatedAt
	return CartView{
		CartID:     &id,
		Items:      items,
		TotalCents: c.Total(),
		UpdatedAt:  &updated,
	}
}

// MaxLineQty caps the quantity of a single cart line.
const MaxLineQty = 100

// AddCartItemRequest is the body of POST /orders/cart.
type AddCartItemRequest struct {
	MenuItemID uuid.UUID `json:"menu_item_id" binding:"required"`
	Qty        int       `json:"qty" binding:"max=100"`
}

// ClearCartResult reports whether anything was removed.
type ClearCartResult struct {
	Message string `json:"message"`
	Cleared bool   `json:"cleared"`
}
