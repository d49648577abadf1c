package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrCartNotFound is returned when the user has no active cart.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound is returned when the menu item is not a line in the cart.
	ErrCartItemNotFound = errors.New("item not found in cart")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
