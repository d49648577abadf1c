// Package pricing derives order totals from a subtotal and payment method.
// Everything here is pure; amounts are integer minor units (paise/cents).
package pricing

import (
	"errors"
	"math"

	"food-order-service/models"
)

const (
	// TaxPercent is applied to the subtotal.
	TaxPercent = 5
	// CODDeliveryFee is charged when the customer pays on delivery.
	CODDeliveryFee int64 = 5000
	// PrepaidDeliveryFee is charged for every other method.
	PrepaidDeliveryFee int64 = 3000
)

// ErrOverflow is returned when an amount does not fit in an int64.
var ErrOverflow = errors.New("amount out of range")

// Breakdown is the priced result for an order.
type Breakdown struct {
	SubtotalCents    int64 `json:"subtotal_cents"`
	TaxCents         int64 `json:"tax_cents"`
	DeliveryFeeCents int64 `json:"delivery_fee_cents"`
	TotalCents       int64 `json:"total_amount_cents"`
}

// Tax returns subtotal * 5%, rounded to the nearest minor unit with ties away
// from zero.
func Tax(subtotal int64) (int64, error) {
	scaled, err := mul(subtotal, TaxPercent)
	if err != nil {
		return 0, err
	}
	if scaled < 0 {
		if scaled < math.MinInt64+50 {
			return 0, ErrOverflow
		}
		return -((-scaled + 50) / 100), nil
	}
	half, err := add(scaled, 50)
	if err != nil {
		return 0, err
	}
	return half / 100, nil
}

// DeliveryFee returns the fee for the given payment method.
func DeliveryFee(method models.PaymentType) int64 {
	if method == models.PaymentTypeCOD {
		return CODDeliveryFee
	}
	return PrepaidDeliveryFee
}

// Compute prices a subtotal for the given payment method.
func Compute(subtotal int64, method models.PaymentType) (Breakdown, error) {
	tax, err := Tax(subtotal)
	if err != nil {
		return Breakdown{}, err
	}
	fee := DeliveryFee(method)
	total, err := add(subtotal, tax)
	if err == nil {
		total, err = add(total, fee)
	}
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		SubtotalCents:    subtotal,
		TaxCents:         tax,
		DeliveryFeeCents: fee,
		TotalCents:       total,
	}, nil
}

// Subtotal sums unit price times quantity across cart lines.
func Subtotal(items []models.CartItem) (int64, error) {
	var sum int64
	for _, it := range items {
		line, err := mul(it.UnitPriceCents, int64(it.Qty))
		if err != nil {
			return 0, err
		}
		if sum, err = add(sum, line); err != nil {
			return 0, err
		}
	}
	return sum, nil
}

func mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, ErrOverflow
	}
	return p, nil
}

func add(a, b int64) (int64, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, ErrOverflow
	}
	return s, nil
}
