package models

import "time"

// PaymentType is the method the customer pays with.
type PaymentType string

const (
	PaymentTypeCOD        PaymentType = "COD"
	PaymentTypeCard       PaymentType = "CARD"
	PaymentTypeUPI        PaymentType = "UPI"
	PaymentTypeNetBanking PaymentType = "NETBANKING"
	PaymentTypeWallet     PaymentType = "WALLET"
)

// ParsePaymentType validates a raw payment type string.
func ParsePaymentType(s string) (PaymentType, bool) {
	switch PaymentType(s) {
	case PaymentTypeCOD, PaymentTypeCard, PaymentTypeUPI, PaymentTypeNetBanking, PaymentTypeWallet:
		return PaymentType(s), true
	}
	return "", false
}

// PaymentRequest is the body of POST /orders/:orderId/payment. It is decoded
// into one of the PaymentDetails variants before reaching the simulator.
type PaymentRequest struct {
	PaymentType PaymentType `json:"payment_type"`
	CardNumber  *string     `json:"card_number"`
	UPIID       *string     `json:"upi_id"`
}

// PaymentDetails is a closed set of per-method payloads.
type PaymentDetails interface {
	Method() PaymentType
	isPaymentDetails()
}

type CardPayment struct {
	CardNumber string
}

type UPIPayment struct {
	UPIID string
}

// OtherPayment covers methods that carry no extra data (COD, net banking, wallet).
type OtherPayment struct {
	Type PaymentType
}

func (CardPayment) Method() PaymentType    { return PaymentTypeCard }
func (UPIPayment) Method() PaymentType     { return PaymentTypeUPI }
func (p OtherPayment) Method() PaymentType { return p.Type }

func (CardPayment) isPaymentDetails()  {}
func (UPIPayment) isPaymentDetails()   {}
func (OtherPayment) isPaymentDetails() {}

// PaymentResult is returned on a successful capture.
type PaymentResult struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	TransactionID string      `json:"transaction_id"`
	PaymentType   PaymentType `json:"payment_type"`
	OrderStatus   OrderStatus `json:"order_status"`
	ProcessedAt   time.Time   `json:"processed_at"`
}
