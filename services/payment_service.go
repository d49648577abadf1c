package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"food-order-service/apperrors"
	"food-order-service/awsclient"
	"food-order-service/logger"
	"food-order-service/models"
	"food-order-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minCardNumberLength = 16
	transactionPrefix   = "TXN"
)

// PaymentService simulates capturing payment for an order.
type PaymentService interface {
	ProcessPayment(ctx context.Context, orderID, userID uuid.UUID, req models.PaymentRequest) (*models.PaymentResult, error)
}

type paymentServiceImpl struct {
	orders repository.OrderRepository
	events eventPublisher
	now    func() time.Time
	logger *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	orders repository.OrderRepository,
	snsClient awsclient.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		orders: orders,
		events: eventPublisher{sns: snsClient, topic: snsTopicArn, logger: logger},
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// ParsePaymentDetails decodes a request into its per-method variant. An empty
// payment type falls back to fallback.
func ParsePaymentDetails(req models.PaymentRequest, fallback models.PaymentType) (models.PaymentDetails, error) {
	raw := req.PaymentType
	if raw == "" {
		raw = fallback
	}
	pt, ok := models.ParsePaymentType(string(raw))
	if !ok {
		return nil, apperrors.InvalidInput("Unsupported payment type %q", raw)
	}
	switch pt {
	case models.PaymentTypeCard:
		return models.CardPayment{CardNumber: deref(req.CardNumber)}, nil
	case models.PaymentTypeUPI:
		return models.UPIPayment{UPIID: deref(req.UPIID)}, nil
	default:
		return models.OtherPayment{Type: pt}, nil
	}
}

// ValidatePayment applies the per-method rules. It returns the failure
// message, or "" when the details are acceptable.
func ValidatePayment(d models.PaymentDetails) string {
	switch p := d.(type) {
	case models.CardPayment:
		if len(p.CardNumber) < minCardNumberLength {
			return "Invalid card number"
		}
	case models.UPIPayment:
		if !strings.Contains(p.UPIID, "@") {
			return "Invalid UPI ID"
		}
	}
	return ""
}

// NewTransactionID returns TXN followed by the millisecond timestamp and eight
// random upper-case hex digits.
func NewTransactionID(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s%d%s", transactionPrefix, now.UnixMilli(), random)
}

func (s *paymentServiceImpl) ProcessPayment(ctx context.Context, orderID, userID uuid.UUID, req models.PaymentRequest) (*models.PaymentResult, error) {
	log := logger.For(ctx, s.logger).With(zap.String("order_id", orderID.String()))

	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	if order.PaymentStatus == models.PaymentStatusCaptured {
		return nil, apperrors.InvalidState("Payment already completed")
	}
	if order.Status != models.OrderStatusCreated {
		return nil, apperrors.InvalidState("Order is not awaiting payment (status %s)", order.Status)
	}

	details, err := ParsePaymentDetails(req, order.PaymentType)
	if err != nil {
		return nil, err
	}

	guard := repository.StatusGuard{
		From:             []models.OrderStatus{models.OrderStatusCreated},
		PaymentStatusNot: models.PaymentStatusCaptured,
	}

	if reason := ValidatePayment(details); reason != "" {
		failed := models.PaymentStatusFailed
		ok, err := s.orders.UpdateStatus(ctx, orderID, guard, repository.StatusChange{
			Status:        models.OrderStatusFailed,
			PaymentStatus: &failed,
		})
		if err != nil {
			log.Error("Failed to record payment failure", zap.Error(err))
			return nil, apperrors.Internal("Failed to process payment", err)
		}
		if !ok {
			return nil, apperrors.InvalidState("Order is no longer awaiting payment")
		}

		order.Status = models.OrderStatusFailed
		order.PaymentStatus = failed
		log.Warn("Payment failed", zap.String("payment_type", string(details.Method())), zap.String("reason", reason))
		s.events.publish(ctx, newOrderEvent(models.EventPaymentFailed, order))

		return nil, apperrors.InvalidInput("%s", reason)
	}

	processedAt := s.now()
	txnID := NewTransactionID(processedAt)
	captured := models.PaymentStatusCaptured
	ok, err := s.orders.UpdateStatus(ctx, orderID, guard, repository.StatusChange{
		Status:               models.OrderStatusConfirmed,
		PaymentStatus:        &captured,
		PaymentTransactionID: &txnID,
	})
	if err != nil {
		log.Error("Failed to record payment capture", zap.Error(err))
		return nil, apperrors.Internal("Failed to process payment", err)
	}
	if !ok {
		return nil, apperrors.InvalidState("Payment already completed")
	}

	order.Status = models.OrderStatusConfirmed
	order.PaymentStatus = captured
	order.PaymentTransactionID = &txnID

	log.Info("Payment captured",
		zap.String("payment_type", string(details.Method())),
		zap.String("transaction_id", txnID),
	)
	s.events.publish(ctx, newOrderEvent(models.EventPaymentCaptured, order))

	return &models.PaymentResult{
		Success:       true,
		Message:       "Payment successful",
		TransactionID: txnID,
		PaymentType:   details.Method(),
		OrderStatus:   order.Status,
		ProcessedAt:   processedAt,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
