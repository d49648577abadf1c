package services

import (
	"context"
	"encoding/json"
	"time"

	"food-order-service/awsclient"
	"food-order-service/logger"
	"food-order-service/models"

	"go.uber.org/zap"
)

// eventPublisher sends order events to SNS. Publishing is best effort: a
// failure is logged and never fails the request that caused it.
type eventPublisher struct {
	sns    awsclient.SNSPublisher
	topic  string
	logger *zap.Logger
}

func newOrderEvent(eventType string, o *models.Order) models.OrderEvent {
	ev := models.OrderEvent{
		EventType:     eventType,
		OrderID:       o.ID.String(),
		UserID:        o.UserID.String(),
		RestaurantID:  o.RestaurantID.String(),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalCents:    o.TotalCents,
		Timestamp:     time.Now().UTC(),
	}
	if o.PaymentTransactionID != nil {
		ev.TransactionID = *o.PaymentTransactionID
	}
	return ev
}

func (p eventPublisher) publish(ctx context.Context, event models.OrderEvent) {
	log := logger.For(ctx, p.logger)
	if p.sns == nil || p.topic == "" {
		log.Debug("SNS not configured, skipping event publish", zap.String("event_type", event.EventType))
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		log.Error("Failed to marshal order event", zap.Error(err))
		return
	}
	if err := p.sns.Publish(ctx, p.topic, event.EventType, b); err != nil {
		log.Error("Failed to publish order event",
			zap.String("event_type", event.EventType),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return
	}
	log.Info("Published order event",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.OrderID),
	)
}
