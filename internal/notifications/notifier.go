package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/shopspring/decimal"

	"github.com/multifolks/multifolks-backend/pkg/logger"
)

const publishTimeout = 10 * time.Second

// OrderCreatedEvent is the payload handed to the external notification
// dispatcher after checkout. Delivery templates and channels live outside
// this service.
type OrderCreatedEvent struct {
	Email        string          `json:"email"`
	OrderID      string          `json:"order_id"`
	OrderTotal   decimal.Decimal `json:"order_total"`
	CustomerName string          `json:"customer_name"`
}

// Notifier dispatches order lifecycle events. Implementations must be safe
// to call best-effort: order creation never fails on a notification error.
type Notifier interface {
	OrderCreated(ctx context.Context, event OrderCreatedEvent) error
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// PubSubNotifier publishes order events to the configured Pub/Sub topic.
type PubSubNotifier struct {
	pub  publisher
	logg *logger.Logger
}

// NewPubSubNotifier builds a notifier around an order-events publisher.
func NewPubSubNotifier(pub *gcppubsub.Publisher, logg *logger.Logger) (*PubSubNotifier, error) {
	if pub == nil {
		return nil, fmt.Errorf("order events publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PubSubNotifier{pub: pub, logg: logg}, nil
}

// OrderCreated publishes the event and waits for the broker ack so the
// caller's best-effort error handling sees real failures.
func (n *PubSubNotifier) OrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	msg, err := orderCreatedMessage(event)
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := n.pub.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publishing order created event: %w", err)
	}
	n.logg.Info(n.logg.WithOrderID(ctx, event.OrderID), "order created event published")
	return nil
}

func orderCreatedMessage(event OrderCreatedEvent) (*gcppubsub.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encoding order created event: %w", err)
	}
	return &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": "order.created",
			"order_id":   event.OrderID,
		},
	}, nil
}

// NoopNotifier is used when no broker is configured (local development,
// tests). It logs and succeeds.
type NoopNotifier struct {
	logg *logger.Logger
}

// NewNoopNotifier builds a notifier that drops events.
func NewNoopNotifier(logg *logger.Logger) *NoopNotifier {
	return &NoopNotifier{logg: logg}
}

func (n *NoopNotifier) OrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	if n.logg != nil {
		n.logg.Info(n.logg.WithOrderID(ctx, event.OrderID), "order created event dropped (no broker configured)")
	}
	return nil
}
