// Package events announces committed orders to the outside world. The
// order engine never waits on a broker: publishing happens after commit and
// failures are only logged.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeMC777/storefront/internal/order"
)

const EventOrderPlaced = "OrderPlaced"

const producerName = "storefront"

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Total   string      `json:"total"`
	Items   []OrderItem `json:"items"`
}

// Publisher delivers an envelope. key groups events of one order.
type Publisher interface {
	Publish(ctx context.Context, key string, env Envelope) error
}

func NewOrderPlaced(o *order.Order, at time.Time) (Envelope, error) {
	p := OrderPlacedPayload{OrderID: o.ID, UserID: o.UserID, Total: o.Total}
	for _, it := range o.Items {
		p.Items = append(p.Items, OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode payload: %w", err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      producerName,
		CorrelationID: o.ID,
		Payload:       raw,
	}, nil
}

// OrderListener turns committed orders into OrderPlaced events on pub.
func OrderListener(pub Publisher) order.Listener {
	return order.ListenerFunc(func(ctx context.Context, o *order.Order) error {
		env, err := NewOrderPlaced(o, time.Now())
		if err != nil {
			return err
		}
		return pub.Publish(ctx, o.ID, env)
	})
}
