package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/mkristof/go-storefront/internal/kafka"
	"github.com/mkristof/go-storefront/internal/orders"
	"github.com/mkristof/go-storefront/internal/redisx"
)

// Service is the fulfillment collaborator: it picks up freshly created
// orders and walks them through the status machine. Here the walk is a
// simulated ship step; a real warehouse integration would sit behind the
// same handler.
type Service struct {
	Orders      orders.Store
	Redis       *redis.Client
	Producer    *kafkax.Producer // publishes order.status.changed
	ServiceName string
}

// HandleOrderCreated is installed as the consumer handler for order.created.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	// dedup on event_id so redelivery cannot double-transition
	dkey := fmt.Sprintf(redisx.KeyDedup, "fulfillment", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Orders.SetStatus(ctx, p.OrderID, orders.StatusShipped); err != nil {
		if errors.Is(err, orders.ErrInvalidTransition) {
			// already past processing (redelivery after a lost dedup key)
			return nil
		}
		return err
	}

	// drop the read-through status cache entry
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)).Err()

	s.publishStatusChanged(p.OrderID, orders.StatusProcessing, orders.StatusShipped, env.TraceID)
	log.Printf("fulfillment: order %s shipped", p.OrderID)
	return nil
}

func (s *Service) publishStatusChanged(orderID string, from, to orders.Status, trace string) {
	if s.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(orders.StatusChangedPayload{OrderID: orderID, From: from, To: to}),
	}
	s.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
