package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/models"
)

// OrderChannel est le canal pub/sub des événements de statut des commandes d'un utilisateur.
func OrderChannel(userID string) string { return "orders:" + userID }

// EventBus diffuse les événements de statut via le pub/sub Redis.
type EventBus struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewEventBus(rdb *redis.Client, logger *zap.Logger) *EventBus {
	return &EventBus{rdb: rdb, logger: logger}
}

// Publish se fait au mieux, un bus nil ignore l'événement.
func (b *EventBus) Publish(ctx context.Context, ev models.StatusEvent) {
	if b == nil || b.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn("encode status event", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(context.WithoutCancel(ctx), OrderChannel(ev.UserID), payload).Err(); err != nil {
		b.logger.Warn("publish status event",
			zap.String("order_id", ev.OrderID),
			zap.Error(err))
	}
}

// Subscribe diffuse les événements de l'utilisateur jusqu'à la fin de ctx.
// Le channel retourné est fermé à la fin de l'abonnement.
func (b *EventBus) Subscribe(ctx context.Context, userID string) (<-chan models.StatusEvent, error) {
	if b == nil || b.rdb == nil {
		return nil, fmt.Errorf("event bus not configured")
	}

	sub := b.rdb.Subscribe(ctx, OrderChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", OrderChannel(userID), err)
	}

	out := make(chan models.StatusEvent)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev models.StatusEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("decode status event", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
