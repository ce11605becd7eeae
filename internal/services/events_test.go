package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/models"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	_, rdb := setupRedis(t)
	bus := NewEventBus(rdb, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.Subscribe(ctx, "u1")
	require.NoError(t, err)

	bus.Publish(ctx, models.StatusEvent{OrderID: "o2", UserID: "u2", Status: models.StatusShipped})
	bus.Publish(ctx, models.StatusEvent{OrderID: "o1", UserID: "u1", Status: models.StatusShipped})

	select {
	case ev := <-events:
		assert.Equal(t, "o1", ev.OrderID)
		assert.Equal(t, models.StatusShipped, ev.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventBus_NilIsSafe(t *testing.T) {
	var bus *EventBus
	bus.Publish(context.Background(), models.StatusEvent{UserID: "u1"})

	_, err := bus.Subscribe(context.Background(), "u1")
	assert.Error(t, err)
}
