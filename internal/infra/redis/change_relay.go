package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"quiz-results-service/internal/domain"
)

// ChangesChannel is the pub/sub channel carrying result change events.
const ChangesChannel = "results:changed"

// Broadcaster receives events relayed from Redis.
type Broadcaster interface {
	Broadcast(event domain.ChangeEvent)
}

// ChangeRelay publishes change events through Redis pub/sub so every
// instance's local feed sees saves made on any instance.
type ChangeRelay struct {
	client *redis.Client
	local  Broadcaster
	logger *slog.Logger
	ready  chan struct{}
}

func NewChangeRelay(client *redis.Client, local Broadcaster, logger *slog.Logger) *ChangeRelay {
	return &ChangeRelay{
		client: client,
		local:  local,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Publish implements app.Publisher.
func (r *ChangeRelay) Publish(ctx context.Context, event domain.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	return r.client.Publish(ctx, ChangesChannel, data).Err()
}

// Ready is closed once Run has an active subscription.
func (r *ChangeRelay) Ready() <-chan struct{} {
	return r.ready
}

// Run relays events from Redis to the local feed until ctx is done.
func (r *ChangeRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, ChangesChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", ChangesChannel, err)
	}
	close(r.ready)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn("drop malformed change event", slog.Any("error", err))
				continue
			}
			r.local.Broadcast(event)
		}
	}
}
