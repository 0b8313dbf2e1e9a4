package library

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// Publisher delivers domain events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]interface{}) error
}

type notifier struct {
	publisher Publisher
	log       *zap.Logger
}

// emit publishes in the background; a failed publish never fails the operation
func (n notifier) emit(eventType string, payload map[string]interface{}) {
	if n.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := n.publisher.Publish(ctx, eventType, payload); err != nil {
			n.log.Error("Failed to publish event", zap.String("event_type", eventType), zap.Error(err))
		}
	}()
}
