package ieventpublisher

import (
	"context"

	"github.com/Dongwon38/print-agent/internal/service/models/event"
)

// IEventPublisher delivers operator notifications.
type IEventPublisher interface {
	Publish(ctx context.Context, e event.Event) error
}
