package events

import (
	"context"
	"time"

	"trend-finder-be/internal/pkg/logger"
)

// Notifier emits the workspace events of one client. Publish failures are
// logged and never returned: events are advisory.
type Notifier struct {
	publisher Publisher
	logger    logger.ILogger
}

// NewNotifier accepts a nil publisher, in which case nothing is sent.
func NewNotifier(publisher Publisher, log logger.ILogger) *Notifier {
	return &Notifier{publisher: publisher, logger: log}
}

func (n *Notifier) Emit(ctx context.Context, clientID, eventType string, data map[string]interface{}) {
	if n == nil || n.publisher == nil {
		return
	}

	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["client_id"] = clientID

	evt := BaseEvent{
		Type:       eventType,
		Data:       payload,
		OccurredAt: time.Now(),
	}

	if err := n.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		n.logger.Error("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{
			"client_id": clientID,
			"error":     err.Error(),
		})
	}
}
