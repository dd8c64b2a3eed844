package events

import (
	"context"
	"fmt"

	"trend-finder-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const ChannelTopic = "trendfinder.events"

// ChannelBus is the in-process bus on a watermill GoChannel. Publish returns
// once the subscriber has handled the event.
type ChannelBus struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger
}

func NewChannelBus(log logger.ILogger) *ChannelBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 256,
			// one publish at a time keeps each client's events in emit order
			BlockPublishUntilSubscriberAck: true,
		},
		watermill.NewStdLogger(false, false),
	)
	return &ChannelBus{pubSub: pubSub, logger: log}
}

func (b *ChannelBus) Publish(_ context.Context, event Event) error {
	data, err := Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("type", event.EventType())

	return b.pubSub.Publish(ChannelTopic, msg)
}

// Subscribe runs handler for every event until ctx is done.
func (b *ChannelBus) Subscribe(ctx context.Context, handler Handler) error {
	messages, err := b.pubSub.Subscribe(ctx, ChannelTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			event, err := Unmarshal(msg.Payload)
			if err != nil {
				b.logger.Error("EVENTS", "Dropping unreadable event", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}
			if err := handler(ctx, event); err != nil {
				b.logger.Warn("EVENTS", "Event handler failed", map[string]interface{}{
					"type":  event.Type,
					"error": err.Error(),
				})
			}
			msg.Ack()
		}
	}()

	return nil
}

func (b *ChannelBus) Close() error {
	return b.pubSub.Close()
}
