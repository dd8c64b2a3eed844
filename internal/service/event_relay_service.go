package service

import (
	"context"

	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/internal/websocket"
	"trend-finder-be/pkg/events"
)

// SubscribeFunc attaches a handler to an event source until ctx is done.
type SubscribeFunc func(ctx context.Context, handler events.Handler) error

// IEventRelayService pushes workspace events to the sockets of the device
// they belong to.
type IEventRelayService interface {
	Start(ctx context.Context) error
}

type eventRelayService struct {
	subscribe SubscribeFunc
	hub       *websocket.Hub
	logger    logger.ILogger
}

func NewEventRelayService(subscribe SubscribeFunc, hub *websocket.Hub, log logger.ILogger) IEventRelayService {
	return &eventRelayService{
		subscribe: subscribe,
		hub:       hub,
		logger:    log,
	}
}

func (s *eventRelayService) Start(ctx context.Context) error {
	return s.subscribe(ctx, s.relay)
}

func (s *eventRelayService) relay(_ context.Context, event events.Event) error {
	clientID := events.ClientID(event)
	if clientID == "" {
		s.logger.Warn("RELAY", "Event without client id", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	return s.hub.SendJSON(clientID, event.EventType(), event.Payload())
}
