// Package mq publishes friend graph events to a message broker.
package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/puoklam/connectly-backend/env"
)

type EventType string

const (
	EventRequestSent     EventType = "friend.request.sent"
	EventRequestAccepted EventType = "friend.request.accepted"
	EventRequestRejected EventType = "friend.request.rejected"
	EventFriendRemoved   EventType = "friend.removed"
	EventHobbiesUpdated  EventType = "profile.hobbies.updated"
)

// Event describes one committed change. FriendID is empty for profile
// events.
type Event struct {
	Type     EventType `json:"type"`
	UserID   string    `json:"userId"`
	FriendID string    `json:"friendId,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// New returns the publisher for the configured broker. An empty broker
// disables publishing.
func New(cfg env.EventsConfig, logger zerolog.Logger) (Publisher, error) {
	logger = logger.With().Str("component", "mq").Str("broker", cfg.Broker).Logger()
	switch cfg.Broker {
	case "":
		logger.Info().Msg("event publishing disabled")
		return Noop{}, nil
	case "nsq":
		return NewNSQPublisher(cfg.Addr, cfg.Topic, logger)
	case "nats":
		return NewNATSPublisher(cfg.Addr, cfg.Topic, logger)
	default:
		return nil, fmt.Errorf("unsupported broker %q", cfg.Broker)
	}
}
