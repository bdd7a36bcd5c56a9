// VitalCoach - Personalized Health Recommendation Engine
// Copyright 2026 VitalCoach contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vitalcoach/vitalcoach

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// Invalidator clears a user's cached profile and recommendations.
// *recommend.Engine satisfies it.
type Invalidator interface {
	InvalidateUser(userID string)
}

// Bus is the in-process pub/sub connecting preference writes to cache
// invalidation. It wraps a watermill gochannel so the transport can be
// swapped for a broker without touching publishers or subscribers.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
}

// NewBus creates the bus.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBus(logger zerolog.Logger) *Bus {
	busLogger := logger.With().Str("component", "events").Logger()
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermillLogger{logger: busLogger},
		),
		logger: busLogger,
	}
}

// PublishPreferencesUpdated emits an invalidation event for the user.
func (b *Bus) PublishPreferencesUpdated(userID string) error {
	event := NewPreferencesUpdated(userID)
	payload, err := event.Marshal()
	if err != nil {
		return err
	}
	msg := message.NewMessage(event.EventID, payload)
	if err := b.pubsub.Publish(TopicPreferencesUpdated, msg); err != nil {
		return fmt.Errorf("publish preferences event: %w", err)
	}
	b.logger.Debug().Str("user_id", userID).Str("event_id", event.EventID).
		Msg("Published preferences update")
	return nil
}

// RunInvalidator consumes preference events and invalidates caches
// until the context is cancelled. Malformed events are dropped with a
// warning; they are acked so the channel keeps draining.
func (b *Bus) RunInvalidator(ctx context.Context, invalidator Invalidator) error {
	messages, err := b.pubsub.Subscribe(ctx, TopicPreferencesUpdated)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", TopicPreferencesUpdated, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			event, err := UnmarshalPreferencesUpdated(msg.Payload)
			if err != nil {
				b.logger.Warn().Err(err).Str("message_id", msg.UUID).
					Msg("Dropping malformed preferences event")
				msg.Ack()
				continue
			}
			invalidator.InvalidateUser(event.UserID)
			b.logger.Debug().Str("user_id", event.UserID).
				Msg("Invalidated caches after preferences update")
			msg.Ack()
		}
	}
}

// Close shuts down the underlying pub/sub.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// watermillLogger adapts zerolog to watermill's LoggerAdapter.
type watermillLogger struct {
	logger zerolog.Logger
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.logger.Info(), fields).Msg(msg)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.logger.Debug(), fields).Msg(msg)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.logger.Trace(), fields).Msg(msg)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	child := l.logger.With()
	for k, v := range fields {
		child = child.Interface(k, v)
	}
	return watermillLogger{logger: child.Logger()}
}

func (l watermillLogger) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
