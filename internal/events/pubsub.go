package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubConfig holds configuration for the Pub/Sub source.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// PubSubSource feeds events from a Pub/Sub subscription to a Dispatcher.
type PubSubSource struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// NewPubSubSource creates a Pub/Sub source.
func NewPubSubSource(ctx context.Context, cfg PubSubConfig) (*PubSubSource, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = time.Minute

	return NewSource(cfg.Dispatcher, cfg.Logger).attach(client, subscriber, cfg.SubscriptionName), nil
}

// NewSource creates a source without a subscription. Messages are passed to
// Process directly.
func NewSource(dispatcher *Dispatcher, logger zerolog.Logger) *PubSubSource {
	return &PubSubSource{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *PubSubSource) attach(client *pubsub.Client, subscriber *pubsub.Subscriber, name string) *PubSubSource {
	s.client = client
	s.subscriber = subscriber
	s.subscriptionName = name
	return s
}

// Start receives messages until ctx is done.
func (s *PubSubSource) Start(ctx context.Context) error {
	if s.subscriber == nil {
		return errors.New("pubsub source has no subscription")
	}

	s.logger.Info().
		Str("subscription", s.subscriptionName).
		Msg("starting pubsub event source")

	return s.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := s.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if s.process(ctx, msg.Data, logger) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (s *PubSubSource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Process handles one message body and reports whether it should be acked.
// Undecodable messages and unknown event types are logged and acked, since
// redelivery cannot fix them. Failed dispatches are nacked.
func (s *PubSubSource) Process(ctx context.Context, data []byte) bool {
	return s.process(ctx, data, s.logger)
}

func (s *PubSubSource) process(ctx context.Context, data []byte, logger zerolog.Logger) bool {
	startTime := time.Now()

	ev, err := Decode(data)
	if err != nil {
		logger.Error().Err(err).Int("size", len(data)).Msg("dropping undecodable event")
		return true
	}

	if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
		if errors.Is(err, ErrUnknownType) {
			logger.Warn().Str("type", string(ev.Type)).Msg("unknown event type")
			return true
		}
		logger.Error().Err(err).Str("type", string(ev.Type)).Msg("event failed")
		return false
	}

	logger.Debug().
		Str("type", string(ev.Type)).
		Dur("duration", time.Since(startTime)).
		Msg("event handled")
	return true
}
