// Package eventbus provides the watermill publisher/subscriber pair the
// modules share: NATS JetStream in production and an in-process gochannel
// bus for development and tests.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nkeys"
)

// EventBus publishes and subscribes to watermill messages.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// Config configures the NATS event bus.
type Config struct {
	URL string
	// NKeySeed authenticates the connection when set.
	NKeySeed string
	// StreamName is the JetStream stream backing Subjects.
	StreamName string
	Subjects   []string
	// QueueGroupPrefix load-balances subscribers across instances.
	QueueGroupPrefix string
}

// DefaultStreamName is the stream used when Config.StreamName is empty.
const DefaultStreamName = "PARTY"

// DefaultSubjects cover every topic the game module publishes.
var DefaultSubjects = []string{"game.>", "room.>"}

var _ EventBus = (*natsEventBus)(nil)

type natsEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	js         jetstream.JetStream
	conn       *nc.Conn
	logger     *slog.Logger

	streamMu       sync.Mutex
	createdStreams map[string]bool
}

// NewNATS connects to NATS JetStream, provisions the configured stream and
// returns an EventBus backed by watermill-nats.
func NewNATS(ctx context.Context, cfg Config, logger *slog.Logger) (EventBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.StreamName == "" {
		cfg.StreamName = DefaultStreamName
	}
	if len(cfg.Subjects) == 0 {
		cfg.Subjects = DefaultSubjects
	}

	options, err := connectOptions(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := nc.Connect(cfg.URL, options...)
	if err != nil {
		logger.Error("Failed to connect to NATS", attr.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		logger.Error("Failed to initialize JetStream", attr.Error(err))
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         cfg.URL,
			Marshaler:   marshaler,
			NatsOptions: options,
			JetStream: nats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
			},
			SubjectCalculator: nats.DefaultSubjectCalculator,
		},
		wmLogger,
	)
	if err != nil {
		conn.Close()
		logger.Error("Failed to create Watermill publisher", attr.Error(err))
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:              cfg.URL,
			QueueGroupPrefix: cfg.QueueGroupPrefix,
			Unmarshaler:      marshaler,
			NatsOptions:      options,
			JetStream: nats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
				SubscribeOptions: []nc.SubOpt{
					nc.DeliverNew(),
					nc.AckExplicit(),
				},
			},
			SubjectCalculator: nats.DefaultSubjectCalculator,
		},
		wmLogger,
	)
	if err != nil {
		publisher.Close()
		conn.Close()
		logger.Error("Failed to create Watermill subscriber", attr.Error(err))
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	bus := &natsEventBus{
		publisher:      publisher,
		subscriber:     subscriber,
		js:             js,
		conn:           conn,
		logger:         logger,
		createdStreams: make(map[string]bool),
	}

	if err := bus.ensureStream(ctx, cfg.StreamName, cfg.Subjects); err != nil {
		_ = bus.Close()
		return nil, err
	}

	return bus, nil
}

func connectOptions(cfg Config) ([]nc.Option, error) {
	options := []nc.Option{
		nc.Name("party-bot"),
		nc.RetryOnFailedConnect(true),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
		nc.Timeout(10 * time.Second),
	}

	if cfg.NKeySeed != "" {
		opt, err := nkeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, nil
}

// nkeyOption answers the server's auth challenge by signing its nonce with
// the user seed.
func nkeyOption(seed string) (nc.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS nkey seed: %w", err)
	}
	publicKey, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive NATS public key: %w", err)
	}
	return nc.Nkey(publicKey, kp.Sign), nil
}

// ensureStream creates the stream or adds any missing subjects to it.
func (eb *natsEventBus) ensureStream(ctx context.Context, streamName string, subjects []string) error {
	eb.streamMu.Lock()
	defer eb.streamMu.Unlock()

	if eb.createdStreams[streamName] {
		return nil
	}

	stream, err := eb.js.Stream(ctx, streamName)
	switch {
	case errors.Is(err, jetstream.ErrStreamNotFound):
		if _, err := eb.js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     streamName,
			Subjects: subjects,
			MaxAge:   24 * time.Hour,
		}); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}
		eb.logger.InfoContext(ctx, "Stream created",
			attr.String("stream_name", streamName),
			attr.Any("subjects", subjects),
		)
	case err != nil:
		return fmt.Errorf("failed to check if stream exists: %w", err)
	default:
		info, err := stream.Info(ctx)
		if err != nil {
			return fmt.Errorf("failed to get stream info: %w", err)
		}

		missing := false
		for _, subject := range subjects {
			if !slices.Contains(info.Config.Subjects, subject) {
				info.Config.Subjects = append(info.Config.Subjects, subject)
				missing = true
			}
		}
		if missing {
			if _, err := eb.js.UpdateStream(ctx, info.Config); err != nil {
				return fmt.Errorf("failed to update stream with new subjects: %w", err)
			}
			eb.logger.InfoContext(ctx, "Stream updated with new subjects",
				attr.String("stream_name", streamName),
				attr.Any("subjects", info.Config.Subjects),
			)
		}
	}

	eb.createdStreams[streamName] = true
	return nil
}

func (eb *natsEventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
	}
	if err := eb.publisher.Publish(topic, messages...); err != nil {
		eb.logger.Error("Failed to publish message",
			attr.String("topic", topic),
			attr.Error(err),
		)
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (eb *natsEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := eb.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	eb.logger.InfoContext(ctx, "Subscription started", attr.String("topic", topic))
	return messages, nil
}

// Close closes the publisher, the subscriber and the NATS connection.
func (eb *natsEventBus) Close() error {
	var errs []error
	if eb.publisher != nil {
		if err := eb.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if eb.subscriber != nil {
		if err := eb.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if eb.conn != nil {
		eb.conn.Close()
	}
	return errors.Join(errs...)
}
