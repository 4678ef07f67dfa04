package pkg

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/controlrest/pkg/event"
)

const (
	DefaultStreamName = "CONTROLREST_EVENTS"
	DefaultStreamAge  = 24 * time.Hour
)

// StreamSubjects are the topics retained by the JetStream stream.
var StreamSubjects = []string{
	TableStatusTopic,
	event.KitchenTicketsTopic,
	event.OrderStatusTopic,
	event.InventoryStockTopic,
}

type NATSStreamConfig struct {
	URL        string
	StreamName string
	// ConsumerPrefix names the durable consumers, one per subscribed topic.
	ConsumerPrefix string
	MaxAge         time.Duration
	MaxMsgs        int64
}

// NATSStream publishes to and consumes from a JetStream stream, so events
// survive subscriber restarts.
type NATSStream struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	prefix string
	logger apt.Logger

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
}

func NewNATSStream(ctx context.Context, cfg NATSStreamConfig, logger apt.Logger) (*NATSStream, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if cfg.StreamName == "" {
		cfg.StreamName = DefaultStreamName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultStreamAge
	}
	if cfg.ConsumerPrefix == "" {
		cfg.ConsumerPrefix = "controlrest"
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("controlrest-stream"))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot create JetStream context: %w", err)
	}

	streamConfig := jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: StreamSubjects,
		MaxAge:   cfg.MaxAge,
	}
	if cfg.MaxMsgs > 0 {
		streamConfig.MaxMsgs = cfg.MaxMsgs
	}

	stream, err := js.CreateOrUpdateStream(ctx, streamConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot create or update stream %s: %w", cfg.StreamName, err)
	}

	return &NATSStream{
		conn:   conn,
		js:     js,
		stream: stream,
		prefix: cfg.ConsumerPrefix,
		logger: logger,
	}, nil
}

func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("cannot publish to stream: %w", err)
	}
	return nil
}

// Subscribe binds a durable consumer to topic. Only messages published after
// the consumer is first created are delivered; failed handlers get the
// message redelivered.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	name := ConsumerName(s.prefix, topic)
	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          name,
		Durable:       name,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		FilterSubject: topic,
	})
	if err != nil {
		return fmt.Errorf("cannot create or update consumer %s: %w", name, err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			s.logger.Error("stream handler failed", "topic", topic, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("cannot consume %s: %w", topic, err)
	}

	s.mu.Lock()
	s.consumes = append(s.consumes, cc)
	s.mu.Unlock()
	return nil
}

func (s *NATSStream) Close() error {
	s.mu.Lock()
	for _, cc := range s.consumes {
		cc.Stop()
	}
	s.consumes = nil
	s.mu.Unlock()

	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
	return nil
}

// ConsumerName derives a durable consumer name, which may not contain dots.
func ConsumerName(prefix, topic string) string {
	return prefix + "_" + strings.NewReplacer(".", "_", "*", "any", ">", "all").Replace(topic)
}
