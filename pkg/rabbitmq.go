package pkg

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange every ledger event is routed through.
// Topics map 1:1 to routing keys.
const DefaultExchange = "controlrest.events"

type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	mu       sync.Mutex
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, ch, err := dialRabbit(url, exchange)
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.PublishWithContext(ctx, p.exchange, topic, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         msg,
	})
	if err != nil {
		return fmt.Errorf("cannot publish to %s: %w", topic, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	closeRabbit(p.conn, p.ch)
	return nil
}

type RabbitSubscriber struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   apt.Logger
	mu       sync.Mutex
}

func NewRabbitSubscriber(url, exchange string, logger apt.Logger) (*RabbitSubscriber, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, ch, err := dialRabbit(url, exchange)
	if err != nil {
		return nil, err
	}
	return &RabbitSubscriber{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Subscribe binds a private, auto-deleted queue to the topic and consumes it
// until ctx is done.
func (s *RabbitSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("cannot declare queue for %s: %w", topic, err)
	}
	if err := s.ch.QueueBind(q.Name, topic, s.exchange, false, nil); err != nil {
		return fmt.Errorf("cannot bind queue for %s: %w", topic, err)
	}
	deliveries, err := s.ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("cannot consume %s: %w", topic, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := handler(ctx, d.Body); err != nil {
					s.logger.Error("message handler failed", "topic", topic, "error", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (s *RabbitSubscriber) Close() error {
	closeRabbit(s.conn, s.ch)
	return nil
}

func dialRabbit(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("cannot open RabbitMQ channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		closeRabbit(conn, ch)
		return nil, nil, fmt.Errorf("cannot declare exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}

func closeRabbit(conn *amqp.Connection, ch *amqp.Channel) {
	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}
