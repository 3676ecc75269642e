/*
Package events delivers committed reservation lifecycle events to the outside.

PURPOSE:
  The engine hands every committed change to a booking.EventSink. This
  package provides the two sinks the server uses: RabbitMQ for downstream
  consumers (housekeeping, billing, notifications) and a log sink for
  development.

ROUTING:
  Events go to a durable topic exchange with the event type as routing key:

    reservation.created
    reservation.checked_in
    reservation.checked_out
    reservation.cancelled
    reservation.room_reassigned
    reservation.expired

  A consumer interested in every departure binds "reservation.checked_out"
  and "reservation.expired"; one that wants everything binds "reservation.#".

DELIVERY:
  Messages are persistent JSON. Publishing happens after the database commit,
  so a broker outage loses the notification, never the booking.
*/
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/warp/hotel-engine/booking"
)

// AMQPSink publishes events to a RabbitMQ topic exchange.
type AMQPSink struct {
	exchange string

	mu   sync.Mutex // amqp channels are not safe for concurrent publishing
	conn *amqp.Connection
	ch   *amqp.Channel
}

// DialAMQP connects to url and declares exchange.
func DialAMQP(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: exchange declare failed: %w", err)
	}
	log.Printf("[Events] Publishing to exchange %q", exchange)
	return &AMQPSink{exchange: exchange, conn: conn, ch: ch}, nil
}

// Publish sends e with its type as routing key.
func (s *AMQPSink) Publish(ctx context.Context, e booking.Event) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ch.PublishWithContext(ctx,
		s.exchange,     // exchange
		string(e.Type), // routing key
		false,          // mandatory
		false,          // immediate
		msg,
	); err != nil {
		return fmt.Errorf("rabbitmq: publish %s failed: %w", e.Type, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ch.Close(); err != nil {
		_ = s.conn.Close()
		return err
	}
	return s.conn.Close()
}

// Message encodes an event as a persistent JSON publishing.
func Message(e booking.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode event %s: %w", e.Type, err)
	}
	ts := e.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Type:         string(e.Type),
		Timestamp:    ts.UTC(),
		Body:         body,
	}, nil
}

var _ booking.EventSink = (*AMQPSink)(nil)
