// README: External event sinks: logrus, Redis pub/sub, Postgres audit table, RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type LogSink struct {
	log logrus.FieldLogger
}

func NewLogSink(log logrus.FieldLogger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(_ context.Context, e Event) error {
	s.log.WithFields(logrus.Fields{"event": e.Type, "ride_id": e.RideID}).Debug("ride event")
	return nil
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes each event as JSON on a pub/sub channel.
type RedisSink struct {
	client  redisPublisher
	channel string
}

func NewRedisSink(client redisPublisher, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createRideEventsSQL = `
CREATE TABLE IF NOT EXISTS ride_events (
    id          BIGSERIAL PRIMARY KEY,
    ride_id     TEXT        NOT NULL,
    event_type  TEXT        NOT NULL,
    payload     JSONB,
    created_at  TIMESTAMPTZ NOT NULL
)`

// PostgresSink appends events to an audit table. Nothing in the engine reads
// the table back.
type PostgresSink struct {
	db execer
}

func NewPostgresSink(db execer) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, createRideEventsSQL)
	return err
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, e Event) error {
	var payload *string
	if e.Data != nil {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("marshal event data: %w", err)
		}
		p := string(b)
		payload = &p
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO ride_events (ride_id, event_type, payload, created_at)
        VALUES ($1, $2, $3, $4)`,
		string(e.RideID),
		string(e.Type),
		payload,
		e.At,
	)
	return err
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes to a topic exchange using the event type as routing key.
type AMQPSink struct {
	ch       amqpPublisher
	exchange string
}

func NewAMQPSink(ch amqpPublisher, exchange string) *AMQPSink {
	return &AMQPSink{ch: ch, exchange: exchange}
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Write(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.ch.PublishWithContext(ctx, s.exchange, string(e.Type), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   e.At,
		Body:        body,
	})
}
