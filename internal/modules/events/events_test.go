package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickride/internal/types"
)

var at = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestHub_DeliversToRideAndGlobalTopics(t *testing.T) {
	hub := NewHub()
	ride := hub.Subscribe("r1")
	other := hub.Subscribe("r2")
	global := hub.Subscribe(GlobalTopic)

	hub.Publish(Event{Type: ChatMessage, RideID: "r1", At: at})

	require.Len(t, ride.Events, 1)
	require.Len(t, global.Events, 1)
	assert.Len(t, other.Events, 0)
	assert.Equal(t, ChatMessage, (<-ride.Events).Type)
}

func TestHub_CloseTopic(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe("r1")
	b := hub.Subscribe("r1")

	assert.Equal(t, 2, hub.CloseTopic("r1"))
	assert.Zero(t, hub.Count("r1"))

	for _, sub := range []*Subscriber{a, b} {
		select {
		case <-sub.Done:
		default:
			t.Fatal("subscriber Done not closed")
		}
	}
	// unsubscribing after the topic closed must not double-close
	hub.Unsubscribe(a)
	assert.Zero(t, hub.CloseTopic("r1"))
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("r1")
	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(Event{Type: RideApproach, RideID: "r1", At: at})
	}
	assert.Len(t, sub.Events, subscriberBuffer)
}

type recordingSink struct {
	mu     sync.Mutex
	got    []Event
	err    error
	notify chan struct{}
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Write(_ context.Context, e Event) error {
	s.mu.Lock()
	s.got = append(s.got, e)
	s.mu.Unlock()
	s.notify <- struct{}{}
	return s.err
}

func TestBus_ForwardsToSinksEvenWhenOneFails(t *testing.T) {
	failing := &recordingSink{err: errors.New("down"), notify: make(chan struct{}, 1)}
	ok := &recordingSink{notify: make(chan struct{}, 1)}
	bus := NewBus(NewHub(), nil, failing, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	bus.Publish(Event{Type: RideCreated, RideID: "r1", At: at})

	for _, s := range []*recordingSink{failing, ok} {
		select {
		case <-s.notify:
		case <-time.After(2 * time.Second):
			t.Fatal("sink not called")
		}
	}
	ok.mu.Lock()
	defer ok.mu.Unlock()
	require.Len(t, ok.got, 1)
	assert.Equal(t, types.ID("r1"), ok.got[0].RideID)
}

type fakeRedis struct {
	channel string
	message interface{}
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message = message
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func TestRedisSink_PublishesJSON(t *testing.T) {
	fake := &fakeRedis{}
	sink := NewRedisSink(fake, "quickride:events")

	err := sink.Write(context.Background(), Event{Type: RideCancelled, RideID: "r9", At: at})
	require.NoError(t, err)
	assert.Equal(t, "quickride:events", fake.channel)

	var decoded Event
	require.NoError(t, json.Unmarshal(fake.message.([]byte), &decoded))
	assert.Equal(t, RideCancelled, decoded.Type)
	assert.Equal(t, types.ID("r9"), decoded.RideID)
}

type fakeExec struct {
	sql  []string
	args [][]any
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresSink_InsertsRow(t *testing.T) {
	db := &fakeExec{}
	sink := NewPostgresSink(db)
	require.NoError(t, sink.EnsureSchema(context.Background()))

	err := sink.Write(context.Background(), Event{
		Type:   RideStatusChanged,
		RideID: "r1",
		At:     at,
		Data:   StatusChange{From: "ACCEPTED", To: "FINISHED"},
	})
	require.NoError(t, err)
	require.Len(t, db.args, 2)

	args := db.args[1]
	assert.Equal(t, "r1", args[0])
	assert.Equal(t, string(RideStatusChanged), args[1])
	payload := args[2].(*string)
	assert.JSONEq(t, `{"from":"ACCEPTED","to":"FINISHED"}`, *payload)
	assert.Equal(t, at, args[3])
}

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func TestAMQPSink_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	sink := NewAMQPSink(ch, "quickride.events")

	require.NoError(t, sink.Write(context.Background(), Event{Type: ChatMessage, RideID: "r1", At: at}))
	assert.Equal(t, "quickride.events", ch.exchange)
	assert.Equal(t, "chat.message", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
}
