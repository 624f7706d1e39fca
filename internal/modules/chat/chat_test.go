// README: Chat tests (deferred replies, ordering, cancellation and sessions).
package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickride/internal/config"
	"quickride/internal/modules/events"
	"quickride/internal/modules/ride"
	"quickride/internal/sched"
	"quickride/internal/types"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const replyText = "Entendido, estou a caminho!"

type fixture struct {
	chat  *Service
	rides *ride.Service
	loop  *sched.Loop
	hub   *events.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loop := sched.NewLoop(sched.NewManualClock(epoch), nil)
	reg := ride.NewRegistry()
	hub := events.NewHub()
	chat := NewService(reg, loop, hub, config.ChatConfig{ReplyDelay: 1500 * time.Millisecond, ReplyText: replyText})
	rides := ride.NewService(reg, loop, config.LifecycleConfig{Tick: 4 * time.Second, RandSeed: 1},
		ride.WithEvents(hub), ride.WithChatCloser(chat))
	return &fixture{chat: chat, rides: rides, loop: loop, hub: hub}
}

func (f *fixture) newRide(t *testing.T) types.ID {
	t.Helper()
	r, err := f.rides.Create(context.Background(), ride.CreateCommand{
		Destination:       "Rua Augusta, 500",
		PassengerName:     "Ana Souza",
		PassengerCPF:      "111.444.777-35",
		PassengerWhatsapp: "(21) 99876-5432",
		Category:          ride.CategorySUV,
	})
	require.NoError(t, err)
	return r.ID
}

func TestSend_DriverRepliesAfterDelay(t *testing.T) {
	f := newFixture(t)
	id := f.newRide(t)

	msg, ok := f.chat.Send(id, ride.SenderPassenger, "  Estou na portaria  ")
	require.True(t, ok)
	assert.Equal(t, ride.SenderPassenger, msg.Sender)
	assert.Equal(t, "  Estou na portaria  ", msg.Text, "text is stored as typed")

	f.loop.Advance(time.Second)
	msgs, ok := f.chat.Messages(id)
	require.True(t, ok)
	require.Len(t, msgs, 1)

	f.loop.Advance(600 * time.Millisecond)
	msgs, _ = f.chat.Messages(id)
	require.Len(t, msgs, 2)
	assert.Equal(t, ride.SenderDriver, msgs[1].Sender)
	assert.Equal(t, replyText, msgs[1].Text)
	assert.Equal(t, epoch.Add(1500*time.Millisecond), msgs[1].Timestamp)
}

func TestSend_InterleavedRepliesKeepOrder(t *testing.T) {
	f := newFixture(t)
	id := f.newRide(t)

	_, ok := f.chat.Send(id, ride.SenderPassenger, "um")
	require.True(t, ok)
	f.loop.Advance(time.Second)
	_, ok = f.chat.Send(id, ride.SenderPassenger, "dois")
	require.True(t, ok)
	f.loop.Advance(5 * time.Second)

	msgs, _ := f.chat.Messages(id)
	require.Len(t, msgs, 4)
	texts := []string{msgs[0].Text, msgs[1].Text, msgs[2].Text, msgs[3].Text}
	assert.Equal(t, []string{"um", "dois", replyText, replyText}, texts)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
	}
}

func TestSend_CancelBeforeReplyDropsIt(t *testing.T) {
	f := newFixture(t)
	id := f.newRide(t)

	_, ok := f.chat.Send(id, ride.SenderPassenger, "Já desço")
	require.True(t, ok)
	require.True(t, f.rides.Cancel(id))

	assert.NotPanics(t, func() { f.loop.Advance(2 * time.Second) })
	_, ok = f.chat.Messages(id)
	assert.False(t, ok)
	assert.Empty(t, f.rides.ListActive())
	assert.Empty(t, f.rides.ListHistory())
}

func TestSend_UnknownRideOrBlankText(t *testing.T) {
	f := newFixture(t)
	_, ok := f.chat.Send("missing", ride.SenderPassenger, "oi")
	assert.False(t, ok)

	id := f.newRide(t)
	_, ok = f.chat.Send(id, ride.SenderPassenger, "   ")
	assert.False(t, ok)
	assert.Zero(t, f.loop.Pending())
}

func TestSend_DriverMessageSchedulesNoReply(t *testing.T) {
	f := newFixture(t)
	id := f.newRide(t)

	msg, ok := f.chat.Send(id, ride.SenderDriver, "Cheguei")
	require.True(t, ok)
	assert.Equal(t, ride.SenderDriver, msg.Sender)
	assert.Zero(t, f.loop.Pending())

	_, ok = f.chat.Send(id, ride.Sender("dispatcher"), "oi")
	assert.False(t, ok)

	f.loop.Advance(5 * time.Second)
	msgs, _ := f.chat.Messages(id)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Cheguei", msgs[0].Text)
}

func TestSend_ReplyReachesArchivedRide(t *testing.T) {
	f := newFixture(t)
	id := f.newRide(t)
	_, ok := f.chat.Send(id, ride.SenderPassenger, "oi")
	require.True(t, ok)

	// Archive the ride before the reply fires.
	var archived bool
	f.loop.Do(func() {
		archived = f.chat.reg.Archive(id, func(r *ride.Ride) { r.Status = ride.StatusFinished })
	})
	require.True(t, archived)

	f.loop.Advance(2 * time.Second)
	msgs, ok := f.chat.Messages(id)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, ride.SenderDriver, msgs[1].Sender)
}

func TestOpen_SessionReceivesMessagesAndClosesOnCancel(t *testing.T) {
	f := newFixture(t)
	id := f.newRide(t)

	_, ok := f.chat.Open("missing")
	assert.False(t, ok)

	sub, ok := f.chat.Open(id)
	require.True(t, ok)

	_, ok = f.chat.Send(id, ride.SenderPassenger, "oi")
	require.True(t, ok)
	e := <-sub.Events
	assert.Equal(t, events.ChatMessage, e.Type)
	assert.Equal(t, "oi", e.Data.(ride.ChatMessage).Text)

	require.True(t, f.rides.Cancel(id))

	var got []events.Type
	for e := range sub.Events {
		got = append(got, e.Type)
	}
	assert.Equal(t, []events.Type{events.RideCancelled, events.ChatClosed}, got[len(got)-2:])
	select {
	case <-sub.Done:
	default:
		t.Fatal("session not closed")
	}
	assert.Zero(t, f.hub.Count(string(id)))
}
