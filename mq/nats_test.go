package mq

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puoklam/connectly-backend/env"
)

func runServer(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("nats server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func TestNATSPublisher(t *testing.T) {
	ns := runServer(t)

	sub, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer sub.Close()
	msgs := make(chan *nats.Msg, 4)
	_, err = sub.ChanSubscribe("friend-graph.>", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	p, err := New(env.EventsConfig{Broker: "nats", Addr: ns.ClientURL(), Topic: "friend-graph"}, zerolog.Nop())
	require.NoError(t, err)
	defer p.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(context.Background(), Event{
		Type:     EventRequestAccepted,
		UserID:   "a",
		FriendID: "b",
		At:       at,
	}))

	select {
	case m := <-msgs:
		assert.Equal(t, "friend-graph.friend.request.accepted", m.Subject)
		var got Event
		require.NoError(t, json.Unmarshal(m.Data, &got))
		assert.Equal(t, EventRequestAccepted, got.Type)
		assert.Equal(t, "a", got.UserID)
		assert.Equal(t, "b", got.FriendID)
		assert.True(t, at.Equal(got.At))
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNATSPublisherCanceledContext(t *testing.T) {
	ns := runServer(t)
	p, err := NewNATSPublisher(ns.ClientURL(), "friend-graph", zerolog.Nop())
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, Event{Type: EventFriendRemoved}), context.Canceled)
}

func TestNewSelectsBroker(t *testing.T) {
	p, err := New(env.EventsConfig{Topic: "friend-graph"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.Publish(context.Background(), Event{}))

	_, err = New(env.EventsConfig{Broker: "kafka", Topic: "x"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewNATSUnreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "friend-graph", zerolog.Nop())
	assert.Error(t, err)
}

func TestNSQPublisherUnreachable(t *testing.T) {
	_, err := NewNSQPublisher("127.0.0.1:1", "friend-graph", zerolog.Nop())
	assert.Error(t, err)
}
