package ws

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSink struct {
	ch chan []byte
}

func (s chanSink) Publish(data []byte) {
	s.ch <- data
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return rdb
}

func TestRelayDeliversAcrossInstances(t *testing.T) {
	rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := chanSink{ch: make(chan []byte, 16)}
	second := chanSink{ch: make(chan []byte, 16)}
	a := NewRelay(rdb, "marathon-feed", first, nil)
	b := NewRelay(rdb, "marathon-feed", second, nil)
	go a.Run(ctx)
	go b.Run(ctx)

	// wait until both subscriptions are live
	require.Eventually(t, func() bool {
		return a.subscribed.Load() && b.subscribed.Load()
	}, 2*time.Second, 10*time.Millisecond)

	a.Publish([]byte(`{"dataType":"marathonDeleted","id":"1"}`))

	for _, sink := range []chanSink{first, second} {
		select {
		case msg := <-sink.ch:
			assert.JSONEq(t, `{"dataType":"marathonDeleted","id":"1"}`, string(msg))
		case <-time.After(2 * time.Second):
			t.Fatal("event not relayed")
		}
	}
}

func TestRelayFallsBackToLocal(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	local := chanSink{ch: make(chan []byte, 1)}
	NewRelay(rdb, "marathon-feed", local, nil).Publish([]byte("event"))

	select {
	case msg := <-local.ch:
		assert.Equal(t, "event", string(msg))
	default:
		t.Fatal("expected local delivery when redis is down")
	}
}

func TestRelayStopsOnCancel(t *testing.T) {
	rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- NewRelay(rdb, "marathon-feed", chanSink{ch: make(chan []byte, 1)}, nil).Run(ctx) }()

	require.Eventually(t, func() bool {
		n, err := rdb.PubSubNumSub(context.Background(), "marathon-feed").Result()
		return err == nil && n["marathon-feed"] == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRelayKeepsRunningWhileRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := chanSink{ch: make(chan []byte, 16)}
	relay := NewRelay(rdb, "marathon-feed", local, nil)
	relay.retry = 10 * time.Millisecond

	errc := make(chan error, 1)
	go func() { errc <- relay.Run(ctx) }()

	select {
	case err := <-errc:
		t.Fatalf("relay stopped while redis was down: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	relay.Publish([]byte("offline"))
	assert.Equal(t, "offline", string(<-local.ch))

	require.NoError(t, mr.Restart())
	require.Eventually(t, relay.subscribed.Load, 2*time.Second, 10*time.Millisecond)

	relay.Publish([]byte("online"))
	select {
	case msg := <-local.ch:
		assert.Equal(t, "online", string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("event not relayed after redis came back")
	}

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
