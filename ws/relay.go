package ws

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	publishTimeout   = 2 * time.Second
	resubscribeDelay = 5 * time.Second
)

// Broadcaster delivers an event to locally connected clients.
type Broadcaster interface {
	Publish(data []byte)
}

// Relay shares feed events between server instances through a redis channel.
// While subscribed, events are published to redis only; every instance, this
// one included, receives them back from its subscription and hands them to
// its local hub. Without a subscription events go to local clients directly.
type Relay struct {
	rdb        *redis.Client
	channel    string
	local      Broadcaster
	log        *zap.Logger
	retry      time.Duration
	subscribed atomic.Bool
}

// NewRelay returns a relay publishing on channel and delivering to local.
func NewRelay(rdb *redis.Client, channel string, local Broadcaster, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}

	return &Relay{
		rdb:     rdb,
		channel: channel,
		local:   local,
		log:     log,
		retry:   resubscribeDelay,
	}
}

// Publish sends data to every subscribed instance. When redis is unreachable
// the event is still delivered to local clients.
func (r *Relay) Publish(data []byte) {
	if !r.subscribed.Load() {
		r.local.Publish(data)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := r.rdb.Publish(ctx, r.channel, data).Err(); err != nil {
		r.log.Warn("publishing feed event to redis", zap.String("channel", r.channel), zap.Error(err))
		r.local.Publish(data)
	}
}

// Run forwards messages from the redis channel to the local hub until ctx is
// cancelled. A failed subscription is retried; redis being down never stops Run.
func (r *Relay) Run(ctx context.Context) error {
	for {
		err := r.forward(ctx)
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn("feed relay unavailable, delivering events locally",
			zap.String("channel", r.channel),
			zap.Duration("retry", r.retry),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.retry):
		}
	}
}

func (r *Relay) forward(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}
	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	r.log.Info("relaying feed events", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed")
			}
			r.local.Publish([]byte(msg.Payload))
		}
	}
}
