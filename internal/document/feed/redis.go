package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"complyline/pkg/platform/sentinel"
)

// Publisher announces document change events to other sessions.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber delivers remote change events until closed.
type Subscriber interface {
	// Events is the stream of incoming change events. It is closed after
	// Close returns; no event is delivered afterwards.
	Events() <-chan Event
	Close() error
}

// RedisPublisher publishes change events on a Redis channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: publish change event: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

// RedisSubscriber consumes change events from a Redis channel. It owns one
// receive goroutine that resubscribes with a short backoff after transport
// errors; Close tears the goroutine down and is safe to call once the caller
// must guarantee no further delivery.
type RedisSubscriber struct {
	pubsub *redis.PubSub
	logger *slog.Logger
	events chan Event

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

const resubscribeBackoff = time.Second

// NewRedisSubscriber subscribes to the channel and starts delivering events.
func NewRedisSubscriber(client *redis.Client, channel string, logger *slog.Logger) *RedisSubscriber {
	ctx, cancel := context.WithCancel(context.Background())
	s := &RedisSubscriber{
		pubsub: client.Subscribe(ctx, channel),
		logger: logger,
		events: make(chan Event, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.receive(ctx)
	return s
}

func (s *RedisSubscriber) Events() <-chan Event { return s.events }

// Close stops delivery synchronously: when it returns, the events channel is
// closed and no callback observing it will see another event.
func (s *RedisSubscriber) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}

func (s *RedisSubscriber) receive(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	for {
		msg, err := s.pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
				return
			}
			// go-redis re-establishes the subscription under the hood; the
			// backoff just avoids a hot loop while the transport is down.
			s.logger.Warn("change feed receive failed, resubscribing", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(resubscribeBackoff):
			}
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			s.logger.Warn("discarding malformed change event", "error", err)
			continue
		}
		select {
		case s.events <- event:
		case <-ctx.Done():
			return
		}
	}
}
