package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher buffers events through an inbox channel and produces them to
// a Kafka topic from one worker goroutine. A full inbox drops the event with
// a warning; the activity trail is best-effort by design and must never slow
// down or fail a user operation.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	inbox  chan Event

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

const (
	inboxSize    = 256
	flushTimeout = 5 * time.Second
)

// NewKafkaPublisher connects to the brokers and starts the producing worker.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &KafkaPublisher{
		client: client,
		topic:  topic,
		logger: logger,
		inbox:  make(chan Event, inboxSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run(ctx)
	return p, nil
}

// Emit queues the event for production. Never blocks.
func (p *KafkaPublisher) Emit(_ context.Context, event Event) {
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("activity inbox full, dropping event",
			"document_id", event.DocumentID,
			"action", event.Action,
		)
	}
}

// Close stops the worker, flushes pending records, and closes the client.
func (p *KafkaPublisher) Close() {
	p.closeOnce.Do(func() {
		p.cancel()
		<-p.done
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := p.client.Flush(flushCtx); err != nil {
			p.logger.Warn("failed to flush activity events", "error", err)
		}
		p.client.Close()
	})
}

func (p *KafkaPublisher) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			// Drain whatever is already queued before shutting down.
			for {
				select {
				case event := <-p.inbox:
					p.produce(event)
				default:
					return
				}
			}
		case event := <-p.inbox:
			p.produce(event)
		}
	}
}

func (p *KafkaPublisher) produce(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal activity event", "error", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.DocumentID),
		Value: payload,
	}
	p.client.Produce(context.Background(), record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("failed to produce activity event",
				"document_id", event.DocumentID,
				"action", event.Action,
				"error", err,
			)
		}
	})
}
