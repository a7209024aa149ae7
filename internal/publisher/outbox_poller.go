package publisher

import (
	"context"
	"errors"
	"time"

	r "github.com/fjod/go_cart/settlement-service/internal/repository"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Options struct {
	Tick         time.Duration
	BatchSize    int
	WriteTimeout time.Duration
	// BreakerTimeout is how long the breaker stays open before probing Kafka again.
	BreakerTimeout time.Duration
}

var DefaultOptions = Options{
	Tick:           time.Second,
	BatchSize:      100,
	WriteTimeout:   5 * time.Second,
	BreakerTimeout: 30 * time.Second,
}

// OutboxPoller relays committed outbox events to Kafka. Delivery is at least
// once: an event is marked processed only after the write succeeds.
type OutboxPoller struct {
	repo    r.OutboxRepository
	writer  MessageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	opts    Options
	log     *zap.Logger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(repo r.OutboxRepository, writer MessageWriter, opts Options, log *zap.Logger) *OutboxPoller {
	log = log.Named("outbox")
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "kafka-outbox",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})
	return &OutboxPoller{repo: repo, writer: writer, breaker: breaker, opts: opts, log: log}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

// processUnpublishedEvents returns how many events were published.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.opts.BatchSize)
	if err != nil {
		p.log.Error("failed to fetch events", zap.Error(err))
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				p.log.Debug("kafka unavailable, postponing batch", zap.Int("pending", len(events)-published))
				return published
			}
			p.log.Error("failed to publish event",
				zap.Stringer("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			// later events share the aggregate key and must not overtake this one
			return published
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error("failed to mark event as processed", zap.Stringer("event_id", event.ID), zap.Error(err))
			return published
		}
		published++
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateId),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
	}

	_, err := p.breaker.Execute(func() (struct{}, error) {
		writeCtx, cancel := context.WithTimeout(ctx, p.opts.WriteTimeout)
		defer cancel()
		return struct{}{}, p.writer.WriteMessages(writeCtx, msg)
	})
	return err
}
