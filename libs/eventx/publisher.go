package eventx

import (
	"context"
	"log/slog"
	"time"

	"github.com/rifat-karim/bizpilot/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type Publisher struct {
	queue     *Queue
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
}

func NewPublisher(queue *Queue, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		queue:     queue,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	if len(p.brokers) == 0 {
		p.logger.Warn("event publisher running in discard mode (no kafka brokers configured)")
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if batch := p.queue.Drain(p.batchSize); len(batch) > 0 {
					p.logger.Debug("discarded events", "count", len(batch))
				}
			}
		}
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  p.brokers,
		Balancer: &kafka.Hash{},
	})
	defer writer.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.publishBatch(ctx, writer); err != nil {
				p.logger.Error("event publish failed", "err", err)
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, writer *kafka.Writer) error {
	batch := p.queue.Drain(p.batchSize)
	if len(batch) == 0 {
		return nil
	}

	for i, evt := range batch {
		msgCtx := contextWithTrace(ctx, evt)
		msg := kafka.Message{
			Topic: evt.EventType,
			Key:   []byte(evt.AggregateID),
			Value: evt.Payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(evt.EventID)},
				{Key: "event_type", Value: []byte(evt.EventType)},
			},
		}
		msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
		if err := writer.WriteMessages(ctx, msg); err != nil {
			// Put the unsent tail back so nothing is lost within the process.
			p.queue.Requeue(batch[i:])
			return err
		}
	}
	return nil
}

func contextWithTrace(ctx context.Context, evt Event) context.Context {
	if evt.traceparent == "" {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": evt.traceparent}
	if evt.tracestate != "" {
		carrier.Set("tracestate", evt.tracestate)
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
