package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	gootel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"tienda/pkg/logger"
	"tienda/pkg/order"
)

// Producer writes messages to a broker.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// DefaultSendTimeout bounds one background delivery.
const DefaultSendTimeout = 5 * time.Second

// NewKafkaWriter returns a writer that flushes each event promptly and
// gives up after a single attempt.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              1,
		BatchTimeout:           5 * time.Millisecond,
		MaxAttempts:            1,
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher publishes order events to a topic keyed by order id.
// Delivery happens in the background so publishing never waits on the broker.
type KafkaPublisher struct {
	log      *logger.Logger
	producer Producer
	topic    string
	timeout  time.Duration

	inflight sync.WaitGroup
}

// NewKafkaPublisher creates a publisher for topic.
func NewKafkaPublisher(log *logger.Logger, producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{log: log, producer: producer, topic: topic, timeout: DefaultSendTimeout}
}

// Publish encodes ev and hands it to the producer in the background. Only
// encoding errors are returned; delivery failures are logged.
func (p *KafkaPublisher) Publish(ctx context.Context, ev order.Created) error {
	msg, err := p.message(ctx, ev)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer cancel()
		p.send(sendCtx, ev.ID, msg)
	}()
	return nil
}

// Wait blocks until every background delivery has finished.
func (p *KafkaPublisher) Wait() {
	p.inflight.Wait()
}

func (p *KafkaPublisher) send(ctx context.Context, id int, msg kafka.Message) {
	if err := p.producer.WriteMessages(ctx, msg); err != nil {
		p.log.Error(ctx, "order event dispatch failed", "order_id", id, "error", errors.Wrapf(err, "publish order %d", id))
		return
	}
	p.log.Debug(ctx, "order event dispatched", "order_id", id, "topic", p.topic)
}

// message builds the record with its event type and the caller's trace
// context in the headers.
func (p *KafkaPublisher) message(ctx context.Context, ev order.Created) (kafka.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "encode event")
	}

	headers := []kafka.Header{{Key: "event_type", Value: []byte(TypeOrderCreated)}}
	carrier := propagation.MapCarrier{}
	gootel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return kafka.Message{
		Topic:   p.topic,
		Key:     []byte(strconv.Itoa(ev.ID)),
		Value:   payload,
		Headers: headers,
	}, nil
}
