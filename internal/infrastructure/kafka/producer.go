package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nerrad567/iot-sensor-simulator/internal/infrastructure/config"
)

// Domain-specific errors for Kafka operations.
var (
	// ErrNoBrokers is returned when the config lists no brokers.
	ErrNoBrokers = errors.New("kafka: no brokers configured")

	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("kafka: producer closed")
)

const defaultWriteTimeout = 5 * time.Second

// messageWriter is the subset of *kafkago.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes messages to a single topic.
//
// Thread Safety: all methods are safe for concurrent use.
type Producer struct {
	writer       messageWriter
	brokers      []string
	topic        string
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewProducer creates a producer from the kafka section of config.yaml.
// No connection is made until the first write.
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic cannot be empty")
	}

	timeout := time.Duration(cfg.WriteTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		WriteTimeout: timeout,
		Async:        false,
	}

	return newProducer(w, cfg.Brokers, cfg.Topic, timeout), nil
}

func newProducer(w messageWriter, brokers []string, topic string, timeout time.Duration) *Producer {
	return &Producer{writer: w, brokers: brokers, topic: topic, writeTimeout: timeout}
}

// Topic returns the topic messages are written to.
func (p *Producer) Topic() string {
	return p.topic
}

// Write sends one message. The write is bounded by the configured
// timeout as well as ctx.
func (p *Producer) Write(ctx context.Context, key, value []byte, at time.Time) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	err := p.writer.WriteMessages(ctx, kafkago.Message{Key: key, Value: value, Time: at})
	if err != nil {
		return fmt.Errorf("kafka: writing to %s: %w", p.topic, err)
	}
	return nil
}

// HealthCheck dials the first reachable broker.
func (p *Producer) HealthCheck(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafkago.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close() //nolint:errcheck // connectivity check only
		return nil
	}
	return fmt.Errorf("kafka: no broker reachable: %w", lastErr)
}

// Close flushes and closes the writer. Safe to call more than once.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.writer == nil {
		return nil
	}
	p.closed = true
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("kafka: closing writer: %w", err)
	}
	return nil
}
