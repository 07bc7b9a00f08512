package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/obswell-etl/internal/config"
	"github.com/couchcryptid/obswell-etl/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// Writer publishes each table row as a JSON message to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer  *kafkago.Writer
	brokers []string
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, brokers: cfg.KafkaBrokers, logger: logger}
}

// Load serializes every row of batch and publishes them in a single
// WriteMessages call, keyed by zone so a station's rows stay ordered on
// one partition. Transient failures are retried with capped backoff.
func (w *Writer) Load(ctx context.Context, batch domain.Batch) error {
	if batch.Table.Len() == 0 {
		return nil
	}
	msgs, err := serializeBatch(batch)
	if err != nil {
		return err
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err = w.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			w.logger.Info("batch published", "topic", w.writer.Topic, "zone", batch.Zone, "messages", len(msgs))
			return nil
		}
		if attempt == maxAttempts || ctx.Err() != nil || !retriable(err) {
			return fmt.Errorf("publish %s: %w", batch.Zone, err)
		}
		w.logger.Warn("publish failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

// CheckReadiness dials the first reachable broker.
func (w *Writer) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, b := range w.brokers {
		conn, err := kafkago.DialContext(ctx, "tcp", b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("no kafka broker reachable: %w", errors.Join(errs...))
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func retriable(err error) bool {
	var kerr kafkago.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	var werr kafkago.WriteErrors
	if errors.As(err, &werr) {
		for _, e := range werr {
			if e != nil && !retriable(e) {
				return false
			}
		}
		return true
	}
	return true
}

// serializeBatch marshals each row of batch into a Kafka message.
func serializeBatch(batch domain.Batch) ([]kafkago.Message, error) {
	processedAt := []byte(batch.ProcessedAt.Format(time.RFC3339))
	msgs := make([]kafkago.Message, batch.Table.Len())
	for i := range msgs {
		data, err := json.Marshal(batch.Table.Row(i))
		if err != nil {
			return nil, fmt.Errorf("serialize row %d of %s: %w", i, batch.Zone, err)
		}
		msgs[i] = kafkago.Message{
			Key:   []byte(batch.Zone),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "zone", Value: []byte(batch.Zone)},
				{Key: "row", Value: []byte(strconv.Itoa(i))},
				{Key: "processed_at", Value: processedAt},
			},
		}
	}
	return msgs, nil
}
