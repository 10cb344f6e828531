package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DeadLetterSuffix names the dead-letter topic of a source topic.
const DeadLetterSuffix = ".dlq"

// Dead-letter headers added on top of the original message headers.
const (
	HeaderDLQTopic     = "dlq.original_topic"
	HeaderDLQPartition = "dlq.original_partition"
	HeaderDLQOffset    = "dlq.original_offset"
	HeaderDLQGroup     = "dlq.consumer_group"
	HeaderDLQError     = "dlq.error"
)

// DeadLetterTopic returns the dead-letter topic for topic.
func DeadLetterTopic(topic string) string {
	return topic + DeadLetterSuffix
}

// DeadLetter parks messages a consumer gave up on, keeping the original key,
// value and headers so they can be replayed by hand.
type DeadLetter struct {
	writer messageWriter
	group  string
	logger *slog.Logger
}

// NewDeadLetter creates a dead-letter sink for consumer group group.
func NewDeadLetter(brokers []string, group string, logger *slog.Logger) *DeadLetter {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           100 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newDeadLetter(w, group, logger)
}

func newDeadLetter(w messageWriter, group string, logger *slog.Logger) *DeadLetter {
	return &DeadLetter{writer: w, group: group, logger: logger}
}

// Send writes msg to its dead-letter topic with cause recorded in headers.
func (d *DeadLetter) Send(ctx context.Context, msg kafka.Message, cause error) error {
	topic := DeadLetterTopic(msg.Topic)

	headers := make([]kafka.Header, 0, len(msg.Headers)+5)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderDLQTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderDLQPartition, Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: HeaderDLQOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: HeaderDLQGroup, Value: []byte(d.group)},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: HeaderDLQError, Value: []byte(cause.Error())})
	}

	err := d.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("publish to dead-letter topic %s: %w", topic, err)
	}

	d.logger.WarnContext(ctx, "message parked in dead-letter topic",
		slog.String("dlq_topic", topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)
	return nil
}

// Close closes the underlying writer.
func (d *DeadLetter) Close() error {
	return d.writer.Close()
}
