package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/credflow/credflow/internal/domain/notification"
)

// KafkaDispatcher publishes lifecycle events to Kafka. Publishing is best
// effort: a broker outage is logged and never fails the mutation that
// produced the event.
type KafkaDispatcher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

func NewKafkaDispatcher(brokers []string, logger zerolog.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "kafka_dispatcher").Logger(),
	}
}

func (d *KafkaDispatcher) publish(topic, key string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		d.logger.Error().Err(err).Str("topic", topic).Msg("failed to marshal event")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		d.logger.Warn().Err(err).Str("topic", topic).Str("key", key).Msg("failed to publish event")
	}
}

func (d *KafkaDispatcher) NotifyStatusChanged(_ context.Context, ev notification.StatusChangedEvent) {
	d.publish(notification.TopicStatusChanged, ev.FileID, ev)
}

func (d *KafkaDispatcher) NotifyDisbursement(_ context.Context, ev notification.DisbursementEvent) {
	d.publish(notification.TopicDisbursed, ev.FileID, ev)
}

func (d *KafkaDispatcher) NotifyCommissionCreated(_ context.Context, ev notification.CommissionEvent) {
	d.publish(notification.TopicCommissionCreated, ev.LoanFileID, ev)
}

func (d *KafkaDispatcher) NotifyPayoutApproved(_ context.Context, ev notification.PayoutEvent) {
	d.publish(notification.TopicPayoutApproved, ev.EntryID, ev)
}

func (d *KafkaDispatcher) NotifyPayoutRejected(_ context.Context, ev notification.PayoutEvent) {
	d.publish(notification.TopicPayoutRejected, ev.EntryID, ev)
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}
