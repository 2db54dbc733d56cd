package services

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=publisher.go -destination=publisher_mock.go -package=services

// KafkaWriter defines the interface for writing messages to Kafka.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
}

// KafkaPublisher publishes committed ledger entries, keyed by transaction id.
type KafkaPublisher struct {
	writer KafkaWriter
}

// NewKafkaPublisher creates a new KafkaPublisher.
func NewKafkaPublisher(writer KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish writes txs as one batch. Failures are logged; the ledger is already committed.
func (p *KafkaPublisher) Publish(ctx context.Context, txs ...*models.Transaction) {
	if p.writer == nil {
		logger.Log.Warnw("kafka writer not configured, skipping publishing", "count", len(txs))
		return
	}

	msgs := make([]kafka.Message, 0, len(txs))
	for _, txn := range txs {
		data, err := json.Marshal(txn)
		if err != nil {
			logger.Log.Errorw("failed to marshal transaction for kafka", "transaction_id", txn.TransactionID, "error", err)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(txn.TransactionID.String()),
			Value: data,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(txn.Type)},
				{Key: "status", Value: []byte(txn.Status)},
			},
		})
	}
	if len(msgs) == 0 {
		return
	}

	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msgs...); err != nil {
		logger.Log.Errorw("failed to publish transactions to kafka", "count", len(msgs), "error", err)
		return
	}
	logger.Log.Infow("transactions published to kafka", "count", len(msgs))
}
