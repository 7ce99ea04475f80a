package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Invalidator drops cached catalog reads after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads catalog events, including ones written by other
// instances, and invalidates the local cache for each.
type KafkaConsumer struct {
	reader      messageReader
	invalidator Invalidator
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	started     bool
}

func NewKafkaConsumer(brokers []string, topic, groupID string, invalidator Invalidator, logger *zap.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newKafkaConsumer(reader, invalidator, logger)
}

func newKafkaConsumer(reader messageReader, invalidator Invalidator, logger *zap.Logger) *KafkaConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaConsumer{
		reader:      reader,
		invalidator: invalidator,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

func (kc *KafkaConsumer) Start() {
	kc.logger.Info("Kafka consumer started")
	kc.started = true
	go kc.consume()
}

func (kc *KafkaConsumer) consume() {
	defer close(kc.done)
	defer kc.reader.Close()

	for {
		msg, err := kc.reader.FetchMessage(kc.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || kc.ctx.Err() != nil {
				kc.logger.Info("Kafka consumer stopped")
				return
			}
			kc.logger.Error("Error reading message", zap.Error(err))
			continue
		}

		if err := kc.processMessage(kc.ctx, msg); err != nil {
			kc.logger.Error("Error processing message",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset))
			continue
		}

		// 메시지 처리 성공 시 커밋
		if err := kc.reader.CommitMessages(kc.ctx, msg); err != nil {
			kc.logger.Error("Error committing message", zap.Error(err))
		}
	}
}

func (kc *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event CatalogEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	kc.logger.Info("Processing catalog event",
		zap.String("event_id", event.EventID),
		zap.String("type", string(event.Type)),
		zap.String("product_id", event.ProductID))

	switch event.Type {
	case ProductCreated, ProductDeleted, CategoryCreated:
		return kc.invalidator.Invalidate(ctx)
	default:
		kc.logger.Warn("Unknown catalog event type", zap.String("type", string(event.Type)))
		return nil
	}
}

// Stop cancels the read loop and waits for it to exit.
func (kc *KafkaConsumer) Stop() {
	kc.logger.Info("Stopping Kafka consumer")
	kc.cancel()
	if kc.started {
		<-kc.done
	}
}
