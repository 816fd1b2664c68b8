package interactions

import (
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
)

// KafkaPublisher produces JSON encoded events to a Kafka topic, keyed by session id.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *zap.Logger
}

// NewKafkaPublisher connects to brokers (a comma separated bootstrap list) and starts
// draining delivery reports.
func NewKafkaPublisher(brokers, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"client.id":         "tunisia-guide",
		"acks":              "1",
	})
	if err != nil {
		return nil, err
	}

	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With(zap.String("topic", topic)),
	}
	go p.drain()
	return p, nil
}

func (p *KafkaPublisher) drain() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Warn("Event delivery failed", zap.Error(ev.TopicPartition.Error))
			}
		case kafka.Error:
			p.logger.Error("Kafka producer error", zap.Error(ev))
		}
	}
}

func (p *KafkaPublisher) Publish(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("Failed to encode event", zap.String("type", string(e.Type)), zap.Error(err))
		return
	}
	if err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(e.SessionID),
		Value:          payload,
	}, nil); err != nil {
		p.logger.Warn("Failed to enqueue event", zap.String("type", string(e.Type)), zap.Error(err))
	}
}

// Close flushes outstanding messages for up to timeoutMs and closes the producer.
func (p *KafkaPublisher) Close(timeoutMs int) {
	if remaining := p.producer.Flush(timeoutMs); remaining != 0 {
		p.logger.Warn("Events not delivered before shutdown", zap.Int("remaining", remaining))
	}
	p.producer.Close()
}
