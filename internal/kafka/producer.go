package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/portfolio-advisor/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing portfolio and risk events to Kafka
type Producer struct {
	writer         messageWriter
	portfolioTopic string
	alertTopic     string
}

// NewProducer creates a new Kafka producer. The topic is chosen per message.
func NewProducer(brokers []string, portfolioTopic, alertTopic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer:         writer,
		portfolioTopic: portfolioTopic,
		alertTopic:     alertTopic,
	}
}

// PublishPortfolioUpdated publishes the full portfolio after a change
func (p *Producer) PublishPortfolioUpdated(ctx context.Context, portfolio *models.Portfolio, trade *models.Trade) error {
	event := models.PortfolioEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventPortfolioUpdated,
		Owner:     portfolio.Owner,
		Kind:      portfolio.Kind,
		Portfolio: portfolio,
		Trade:     trade,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, p.portfolioTopic, portfolio.Owner+":"+portfolio.Kind, event)
}

// PublishRiskAlert publishes a triggered risk alert
func (p *Producer) PublishRiskAlert(ctx context.Context, kind string, alert *models.RiskAlert) error {
	event := models.RiskAlertEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventRiskAlert,
		Kind:      kind,
		Alert:     alert,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, p.alertTopic, kind, event)
}

func (p *Producer) publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
