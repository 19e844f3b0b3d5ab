package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-advisor/internal/models"
	"github.com/trogers1052/portfolio-advisor/internal/portfolio"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// TradeExecutor applies a trade to a portfolio
type TradeExecutor interface {
	Execute(ctx context.Context, req portfolio.TradeRequest) (*models.Portfolio, *models.Trade, error)
}

// TradeConsumer applies TRADE_REQUESTED commands from Kafka.
// Each command carries an id and is applied at most once.
type TradeConsumer struct {
	reader   messageReader
	executor TradeExecutor
	log      zerolog.Logger
}

// NewTradeConsumer creates a consumer for trade commands
func NewTradeConsumer(brokers []string, topic, groupID string, executor TradeExecutor, log zerolog.Logger) *TradeConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &TradeConsumer{
		reader:   reader,
		executor: executor,
		log:      log.With().Str("component", "trade_consumer").Logger(),
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *TradeConsumer) Start(ctx context.Context) error {
	c.log.Info().Str("topic", c.reader.Config().Topic).Msg("Starting trade command consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Trade command consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.log.Error().Err(err).Msg("Error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.Error().Err(err).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Error processing message")
			}
		}
	}
}

func (c *TradeConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.TradeCommandEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trade command: %w", err)
	}

	if event.EventType != models.EventTradeRequested {
		c.log.Debug().Str("event_type", event.EventType).Msg("Ignoring event type")
		return nil
	}

	req, err := toTradeRequest(event)
	if err != nil {
		return fmt.Errorf("failed to convert trade command %s: %w", event.CommandID, err)
	}

	_, trade, err := c.executor.Execute(ctx, req)
	if errors.Is(err, portfolio.ErrDuplicateCommand) {
		c.log.Info().Str("command_id", event.CommandID).Msg("Trade command already applied, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply trade command %s: %w", event.CommandID, err)
	}

	c.log.Info().
		Str("command_id", event.CommandID).
		Str("source", event.Source).
		Str("side", trade.Side).
		Str("symbol", trade.Symbol).
		Msg("Applied trade command")
	return nil
}

func toTradeRequest(event models.TradeCommandEvent) (portfolio.TradeRequest, error) {
	data := event.Data
	if event.CommandID == "" {
		return portfolio.TradeRequest{}, errors.New("missing command_id")
	}

	quantity, err := decimal.NewFromString(data.Quantity)
	if err != nil {
		return portfolio.TradeRequest{}, fmt.Errorf("invalid quantity %s: %w", data.Quantity, err)
	}

	price, err := decimal.NewFromString(data.Price)
	if err != nil {
		return portfolio.TradeRequest{}, fmt.Errorf("invalid price %s: %w", data.Price, err)
	}

	return portfolio.TradeRequest{
		Kind:      data.Kind,
		Symbol:    data.Symbol,
		Side:      data.Side,
		Quantity:  quantity,
		Price:     price,
		Sector:    data.Sector,
		CommandID: event.CommandID,
	}, nil
}

// Close closes the Kafka consumer
func (c *TradeConsumer) Close() error {
	return c.reader.Close()
}
