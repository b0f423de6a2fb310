package amqp

import (
	"context"
	"encoding/json"
	"log/slog"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"promopilot/internal/core/port"
)

// EntryEvent is the wire form of one campaign entry supplied by the
// external webhook listener.
type EntryEvent struct {
	CampaignID string `json:"campaign_id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
}

// EntryConsumer feeds campaign entry events from a queue into the
// campaign engine. Malformed messages are dropped with an ack; engine
// failures nack with requeue so the entry is retried.
type EntryConsumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	engine  port.CampaignUseCase
	logger  *slog.Logger
}

// NewEntryConsumer dials the broker and opens a channel. The caller must
// Close the consumer when done.
func NewEntryConsumer(url string, engine port.CampaignUseCase, logger *slog.Logger) (*EntryConsumer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &EntryConsumer{conn: conn, channel: channel, engine: engine, logger: logger}, nil
}

// Consume declares the exchange, queue and binding, then processes entry
// events until ctx is cancelled or the channel closes.
func (c *EntryConsumer) Consume(ctx context.Context, exchange, queueName, routingKey string) error {
	err := c.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return err
	}

	q, err := c.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return err
	}

	if err = c.channel.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack off, we acknowledge manually
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

func (c *EntryConsumer) handle(ctx context.Context, d amqp091.Delivery) {
	var ev EntryEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		c.logger.Warn("dropping malformed entry event", slog.Any("error", err))
		_ = d.Ack(false)
		return
	}
	res, err := c.engine.EnterCampaign(ctx, ev.CampaignID, port.EntryUser{
		UserID:   ev.UserID,
		Username: ev.Username,
	})
	if err != nil {
		c.logger.Error("entry event processing failed",
			slog.String("campaign_id", ev.CampaignID),
			slog.Any("error", err))
		_ = d.Nack(false, true)
		return
	}
	c.logger.Info("entry event processed",
		slog.String("campaign_id", ev.CampaignID),
		slog.String("user_id", ev.UserID),
		slog.Bool("accepted", res.Accepted),
		slog.Bool("won", res.Won))
	_ = d.Ack(false)
}

// Close closes the channel and connection.
func (c *EntryConsumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
