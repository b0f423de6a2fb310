package amqp

import (
	"context"
	"encoding/json"

	amqp091 "github.com/rabbitmq/amqp091-go"

	"promopilot/internal/core/domain"
	"promopilot/internal/core/port"
)

// Routing keys used on the topic exchange.
const (
	postPublishKey    = "post.publish"
	resultWonKeyBase  = "campaign.result.won"
	resultLostKeyBase = "campaign.result.lost"
)

// Producer publishes posts and campaign results to a topic exchange. It
// implements both port.Publisher and port.Notifier; the downstream
// delivery workers (the actual social-network client, the DM/reply bots)
// consume from this exchange.
type Producer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewProducer dials the broker and declares the topic exchange. The
// caller must Close the producer when done.
func NewProducer(url, exchange string) (*Producer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}
	return &Producer{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish sends the post body to the exchange. Any broker error is the
// publish failure the scheduler turns into a failed post.
func (p *Producer) Publish(ctx context.Context, post domain.ScheduledPost) error {
	return p.send(ctx, postPublishKey, post)
}

// NotifyResult sends a win/lose result. The routing key distinguishes
// winners from losers and carries the campaign type so each delivery
// worker can bind only the variant it handles.
func (p *Producer) NotifyResult(ctx context.Context, n port.Notification) error {
	key := resultLostKeyBase
	if n.Won {
		key = resultWonKeyBase
	}
	return p.send(ctx, key+"."+string(n.CampaignType), n)
}

func (p *Producer) send(ctx context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         payload,
		})
}

// Close closes the channel and connection.
func (p *Producer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
