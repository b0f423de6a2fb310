// Package logonly provides collaborator implementations that only log.
// They stand in for the broker-backed publisher and notifier when no
// broker is configured, which keeps local development and demos free of
// infrastructure.
package logonly

import (
	"context"
	"log/slog"

	"promopilot/internal/core/domain"
	"promopilot/internal/core/port"
)

// Publisher implements port.Publisher by logging the post. It never
// fails, so every executed post transitions to posted.
type Publisher struct {
	logger *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) Publish(_ context.Context, post domain.ScheduledPost) error {
	p.logger.Info("publishing post",
		slog.String("post_id", post.ID),
		slog.String("text", post.Text),
		slog.Int("media", len(post.MediaURLs)))
	return nil
}

// Notifier implements port.Notifier by logging the result.
type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) NotifyResult(_ context.Context, res port.Notification) error {
	attrs := []any{
		slog.String("campaign_id", res.CampaignID),
		slog.String("user_id", res.UserID),
		slog.Bool("won", res.Won),
	}
	if res.Prize != nil {
		attrs = append(attrs, slog.String("prize", res.Prize.Name))
	}
	n.logger.Info("campaign result", attrs...)
	return nil
}
