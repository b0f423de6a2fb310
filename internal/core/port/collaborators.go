package port

import (
	"context"

	"promopilot/internal/core/domain"
)

// Publisher performs the actual network publish of a post. Any returned
// error is terminal for that attempt: the scheduler marks the post failed
// and never retries on its own.
type Publisher interface {
	Publish(ctx context.Context, post domain.ScheduledPost) error
}

// Notification carries one resolved entry outcome to the outside world.
type Notification struct {
	CampaignID   string              `json:"campaign_id"`
	CampaignName string              `json:"campaign_name"`
	CampaignType domain.CampaignType `json:"campaign_type"`
	UserID       string              `json:"user_id"`
	Username     string              `json:"username"`
	Won          bool                `json:"won"`
	Prize        *domain.Prize       `json:"prize,omitempty"`
}

// Notifier delivers win/lose results to participants. Failures are logged
// by the caller and never fed back into campaign state.
type Notifier interface {
	NotifyResult(ctx context.Context, n Notification) error
}
