package port

import (
	"context"
	"time"

	"promopilot/internal/core/domain"
)

// DrawResult pairs one batch-draw winner with the prize they drew.
type DrawResult struct {
	UserID  string `json:"user_id"`
	PrizeID string `json:"prize_id"`
}

// CampaignRepository defines the persistence layer for the campaign
// engine. It is an outbound port in hexagonal architecture. Lookups for
// unknown ids return a nil campaign and a nil error; implementations must
// be concurrency-safe and apply prize decrements atomically with the
// participant write that caused them.
type CampaignRepository interface {
	// CreateCampaign stores a new campaign with its prize inventory.
	CreateCampaign(ctx context.Context, c *domain.Campaign) error
	// GetCampaign returns a campaign with prizes and participants loaded,
	// or nil when the id is unknown.
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	// ListCampaigns returns all campaigns ordered by creation time.
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
	// SetStatus transitions the campaign lifecycle status.
	SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error
	// AddParticipant appends an entry. When the participant carries a
	// PrizeID the prize's remaining count is decremented in the same
	// atomic step. Returns ErrDuplicateEntry for a repeated user and
	// ErrPrizeExhausted when the referenced prize has no inventory left.
	AddParticipant(ctx context.Context, campaignID string, p domain.Participant) error
	// RecordDrawResults marks the drawn participants as winners,
	// decrements the drawn prizes and stamps the campaign as drawn, all
	// atomically.
	RecordDrawResults(ctx context.Context, campaignID string, drawnAt time.Time, results []DrawResult) error
}
