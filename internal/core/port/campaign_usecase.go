package port

import (
	"context"
	"time"

	"promopilot/internal/core/domain"
)

// CampaignUseCase defines the business operations of the campaign engine.
// This is the primary inbound port; HTTP handlers and the event consumer
// both drive the engine through it. Operations on unknown campaign ids
// return nil results with a nil error rather than failing.
type CampaignUseCase interface {
	// CreateCampaign creates a campaign in draft status. Each prize's
	// remaining count is initialised to its quantity.
	CreateCampaign(ctx context.Context, req CreateCampaignReq) (*domain.Campaign, error)

	// GetCampaign returns a campaign by id, or nil when unknown.
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)

	// ListCampaigns returns all campaigns.
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)

	// StartCampaign transitions draft -> active. Starting a non-draft
	// campaign returns ErrInvalidState.
	StartCampaign(ctx context.Context, id string) (*domain.Campaign, error)

	// EndCampaign transitions any status to ended. Ending an already
	// ended campaign is a safe no-op.
	EndCampaign(ctx context.Context, id string) (*domain.Campaign, error)

	// EnterCampaign evaluates one user's entry. A rejected entry
	// (unknown campaign, inactive campaign, duplicate user) is a normal
	// outcome reported through EntryResult.Accepted, not an error. For
	// instant campaign types the win is resolved before the participant
	// record is stored, so the result already carries the outcome.
	EnterCampaign(ctx context.Context, campaignID string, user EntryUser) (*EntryResult, error)

	// RunDraw performs the batch draw of a later_lottery campaign. It
	// runs at most once per campaign; calling it again, or on an instant
	// campaign, returns ErrInvalidState.
	RunDraw(ctx context.Context, campaignID string) ([]DrawResult, error)

	// Stats returns derived, read-only campaign figures.
	Stats(ctx context.Context, campaignID string) (*CampaignStats, error)
}

// PrizeInput is one prize definition supplied at campaign creation.
type PrizeInput struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CreateCampaignReq carries everything needed to create a campaign.
type CreateCampaignReq struct {
	Name        string              `json:"name"`
	Type        domain.CampaignType `json:"type"`
	Description string              `json:"description"`
	StartDate   time.Time           `json:"start_date"`
	EndDate     time.Time           `json:"end_date"`
	Prizes      []PrizeInput        `json:"prizes"`
	Rules       domain.Rules        `json:"rules"`
}

// EntryUser identifies the user behind an entry attempt.
type EntryUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// EntryResult is the outcome of an entry attempt. Won and Prize are only
// meaningful for instant campaign types when Accepted is true.
type EntryResult struct {
	Accepted bool          `json:"accepted"`
	Won      bool          `json:"won"`
	Prize    *domain.Prize `json:"prize,omitempty"`
}

// PrizeStats reports inventory and award counts for one prize.
type PrizeStats struct {
	PrizeID   string `json:"prize_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Remaining int    `json:"remaining"`
	Awarded   int    `json:"awarded"`
}

// CampaignStats aggregates participation figures for one campaign. It is
// a pure function of campaign state and has no side effects.
type CampaignStats struct {
	CampaignID   string                `json:"campaign_id"`
	Name         string                `json:"name"`
	Status       domain.CampaignStatus `json:"status"`
	Participants int                   `json:"participants"`
	Winners      int                   `json:"winners"`
	WinRate      float64               `json:"win_rate"`
	Prizes       []PrizeStats          `json:"prizes"`
}
