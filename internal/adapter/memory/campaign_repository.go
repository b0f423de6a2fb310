package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"promopilot/internal/core/domain"
	"promopilot/internal/core/port"
)

// CampaignRepository implements port.CampaignRepository on a mutex-guarded
// map. It is the default store and the backing for deterministic tests;
// campaigns are cloned on every read so callers never share mutable state
// with the store.
type CampaignRepository struct {
	mu        sync.RWMutex
	campaigns map[string]*domain.Campaign
}

// NewCampaignRepository returns an empty in-memory store.
func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{campaigns: make(map[string]*domain.Campaign)}
}

// CreateCampaign stores a copy of the campaign.
func (r *CampaignRepository) CreateCampaign(_ context.Context, c *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = cloneCampaign(c)
	return nil
}

// GetCampaign returns a copy of the campaign, or nil when unknown.
func (r *CampaignRepository) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	return cloneCampaign(c), nil
}

// ListCampaigns returns copies of all campaigns ordered by creation time.
func (r *CampaignRepository) ListCampaigns(_ context.Context) ([]domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		out = append(out, *cloneCampaign(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SetStatus transitions the campaign status. Unknown ids are a no-op.
func (r *CampaignRepository) SetStatus(_ context.Context, id string, status domain.CampaignStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	return nil
}

// AddParticipant appends an entry, decrementing the referenced prize in
// the same critical section when the entry carries an award.
func (r *CampaignRepository) AddParticipant(_ context.Context, campaignID string, p domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok {
		return port.ErrNotFound
	}
	if c.Participant(p.UserID) != nil {
		return port.ErrDuplicateEntry
	}
	if p.PrizeID != nil {
		prize := prizeByID(c, *p.PrizeID)
		if prize == nil {
			return port.ErrNotFound
		}
		if !prize.Award() {
			return port.ErrPrizeExhausted
		}
	}
	c.Participants = append(c.Participants, p)
	c.UpdatedAt = time.Now()
	return nil
}

// RecordDrawResults marks winners, decrements drawn prizes and stamps the
// campaign as drawn. The drawn-at check runs inside the lock so two
// concurrent draws cannot both record; the second returns ErrInvalidState.
func (r *CampaignRepository) RecordDrawResults(_ context.Context, campaignID string, drawnAt time.Time, results []port.DrawResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok {
		return port.ErrNotFound
	}
	if c.DrawnAt != nil {
		return port.ErrInvalidState
	}
	for _, res := range results {
		p := c.Participant(res.UserID)
		prize := prizeByID(c, res.PrizeID)
		if p == nil || prize == nil {
			return port.ErrNotFound
		}
		if p.Won {
			return port.ErrInvalidState
		}
		if !prize.Award() {
			return port.ErrPrizeExhausted
		}
		prizeID := res.PrizeID
		p.Won = true
		p.PrizeID = &prizeID
	}
	c.DrawnAt = &drawnAt
	c.UpdatedAt = time.Now()
	return nil
}

func prizeByID(c *domain.Campaign, id string) *domain.Prize {
	for i := range c.Prizes {
		if c.Prizes[i].ID == id {
			return &c.Prizes[i]
		}
	}
	return nil
}

func cloneCampaign(c *domain.Campaign) *domain.Campaign {
	out := *c
	out.Prizes = append([]domain.Prize(nil), c.Prizes...)
	out.Participants = append([]domain.Participant(nil), c.Participants...)
	for i := range out.Participants {
		if c.Participants[i].PrizeID != nil {
			id := *c.Participants[i].PrizeID
			out.Participants[i].PrizeID = &id
		}
	}
	if c.DrawnAt != nil {
		t := *c.DrawnAt
		out.DrawnAt = &t
	}
	if c.Rules.WinProbability != nil {
		p := *c.Rules.WinProbability
		out.Rules.WinProbability = &p
	}
	return &out
}
