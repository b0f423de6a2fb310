package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"promopilot/internal/core/domain"
	"promopilot/internal/core/port"
)

// CampaignUseCase implements the campaign engine: lifecycle transitions,
// entry evaluation with the instant probability draw, the deferred batch
// draw and derived statistics. All state lives behind the injected
// repository; the usecase itself is stateless.
type CampaignUseCase struct {
	repo     port.CampaignRepository
	notifier port.Notifier
	clock    port.Clock
	logger   *slog.Logger

	// defaultWinProb is the instant-draw win percentage applied when a
	// campaign's rules carry no explicit probability.
	defaultWinProb int
}

// NewCampaignUseCase wires the engine with its repository, the outward
// notification collaborator and a clock. defaultWinProb is clamped to
// [0,100].
func NewCampaignUseCase(repo port.CampaignRepository, notifier port.Notifier, clock port.Clock, logger *slog.Logger, defaultWinProb int) *CampaignUseCase {
	return &CampaignUseCase{
		repo:           repo,
		notifier:       notifier,
		clock:          clock,
		logger:         logger,
		defaultWinProb: clampProbability(defaultWinProb),
	}
}

// CreateCampaign creates a campaign in draft status. Each prize starts
// with its remaining count equal to its quantity. The date window is
// stored as given; no end-after-start validation is applied.
func (u *CampaignUseCase) CreateCampaign(ctx context.Context, req port.CreateCampaignReq) (*domain.Campaign, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("unknown campaign type %q", req.Type)
	}
	now := u.clock.Now()
	c := &domain.Campaign{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      domain.CampaignStatusDraft,
		Rules:       req.Rules,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, p := range req.Prizes {
		c.Prizes = append(c.Prizes, domain.Prize{
			ID:        uuid.NewString(),
			Name:      p.Name,
			Quantity:  p.Quantity,
			Remaining: p.Quantity,
		})
	}
	if err := u.repo.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}
	u.logger.Info("campaign created",
		slog.String("campaign_id", c.ID),
		slog.String("type", string(c.Type)))
	return c, nil
}

// GetCampaign returns a campaign by id, or nil when unknown.
func (u *CampaignUseCase) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	return u.repo.GetCampaign(ctx, id)
}

// ListCampaigns returns all campaigns.
func (u *CampaignUseCase) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return u.repo.ListCampaigns(ctx)
}

// StartCampaign transitions draft -> active. Unknown ids return nil, nil.
func (u *CampaignUseCase) StartCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := u.repo.GetCampaign(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	if c.Status != domain.CampaignStatusDraft {
		return nil, port.ErrInvalidState
	}
	if err = u.repo.SetStatus(ctx, id, domain.CampaignStatusActive); err != nil {
		return nil, err
	}
	c.Status = domain.CampaignStatusActive
	u.logger.Info("campaign started", slog.String("campaign_id", id))
	return c, nil
}

// EndCampaign transitions any status to ended. Ending an already ended
// campaign keeps it ended and reports no error.
func (u *CampaignUseCase) EndCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := u.repo.GetCampaign(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	if c.Status == domain.CampaignStatusEnded {
		return c, nil
	}
	if err = u.repo.SetStatus(ctx, id, domain.CampaignStatusEnded); err != nil {
		return nil, err
	}
	c.Status = domain.CampaignStatusEnded
	u.logger.Info("campaign ended", slog.String("campaign_id", id))
	return c, nil
}

// EnterCampaign evaluates one user's entry against a single captured now.
// Rejections (unknown campaign, inactive campaign, duplicate user) are
// normal outcomes, reported with Accepted=false and no side effect. For
// instant campaign types the probability draw resolves before the
// participant record is stored, so the stored entry already carries the
// outcome.
func (u *CampaignUseCase) EnterCampaign(ctx context.Context, campaignID string, user port.EntryUser) (*port.EntryResult, error) {
	c, err := u.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	rejected := &port.EntryResult{Accepted: false}
	if c == nil {
		return rejected, nil
	}
	now := u.clock.Now()
	if !c.ActiveAt(now) {
		return rejected, nil
	}
	if c.Participant(user.UserID) != nil {
		return rejected, nil
	}

	p := domain.Participant{
		UserID:    user.UserID,
		Username:  user.Username,
		EnteredAt: now,
	}
	res := &port.EntryResult{Accepted: true}
	if c.Type.Instant() {
		if prize := u.instantDraw(c); prize != nil {
			p.Won = true
			p.PrizeID = &prize.ID
			res.Won = true
			res.Prize = prize
		}
	}

	if err = u.repo.AddParticipant(ctx, c.ID, p); err != nil {
		// Lost races on the duplicate check or the last prize unit are
		// normal rejections, same as failing the precondition upfront.
		if errors.Is(err, port.ErrDuplicateEntry) || errors.Is(err, port.ErrPrizeExhausted) {
			return rejected, nil
		}
		return nil, err
	}

	u.notify(ctx, c, p, res.Prize)
	return res, nil
}

// instantDraw rolls the entry-time lottery. It returns the awarded prize
// with its remaining count already decremented, or nil on a loss. No
// prize inventory means an automatic loss regardless of probability.
func (u *CampaignUseCase) instantDraw(c *domain.Campaign) *domain.Prize {
	avail := c.AvailablePrizes()
	if len(avail) == 0 {
		return nil
	}
	if rand.Intn(100) >= u.winProbability(c.Rules) {
		return nil
	}
	prize := c.Prizes[avail[rand.Intn(len(avail))]]
	prize.Remaining--
	return &prize
}

// RunDraw performs the deferred batch draw of a later_lottery campaign.
// Each prize draws up to its remaining inventory from the not-yet-won
// participant pool without replacement, so a participant wins at most one
// prize. The draw runs at most once; repeat invocations and invocations
// on instant campaigns return ErrInvalidState. Unknown ids return nil, nil.
func (u *CampaignUseCase) RunDraw(ctx context.Context, campaignID string) ([]port.DrawResult, error) {
	c, err := u.repo.GetCampaign(ctx, campaignID)
	if err != nil || c == nil {
		return nil, err
	}
	if c.Type != domain.CampaignTypeLaterLottery {
		return nil, port.ErrInvalidState
	}
	if c.DrawnAt != nil {
		return nil, port.ErrInvalidState
	}

	var eligible []int
	for i := range c.Participants {
		if !c.Participants[i].Won {
			eligible = append(eligible, i)
		}
	}

	var results []port.DrawResult
	for pi := range c.Prizes {
		prize := &c.Prizes[pi]
		for prize.Remaining > 0 && len(eligible) > 0 {
			k := rand.Intn(len(eligible))
			winner := &c.Participants[eligible[k]]
			eligible = append(eligible[:k], eligible[k+1:]...)
			prize.Remaining--
			winner.Won = true
			winner.PrizeID = &prize.ID
			results = append(results, port.DrawResult{
				UserID:  winner.UserID,
				PrizeID: prize.ID,
			})
		}
	}

	drawnAt := u.clock.Now()
	if err = u.repo.RecordDrawResults(ctx, c.ID, drawnAt, results); err != nil {
		return nil, err
	}
	c.DrawnAt = &drawnAt
	u.logger.Info("lottery drawn",
		slog.String("campaign_id", c.ID),
		slog.Int("winners", len(results)))

	for _, r := range results {
		p := c.Participant(r.UserID)
		if p == nil {
			continue
		}
		u.notify(ctx, c, *p, u.prizeByID(c, r.PrizeID))
	}
	return results, nil
}

// Stats returns derived participation figures. Unknown ids return nil, nil.
func (u *CampaignUseCase) Stats(ctx context.Context, campaignID string) (*port.CampaignStats, error) {
	c, err := u.repo.GetCampaign(ctx, campaignID)
	if err != nil || c == nil {
		return nil, err
	}
	stats := &port.CampaignStats{
		CampaignID:   c.ID,
		Name:         c.Name,
		Status:       c.Status,
		Participants: len(c.Participants),
	}
	for i := range c.Participants {
		if c.Participants[i].Won {
			stats.Winners++
		}
	}
	if stats.Participants > 0 {
		stats.WinRate = float64(stats.Winners) / float64(stats.Participants)
	}
	for _, p := range c.Prizes {
		stats.Prizes = append(stats.Prizes, port.PrizeStats{
			PrizeID:   p.ID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Remaining: p.Remaining,
			Awarded:   p.Quantity - p.Remaining,
		})
	}
	return stats, nil
}

// notify hands the resolved outcome to the notification collaborator.
// Failures are logged and never propagated into campaign state.
func (u *CampaignUseCase) notify(ctx context.Context, c *domain.Campaign, p domain.Participant, prize *domain.Prize) {
	n := port.Notification{
		CampaignID:   c.ID,
		CampaignName: c.Name,
		CampaignType: c.Type,
		UserID:       p.UserID,
		Username:     p.Username,
		Won:          p.Won,
		Prize:        prize,
	}
	if err := u.notifier.NotifyResult(ctx, n); err != nil {
		u.logger.Error("result notification failed",
			slog.String("campaign_id", c.ID),
			slog.String("user_id", p.UserID),
			slog.Any("error", err))
	}
}

func (u *CampaignUseCase) winProbability(r domain.Rules) int {
	if r.WinProbability == nil {
		return u.defaultWinProb
	}
	return clampProbability(*r.WinProbability)
}

func (u *CampaignUseCase) prizeByID(c *domain.Campaign, id string) *domain.Prize {
	for i := range c.Prizes {
		if c.Prizes[i].ID == id {
			return &c.Prizes[i]
		}
	}
	return nil
}

func clampProbability(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
