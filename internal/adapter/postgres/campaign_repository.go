package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"promopilot/internal/core/domain"
	"promopilot/internal/core/port"
)

// CampaignRepository implements port.CampaignRepository using pgxpool for
// PostgreSQL. Prize decrements run inside a serializable transaction with
// the prize row locked, so an award can never push remaining below zero.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a new repository instance.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// CreateCampaign stores the campaign row and its prize inventory.
func (r *CampaignRepository) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
        INSERT INTO campaigns
            (id, name, type, description, start_date, end_date, status,
             require_follow, require_retweet, require_like, hashtag,
             win_probability, drawn_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		c.ID, c.Name, c.Type, c.Description, c.StartDate, c.EndDate, c.Status,
		c.Rules.RequireFollow, c.Rules.RequireRetweet, c.Rules.RequireLike,
		c.Rules.Hashtag, c.Rules.WinProbability, c.DrawnAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	for _, p := range c.Prizes {
		_, err = tx.Exec(ctx, `
            INSERT INTO prizes (id, campaign_id, name, quantity, remaining)
            VALUES ($1,$2,$3,$4,$5)`,
			p.ID, c.ID, p.Name, p.Quantity, p.Remaining)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetCampaign returns the campaign with prizes and participants loaded,
// or nil when the id is unknown.
func (r *CampaignRepository) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, name, type, description, start_date, end_date, status,
               require_follow, require_retweet, require_like, hashtag,
               win_probability, drawn_at, created_at, updated_at
        FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if c.Prizes, err = r.loadPrizes(ctx, id); err != nil {
		return nil, err
	}
	if c.Participants, err = r.loadParticipants(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns returns all campaigns with their aggregates loaded.
func (r *CampaignRepository) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, type, description, start_date, end_date, status,
               require_follow, require_retweet, require_like, hashtag,
               win_probability, drawn_at, created_at, updated_at
        FROM campaigns ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	campaigns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Campaign, error) {
		c, err := scanCampaign(row)
		if err != nil {
			return domain.Campaign{}, err
		}
		return *c, nil
	})
	if err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].Prizes, err = r.loadPrizes(ctx, campaigns[i].ID); err != nil {
			return nil, err
		}
		if campaigns[i].Participants, err = r.loadParticipants(ctx, campaigns[i].ID); err != nil {
			return nil, err
		}
	}
	return campaigns, nil
}

// SetStatus transitions the campaign status. Unknown ids are a no-op.
func (r *CampaignRepository) SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	_, err := r.pool.Exec(ctx, `
        UPDATE campaigns SET status = $1, updated_at = now() WHERE id = $2`,
		status, id)
	return err
}

// AddParticipant inserts the entry and, when it carries an award, locks
// and decrements the prize row in the same transaction.
func (r *CampaignRepository) AddParticipant(ctx context.Context, campaignID string, p domain.Participant) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	if p.PrizeID != nil {
		var remaining int
		err = tx.QueryRow(ctx, `
            SELECT remaining FROM prizes WHERE id = $1 AND campaign_id = $2 FOR UPDATE`,
			*p.PrizeID, campaignID).Scan(&remaining)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				err = port.ErrNotFound
			}
			return err
		}
		if remaining <= 0 {
			err = port.ErrPrizeExhausted
			return err
		}
		_, err = tx.Exec(ctx, `
            UPDATE prizes SET remaining = remaining - 1 WHERE id = $1`, *p.PrizeID)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO participants (campaign_id, user_id, username, entered_at, won, prize_id)
        VALUES ($1,$2,$3,$4,$5,$6)`,
		campaignID, p.UserID, p.Username, p.EnteredAt, p.Won, p.PrizeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = port.ErrDuplicateEntry
		}
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE campaigns SET updated_at = now() WHERE id = $1`, campaignID)
	return err
}

// RecordDrawResults marks winners, decrements drawn prizes and stamps the
// campaign as drawn, all in one transaction. The drawn-at stamp is
// conditional on drawn_at still being null, so a concurrent second draw
// rolls back with ErrInvalidState instead of recording twice.
func (r *CampaignRepository) RecordDrawResults(ctx context.Context, campaignID string, drawnAt time.Time, results []port.DrawResult) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var tag pgconn.CommandTag
	tag, err = tx.Exec(ctx, `
        UPDATE campaigns SET drawn_at = $1, updated_at = now()
        WHERE id = $2 AND drawn_at IS NULL`,
		drawnAt, campaignID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = port.ErrInvalidState
		return err
	}

	for _, res := range results {
		tag, err = tx.Exec(ctx, `
            UPDATE prizes SET remaining = remaining - 1
            WHERE id = $1 AND campaign_id = $2 AND remaining > 0`,
			res.PrizeID, campaignID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			err = port.ErrPrizeExhausted
			return err
		}
		tag, err = tx.Exec(ctx, `
            UPDATE participants SET won = true, prize_id = $1
            WHERE campaign_id = $2 AND user_id = $3 AND won = false`,
			res.PrizeID, campaignID, res.UserID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			err = port.ErrNotFound
			return err
		}
	}
	return nil
}

func (r *CampaignRepository) loadPrizes(ctx context.Context, campaignID string) ([]domain.Prize, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, quantity, remaining
        FROM prizes WHERE campaign_id = $1 ORDER BY id`, campaignID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Prize, error) {
		var p domain.Prize
		err := row.Scan(&p.ID, &p.Name, &p.Quantity, &p.Remaining)
		return p, err
	})
}

func (r *CampaignRepository) loadParticipants(ctx context.Context, campaignID string) ([]domain.Participant, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT user_id, username, entered_at, won, prize_id
        FROM participants WHERE campaign_id = $1 ORDER BY entered_at, user_id`, campaignID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Participant, error) {
		var p domain.Participant
		err := row.Scan(&p.UserID, &p.Username, &p.EnteredAt, &p.Won, &p.PrizeID)
		return p, err
	})
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var c domain.Campaign
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Type,
		&c.Description,
		&c.StartDate,
		&c.EndDate,
		&c.Status,
		&c.Rules.RequireFollow,
		&c.Rules.RequireRetweet,
		&c.Rules.RequireLike,
		&c.Rules.Hashtag,
		&c.Rules.WinProbability,
		&c.DrawnAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
