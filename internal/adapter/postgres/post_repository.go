package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"promopilot/internal/core/domain"
)

// PostRepository implements port.PostRepository using pgxpool for
// PostgreSQL.
type PostRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository returns a new repository instance.
func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) CreatePost(ctx context.Context, p *domain.ScheduledPost) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO scheduled_posts
            (id, body, media_urls, scheduled_at, status, error, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Text, p.MediaURLs, p.ScheduledAt, p.Status, p.Error, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostRepository) GetPost(ctx context.Context, id string) (*domain.ScheduledPost, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT id, body, media_urls, scheduled_at, status, error, created_at, updated_at
        FROM scheduled_posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) ListPosts(ctx context.Context) ([]domain.ScheduledPost, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, body, media_urls, scheduled_at, status, error, created_at, updated_at
        FROM scheduled_posts ORDER BY scheduled_at, id`)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepository) ListDuePosts(ctx context.Context, now time.Time) ([]domain.ScheduledPost, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, body, media_urls, scheduled_at, status, error, created_at, updated_at
        FROM scheduled_posts
        WHERE status = 'pending' AND scheduled_at <= $1
        ORDER BY scheduled_at, id`, now)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PostRepository) UpdatePost(ctx context.Context, p *domain.ScheduledPost) error {
	_, err := r.pool.Exec(ctx, `
        UPDATE scheduled_posts
        SET body = $1, media_urls = $2, scheduled_at = $3, status = $4,
            error = $5, updated_at = $6
        WHERE id = $7`,
		p.Text, p.MediaURLs, p.ScheduledAt, p.Status, p.Error, p.UpdatedAt, p.ID)
	return err
}

func (r *PostRepository) DeletePost(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM scheduled_posts WHERE id = $1`, id)
	return err
}

func collectPosts(rows pgx.Rows) ([]domain.ScheduledPost, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ScheduledPost, error) {
		p, err := scanPost(row)
		if err != nil {
			return domain.ScheduledPost{}, err
		}
		return *p, nil
	})
}

func scanPost(row pgx.Row) (*domain.ScheduledPost, error) {
	var p domain.ScheduledPost
	err := row.Scan(
		&p.ID,
		&p.Text,
		&p.MediaURLs,
		&p.ScheduledAt,
		&p.Status,
		&p.Error,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
