package port

import (
	"context"
	"time"

	"promopilot/internal/core/domain"
)

// PostRepository defines the persistence layer for scheduled posts.
// Lookups for unknown ids return nil with a nil error. Implementations
// must be concurrency-safe: the scheduler mutates posts from timer
// callbacks and the sweep goroutine.
type PostRepository interface {
	CreatePost(ctx context.Context, p *domain.ScheduledPost) error
	GetPost(ctx context.Context, id string) (*domain.ScheduledPost, error)
	// ListPosts returns all posts ordered by scheduled time.
	ListPosts(ctx context.Context) ([]domain.ScheduledPost, error)
	// ListDuePosts returns pending posts whose scheduled time is at or
	// before now.
	ListDuePosts(ctx context.Context, now time.Time) ([]domain.ScheduledPost, error)
	UpdatePost(ctx context.Context, p *domain.ScheduledPost) error
	DeletePost(ctx context.Context, id string) error
}
