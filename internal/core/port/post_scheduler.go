package port

import (
	"context"
	"time"

	"promopilot/internal/core/domain"
)

// PostScheduler owns the scheduled-post queue: it arms one timer per
// pending post and runs a periodic reconciliation sweep for posts whose
// time arrived while no timer was active. Operations on unknown post ids
// return nil results with a nil error.
type PostScheduler interface {
	// Schedule queues a post. While the scheduler is running, a future
	// target time arms a timer for exactly that delay and a past target
	// time executes immediately.
	Schedule(ctx context.Context, req SchedulePostReq) (*domain.ScheduledPost, error)

	// ScheduleRecurring queues count posts, each one interval apart
	// starting at the request's target time. Every post goes through the
	// same path as Schedule and failures are independent.
	ScheduleRecurring(ctx context.Context, req RecurringPostReq) ([]domain.ScheduledPost, error)

	// Update replaces a pending post's text, media and target time,
	// cancelling and re-arming its timer. Non-pending posts return
	// ErrInvalidState.
	Update(ctx context.Context, id string, req SchedulePostReq) (*domain.ScheduledPost, error)

	// Cancel deletes a pending post and its timer. Non-pending posts
	// return ErrInvalidState.
	Cancel(ctx context.Context, id string) error

	// Retry resets a failed post to pending with its target time set to
	// now; while running it executes immediately. Non-failed posts
	// return ErrInvalidState.
	Retry(ctx context.Context, id string) (*domain.ScheduledPost, error)

	// ListPosts returns every scheduled post.
	ListPosts(ctx context.Context) ([]domain.ScheduledPost, error)

	// Start runs an immediate reconciliation sweep, then arms the
	// periodic sweep. Starting a running scheduler returns
	// ErrInvalidState.
	Start(ctx context.Context) error

	// Stop cancels the sweep and every per-post timer. Pending posts are
	// left untouched for the next Start. Executions already publishing
	// run to completion.
	Stop()

	// Running reports whether the scheduler is started.
	Running() bool
}

// SchedulePostReq describes one post to queue.
type SchedulePostReq struct {
	Text        string    `json:"text"`
	ScheduledAt time.Time `json:"scheduled_at"`
	MediaURLs   []string  `json:"media_urls,omitempty"`
}

// RecurringPostReq expands into Count posts spaced one Interval apart.
type RecurringPostReq struct {
	Text        string                    `json:"text"`
	ScheduledAt time.Time                 `json:"scheduled_at"`
	MediaURLs   []string                  `json:"media_urls,omitempty"`
	Interval    domain.RecurrenceInterval `json:"interval"`
	Count       int                       `json:"count"`
}
