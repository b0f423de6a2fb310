package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"promopilot/internal/core/domain"
	"promopilot/internal/core/port"
)

// Scheduler implements port.PostScheduler. Each pending post holds at
// most one armed timer, tracked by an explicit handle so arming always
// cancels the previous one. A cron-driven reconciliation sweep catches
// posts whose target time passed while no timer was active, for example
// posts scheduled while the scheduler was stopped.
type Scheduler struct {
	repo      port.PostRepository
	publisher port.Publisher
	clock     port.Clock
	logger    *slog.Logger

	// sweepSpec is a cron expression for the reconciliation sweep.
	sweepSpec string

	mu       sync.Mutex
	running  bool
	timers   map[string]port.Timer
	inflight map[string]bool
	cron     *cron.Cron
}

// New creates a stopped scheduler. sweepSpec is a standard five-field
// cron expression; once per minute is a sensible default.
func New(repo port.PostRepository, publisher port.Publisher, clock port.Clock, logger *slog.Logger, sweepSpec string) *Scheduler {
	return &Scheduler{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		sweepSpec: sweepSpec,
		timers:    make(map[string]port.Timer),
		inflight:  make(map[string]bool),
	}
}

// Schedule queues a post as pending. While running, a future target time
// arms a timer for exactly that delay and a past target time executes
// immediately without waiting for a sweep.
func (s *Scheduler) Schedule(ctx context.Context, req port.SchedulePostReq) (*domain.ScheduledPost, error) {
	now := s.clock.Now()
	p := &domain.ScheduledPost{
		ID:          uuid.NewString(),
		Text:        req.Text,
		MediaURLs:   req.MediaURLs,
		ScheduledAt: req.ScheduledAt,
		Status:      domain.PostStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("post scheduled",
		slog.String("post_id", p.ID),
		slog.Time("scheduled_at", p.ScheduledAt))
	s.arm(ctx, p.ID, p.ScheduledAt)
	return p, nil
}

// ScheduleRecurring queues req.Count posts spaced one interval apart.
// Each post goes through the same path as Schedule; there is no rollback
// across the batch.
func (s *Scheduler) ScheduleRecurring(ctx context.Context, req port.RecurringPostReq) ([]domain.ScheduledPost, error) {
	if !req.Interval.Valid() {
		return nil, port.ErrInvalidState
	}
	if req.Count < 1 {
		return nil, port.ErrInvalidState
	}
	var posts []domain.ScheduledPost
	at := req.ScheduledAt
	for i := 0; i < req.Count; i++ {
		p, err := s.Schedule(ctx, port.SchedulePostReq{
			Text:        req.Text,
			ScheduledAt: at,
			MediaURLs:   req.MediaURLs,
		})
		if err != nil {
			return posts, err
		}
		posts = append(posts, *p)
		at = req.Interval.Next(at)
	}
	return posts, nil
}

// Update replaces a pending post's content and target time. The armed
// timer is cancelled first and re-armed against the new time. Unknown ids
// return nil, nil; non-pending posts return ErrInvalidState.
func (s *Scheduler) Update(ctx context.Context, id string, req port.SchedulePostReq) (*domain.ScheduledPost, error) {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if p.Status != domain.PostStatusPending {
		return nil, port.ErrInvalidState
	}
	s.disarm(id)
	p.Text = req.Text
	p.MediaURLs = req.MediaURLs
	p.ScheduledAt = req.ScheduledAt
	p.UpdatedAt = s.clock.Now()
	if err = s.repo.UpdatePost(ctx, p); err != nil {
		return nil, err
	}
	s.arm(ctx, p.ID, p.ScheduledAt)
	return p, nil
}

// Cancel deletes a pending post after cancelling its timer. Unknown ids
// return ErrNotFound; non-pending posts return ErrInvalidState.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return port.ErrNotFound
	}
	if p.Status != domain.PostStatusPending {
		return port.ErrInvalidState
	}
	s.disarm(id)
	return s.repo.DeletePost(ctx, id)
}

// Retry resets a failed post to pending with its target time set to now.
// While running, it executes immediately. Unknown ids return nil, nil;
// non-failed posts return ErrInvalidState.
func (s *Scheduler) Retry(ctx context.Context, id string) (*domain.ScheduledPost, error) {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	if p.Status != domain.PostStatusFailed {
		return nil, port.ErrInvalidState
	}
	now := s.clock.Now()
	p.Status = domain.PostStatusPending
	p.Error = ""
	p.ScheduledAt = now
	p.UpdatedAt = now
	if err = s.repo.UpdatePost(ctx, p); err != nil {
		return nil, err
	}
	s.arm(ctx, p.ID, p.ScheduledAt)
	return s.repo.GetPost(ctx, id)
}

// ListPosts returns every scheduled post.
func (s *Scheduler) ListPosts(ctx context.Context) ([]domain.ScheduledPost, error) {
	return s.repo.ListPosts(ctx)
}

// Start runs an immediate reconciliation sweep, arms timers for pending
// future posts and starts the periodic sweep. Starting a running
// scheduler returns ErrInvalidState.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return port.ErrInvalidState
	}
	s.running = true
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.sweepSpec, func() {
		s.sweep(context.Background())
	}); err != nil {
		s.running = false
		s.cron = nil
		s.mu.Unlock()
		return err
	}
	s.cron.Start()
	s.mu.Unlock()

	s.logger.Info("scheduler started", slog.String("sweep", s.sweepSpec))
	s.sweep(ctx)

	// Arm timers for posts still in the future; the sweep only catches
	// posts already due.
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	for i := range posts {
		if posts[i].Status == domain.PostStatusPending && posts[i].ScheduledAt.After(now) {
			s.arm(ctx, posts[i].ID, posts[i].ScheduledAt)
		}
	}
	return nil
}

// Stop cancels the periodic sweep and every armed timer. Pending posts
// are untouched and will be reconciled on the next Start. Executions
// already past the publish point run to completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.cron.Stop()
	s.cron = nil
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.logger.Info("scheduler stopped")
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// arm schedules execution of a post. A timer already armed for the post
// is cancelled first so a post never holds two timers. Past target times
// execute synchronously. Arming is a no-op while stopped.
func (s *Scheduler) arm(ctx context.Context, id string, at time.Time) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	d := at.Sub(s.clock.Now())
	if d <= 0 {
		s.mu.Unlock()
		s.execute(ctx, id)
		return
	}
	s.timers[id] = s.clock.AfterFunc(d, func() {
		s.execute(context.Background(), id)
	})
	s.mu.Unlock()
}

// disarm cancels and releases the post's timer if one is armed.
func (s *Scheduler) disarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// sweep executes every pending post whose target time has arrived.
func (s *Scheduler) sweep(ctx context.Context) {
	due, err := s.repo.ListDuePosts(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("sweep failed", slog.Any("error", err))
		return
	}
	for i := range due {
		s.execute(ctx, due[i].ID)
	}
}

// execute publishes one post and transitions it to posted or failed. The
// inflight set keeps a timer firing and a concurrent sweep from
// publishing the same post twice.
func (s *Scheduler) execute(ctx context.Context, id string) {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	if s.inflight[id] {
		s.mu.Unlock()
		return
	}
	s.inflight[id] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, id)
		s.mu.Unlock()
	}()

	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		s.logger.Error("execute lookup failed", slog.String("post_id", id), slog.Any("error", err))
		return
	}
	if p == nil || p.Status != domain.PostStatusPending {
		return
	}

	if err = s.publisher.Publish(ctx, *p); err != nil {
		p.Status = domain.PostStatusFailed
		p.Error = err.Error()
		s.logger.Error("post publish failed",
			slog.String("post_id", id),
			slog.Any("error", err))
	} else {
		p.Status = domain.PostStatusPosted
		p.Error = ""
		s.logger.Info("post published", slog.String("post_id", id))
	}
	p.UpdatedAt = s.clock.Now()
	if err = s.repo.UpdatePost(ctx, p); err != nil {
		s.logger.Error("post status update failed",
			slog.String("post_id", id),
			slog.Any("error", err))
	}
}
