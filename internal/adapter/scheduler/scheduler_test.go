package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"promopilot/internal/adapter/memory"
	"promopilot/internal/core/domain"
	"promopilot/internal/core/port"
	"promopilot/internal/core/port/mocks"
)

// virtualClock drives the scheduler deterministically: AfterFunc records
// the deadline and Advance fires due callbacks synchronously.
type virtualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*virtualTimer
}

type virtualTimer struct {
	clock    *virtualClock
	deadline time.Time
	f        func()
	stopped  bool
	fired    bool
}

func newVirtualClock(now time.Time) *virtualClock {
	return &virtualClock{now: now}
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *virtualClock) AfterFunc(d time.Duration, f func()) port.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &virtualTimer{clock: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and fires every timer whose deadline
// has been reached, outside the clock lock so callbacks can read Now.
func (c *virtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*virtualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.deadline.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

var schedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, publisher port.Publisher) (*Scheduler, *memory.PostRepository, *virtualClock) {
	t.Helper()
	repo := memory.NewPostRepository()
	clock := newVirtualClock(schedNow)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(repo, publisher, clock, logger, "* * * * *"), repo, clock
}

func postStatus(t *testing.T, repo *memory.PostRepository, id string) domain.PostStatus {
	t.Helper()
	p, err := repo.GetPost(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPost error: %v", err)
	}
	if p == nil {
		t.Fatalf("post %s not found", id)
	}
	return p.Status
}

func TestSchedulePastTimeExecutesImmediately(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)

	s, repo, _ := newTestScheduler(t, publisher)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	p, err := s.Schedule(context.Background(), port.SchedulePostReq{
		Text:        "hello",
		ScheduledAt: schedNow.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if got := postStatus(t, repo, p.ID); got != domain.PostStatusPosted {
		t.Fatalf("past-time post must execute without a sweep, got %s", got)
	}
}

func TestScheduleFutureFiresOnTimer(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)

	s, repo, clock := newTestScheduler(t, publisher)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	p, err := s.Schedule(context.Background(), port.SchedulePostReq{
		Text:        "hello",
		ScheduledAt: schedNow.Add(5 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if got := postStatus(t, repo, p.ID); got != domain.PostStatusPending {
		t.Fatalf("future post must stay pending, got %s", got)
	}

	clock.Advance(5 * time.Minute)
	if got := postStatus(t, repo, p.ID); got != domain.PostStatusPosted {
		t.Fatalf("expected posted after trigger, got %s", got)
	}
}

func TestPublishFailureMarksFailedAndRetryRecovers(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("rate limited")).Once()
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

	s, repo, _ := newTestScheduler(t, publisher)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	p, err := s.Schedule(context.Background(), port.SchedulePostReq{
		Text:        "hello",
		ScheduledAt: schedNow.Add(-time.Second),
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	got, err := repo.GetPost(context.Background(), p.ID)
	if err != nil || got == nil {
		t.Fatalf("GetPost error: %v", err)
	}
	if got.Status != domain.PostStatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.Error != "rate limited" {
		t.Fatalf("expected publish error to be recorded, got %q", got.Error)
	}

	// Retry resets the post to now and executes immediately while running.
	retried, err := s.Retry(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Retry error: %v", err)
	}
	if retried.Status != domain.PostStatusPosted {
		t.Fatalf("expected posted after retry, got %s", retried.Status)
	}
	if retried.Error != "" {
		t.Fatalf("retry must clear the error, got %q", retried.Error)
	}
}

func TestNoAutomaticRetry(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(errors.New("down")).Once()

	s, repo, clock := newTestScheduler(t, publisher)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	p, err := s.Schedule(context.Background(), port.SchedulePostReq{
		Text:        "hello",
		ScheduledAt: schedNow.Add(-time.Second),
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}

	// A later sweep must not pick the failed post up again; the Once()
	// expectation on Publish fails the test if it does.
	s.sweep(context.Background())
	clock.Advance(time.Hour)
	if got := postStatus(t, repo, p.ID); got != domain.PostStatusFailed {
		t.Fatalf("expected failed to be terminal, got %s", got)
	}
}

func TestStartReconcilesPostsScheduledWhileStopped(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)

	s, repo, clock := newTestScheduler(t, publisher)

	// Two posts for the same future instant, queued while stopped.
	at := schedNow.Add(2 * time.Minute)
	p1, err := s.Schedule(context.Background(), port.SchedulePostReq{Text: "one", ScheduledAt: at})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	p2, err := s.Schedule(context.Background(), port.SchedulePostReq{Text: "two", ScheduledAt: at})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if postStatus(t, repo, p1.ID) != domain.PostStatusPending || postStatus(t, repo, p2.ID) != domain.PostStatusPending {
		t.Fatal("posts must stay pending while the scheduler is stopped")
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	clock.Advance(2 * time.Minute)
	if postStatus(t, repo, p1.ID) != domain.PostStatusPosted || postStatus(t, repo, p2.ID) != domain.PostStatusPosted {
		t.Fatal("both posts must leave pending after their trigger fires")
	}
}

func TestStartSweepsOverduePosts(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil)

	s, repo, clock := newTestScheduler(t, publisher)

	p, err := s.Schedule(context.Background(), port.SchedulePostReq{
		Text:        "overdue",
		ScheduledAt: schedNow.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}

	// Time passes while the scheduler is down; the immediate sweep on
	// Start must catch the overdue post.
	clock.Advance(10 * time.Minute)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	if got := postStatus(t, repo, p.ID); got != domain.PostStatusPosted {
		t.Fatalf("expected overdue post swept on start, got %s", got)
	}
}

func TestStopCancelsTimers(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)

	s, repo, clock := newTestScheduler(t, publisher)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	p, err := s.Schedule(context.Background(), port.SchedulePostReq{
		Text:        "later",
		ScheduledAt: schedNow.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}

	s.Stop()
	clock.Advance(time.Hour)
	if got := postStatus(t, repo, p.ID); got != domain.PostStatusPending {
		t.Fatalf("stop must leave pending posts untouched, got %s", got)
	}
	if s.Running() {
		t.Fatal("scheduler must report stopped")
	}
}

func TestUpdateRearmsTimer(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

	s, repo, clock := newTestScheduler(t, publisher)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	p, err := s.Schedule(context.Background(), port.SchedulePostReq{
		Text:        "draft",
		ScheduledAt: schedNow.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}

	// Push the post out; the original trigger time must not fire it.
	if _, err = s.Update(context.Background(), p.ID, port.SchedulePostReq{
		Text:        "final",
		ScheduledAt: schedNow.Add(10 * time.Minute),
	}); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	clock.Advance(time.Minute)
	if got := postStatus(t, repo, p.ID); got != domain.PostStatusPending {
		t.Fatalf("expected pending until the new time, got %s", got)
	}
	clock.Advance(9 * time.Minute)
	if got := postStatus(t, repo, p.ID); got != domain.PostStatusPosted {
		t.Fatalf("expected posted at the new time, got %s", got)
	}
}

func TestCancelOnlyPending(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)
	publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()

	s, repo, _ := newTestScheduler(t, publisher)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	posted, err := s.Schedule(context.Background(), port.SchedulePostReq{
		Text:        "gone",
		ScheduledAt: schedNow.Add(-time.Second),
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if err := s.Cancel(context.Background(), posted.ID); !errors.Is(err, port.ErrInvalidState) {
		t.Fatalf("cancelling a posted post must fail, got %v", err)
	}

	pending, err := s.Schedule(context.Background(), port.SchedulePostReq{
		Text:        "future",
		ScheduledAt: schedNow.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if err := s.Cancel(context.Background(), pending.ID); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	got, err := repo.GetPost(context.Background(), pending.ID)
	if err != nil {
		t.Fatalf("GetPost error: %v", err)
	}
	if got != nil {
		t.Fatal("cancelled post must be deleted")
	}

	if err := s.Cancel(context.Background(), "missing"); !errors.Is(err, port.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleRecurringSpacing(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)

	s, _, _ := newTestScheduler(t, publisher)
	start := schedNow.Add(24 * time.Hour)
	posts, err := s.ScheduleRecurring(context.Background(), port.RecurringPostReq{
		Text:        "weekly digest",
		ScheduledAt: start,
		Interval:    domain.RecurrenceWeekly,
		Count:       3,
	})
	if err != nil {
		t.Fatalf("ScheduleRecurring error: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	for i, p := range posts {
		want := start.AddDate(0, 0, 7*i)
		if !p.ScheduledAt.Equal(want) {
			t.Fatalf("post %d scheduled at %v, want %v", i, p.ScheduledAt, want)
		}
	}

	if _, err = s.ScheduleRecurring(context.Background(), port.RecurringPostReq{
		Text:        "bad",
		ScheduledAt: start,
		Interval:    "hourly",
		Count:       3,
	}); !errors.Is(err, port.ErrInvalidState) {
		t.Fatalf("unknown interval must be rejected, got %v", err)
	}
}

func TestDoubleStartRejected(t *testing.T) {
	publisher := mocks.NewMockPublisher(t)

	s, _, _ := newTestScheduler(t, publisher)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()
	if err := s.Start(context.Background()); !errors.Is(err, port.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double start, got %v", err)
	}
}
