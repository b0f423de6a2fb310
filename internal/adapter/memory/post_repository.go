package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"promopilot/internal/core/domain"
)

// PostRepository implements port.PostRepository on a mutex-guarded map.
// Posts are cloned on every read; the scheduler mutates its own copy and
// writes it back through UpdatePost.
type PostRepository struct {
	mu    sync.RWMutex
	posts map[string]*domain.ScheduledPost
}

// NewPostRepository returns an empty in-memory store.
func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[string]*domain.ScheduledPost)}
}

func (r *PostRepository) CreatePost(_ context.Context, p *domain.ScheduledPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[p.ID] = clonePost(p)
	return nil
}

func (r *PostRepository) GetPost(_ context.Context, id string) (*domain.ScheduledPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

// ListPosts returns copies of all posts ordered by scheduled time.
func (r *PostRepository) ListPosts(_ context.Context) ([]domain.ScheduledPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ScheduledPost, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, *clonePost(p))
	}
	sortPosts(out)
	return out, nil
}

// ListDuePosts returns pending posts scheduled at or before now.
func (r *PostRepository) ListDuePosts(_ context.Context, now time.Time) ([]domain.ScheduledPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ScheduledPost
	for _, p := range r.posts {
		if p.Status == domain.PostStatusPending && !p.ScheduledAt.After(now) {
			out = append(out, *clonePost(p))
		}
	}
	sortPosts(out)
	return out, nil
}

func (r *PostRepository) UpdatePost(_ context.Context, p *domain.ScheduledPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[p.ID]; !ok {
		return nil
	}
	r.posts[p.ID] = clonePost(p)
	return nil
}

func (r *PostRepository) DeletePost(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func sortPosts(posts []domain.ScheduledPost) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].ScheduledAt.Equal(posts[j].ScheduledAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].ScheduledAt.Before(posts[j].ScheduledAt)
	})
}

func clonePost(p *domain.ScheduledPost) *domain.ScheduledPost {
	out := *p
	out.MediaURLs = append([]string(nil), p.MediaURLs...)
	return &out
}
