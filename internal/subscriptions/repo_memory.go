package subscriptions

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"socioscan-backend/internal/profiles"
)

// MemoryRepo keeps records in process and writes currentPlan through the
// profiles repo while holding its own lock.
type MemoryRepo struct {
	mu       sync.Mutex
	subs     map[string]Subscription
	profiles profiles.Repo
	now      func() time.Time
}

func NewMemoryRepo(profileRepo profiles.Repo) *MemoryRepo {
	return &MemoryRepo{subs: make(map[string]Subscription), profiles: profileRepo, now: time.Now}
}

func (r *MemoryRepo) Activate(ctx context.Context, sub Subscription) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.profiles.SetCurrentPlan(ctx, sub.UserID, sub.Plan); err != nil {
		return Subscription{}, err
	}
	sub.CreatedAt = r.now().UTC()
	sub.Features = append([]string(nil), sub.Features...)
	r.subs[sub.ID] = sub
	return sub, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string) ([]Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok || s.UserID != userID {
		return Subscription{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) Cancel(ctx context.Context, userID, id string) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok || s.UserID != userID {
		return Subscription{}, ErrNotFound
	}
	s.Status = StatusCancelled
	s.AutoRenew = false
	r.subs[id] = s

	now := r.now()
	for _, other := range r.subs {
		if other.UserID == userID && other.Plan == s.Plan && other.IsActive(now) {
			return s, nil
		}
	}
	profile, err := r.profiles.Get(ctx, userID)
	if errors.Is(err, profiles.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return Subscription{}, err
	}
	if profile.CurrentPlan == s.Plan {
		if err := r.profiles.SetCurrentPlan(ctx, userID, ""); err != nil {
			return Subscription{}, err
		}
	}
	return s, nil
}

func (r *MemoryRepo) DeleteForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.subs {
		if s.UserID == userID {
			delete(r.subs, id)
		}
	}
	return nil
}
