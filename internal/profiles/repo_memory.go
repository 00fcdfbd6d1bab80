package profiles

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	now      func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		profiles: make(map[string]Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Create(ctx context.Context, profile Profile) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	existing, ok := r.profiles[profile.ID]
	if !ok {
		profile.CreatedAt = now
		profile.UpdatedAt = now
		r.profiles[profile.ID] = profile
		return profile, nil
	}
	if profile.Email != "" {
		existing.Email = profile.Email
	}
	if profile.FullName != "" {
		existing.FullName = profile.FullName
	}
	if profile.PhotoURL != "" {
		existing.PhotoURL = profile.PhotoURL
	}
	existing.UpdatedAt = now
	r.profiles[profile.ID] = existing
	return existing, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return profile, nil
}

func (r *MemoryRepo) Update(ctx context.Context, userID string, patch Patch) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return Profile{}, ErrNotFound
	}
	patch.apply(&profile)
	profile.UpdatedAt = r.now()
	r.profiles[userID] = profile
	return profile, nil
}

func (r *MemoryRepo) SetResumeReference(ctx context.Context, userID, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	profile, ok := r.profiles[userID]
	if !ok {
		profile = Profile{ID: userID, CreatedAt: now}
	}
	previous := profile.ResumeURL
	profile.ResumeURL = url
	profile.UpdatedAt = now
	r.profiles[userID] = profile
	return previous, nil
}

func (r *MemoryRepo) ClearResumeReference(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return "", nil
	}
	previous := profile.ResumeURL
	profile.ResumeURL = ""
	profile.UpdatedAt = r.now()
	r.profiles[userID] = profile
	return previous, nil
}

func (r *MemoryRepo) ClearResumeReferenceIf(ctx context.Context, userID, expected string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok || expected == "" || profile.ResumeURL != expected {
		return false, nil
	}
	profile.ResumeURL = ""
	profile.UpdatedAt = r.now()
	r.profiles[userID] = profile
	return true, nil
}

func (r *MemoryRepo) SetCurrentPlan(ctx context.Context, userID, plan string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	profile, ok := r.profiles[userID]
	if !ok {
		profile = Profile{ID: userID, CreatedAt: now}
	}
	profile.CurrentPlan = plan
	profile.UpdatedAt = now
	r.profiles[userID] = profile
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, userID)
	return nil
}
