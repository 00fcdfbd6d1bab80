package profiles

import "context"

type Repo interface {
	// Create inserts the profile or refreshes its identity fields.
	Create(ctx context.Context, profile Profile) (Profile, error)
	Get(ctx context.Context, userID string) (Profile, error)
	Update(ctx context.Context, userID string, patch Patch) (Profile, error)
	// SetResumeReference stores url and returns the reference it replaced.
	SetResumeReference(ctx context.Context, userID, url string) (string, error)
	// ClearResumeReference empties the reference and returns the previous one.
	ClearResumeReference(ctx context.Context, userID string) (string, error)
	// ClearResumeReferenceIf clears the reference only while it still equals expected.
	ClearResumeReferenceIf(ctx context.Context, userID, expected string) (bool, error)
	SetCurrentPlan(ctx context.Context, userID, plan string) error
	Delete(ctx context.Context, userID string) error
}
