package subscriptions

import "context"

// Repo persists subscription records. Activate and Cancel keep the profile's
// currentPlan consistent with the record in the same unit of work.
type Repo interface {
	Activate(ctx context.Context, sub Subscription) (Subscription, error)
	List(ctx context.Context, userID string) ([]Subscription, error)
	Get(ctx context.Context, userID, id string) (Subscription, error)
	Cancel(ctx context.Context, userID, id string) (Subscription, error)
	DeleteForUser(ctx context.Context, userID string) error
}

// PlanSetter points a profile at a plan name.
type PlanSetter interface {
	SetCurrentPlan(ctx context.Context, userID, plan string) error
}
