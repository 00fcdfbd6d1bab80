package subscriptions

import "errors"

var (
	ErrNotFound     = errors.New("subscription not found")
	ErrNotActive    = errors.New("subscription is not active")
	ErrUnknownPlan  = errors.New("unknown plan")
	ErrContactSales = errors.New("plan is sold through sales")
)
