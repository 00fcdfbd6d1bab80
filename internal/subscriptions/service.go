package subscriptions

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/telemetry"
)

type Service struct {
	Repo     Repo
	Profiles PlanSetter
	Catalog  Catalog
	Now      func() time.Time
}

func NewService(repo Repo, planSetter PlanSetter, catalog Catalog) *Service {
	return &Service{Repo: repo, Profiles: planSetter, Catalog: catalog, Now: time.Now}
}

// SubscribeInput carries the fields a client supplies on purchase.
type SubscribeInput struct {
	Plan           string
	PaymentMethod  string
	SubscriberName string
}

func (s *Service) Plans() []Plan {
	return s.Catalog.Plans
}

// Subscribe creates an active record for one term and makes it the current plan.
func (s *Service) Subscribe(ctx context.Context, userID string, in SubscribeInput) (Subscription, error) {
	const op = "subscriptions.subscribe"
	if strings.TrimSpace(userID) == "" {
		return Subscription{}, apperr.New(apperr.KindAuth, op, "login required", nil)
	}
	plan, ok := s.Catalog.Find(in.Plan)
	if !ok {
		return Subscription{}, apperr.New(apperr.KindValidation, op, "unknown plan", ErrUnknownPlan)
	}
	if plan.ContactSales {
		return Subscription{}, apperr.New(apperr.KindValidation, op, "the "+plan.Name+" plan is arranged through sales", ErrContactSales)
	}
	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if !slices.Contains(PaymentMethods, method) {
		return Subscription{}, apperr.ValidationError(op, "paymentMethod must be one of "+strings.Join(PaymentMethods, ", "))
	}

	start := s.now().UTC()
	sub := Subscription{
		ID:             uuid.NewString(),
		UserID:         userID,
		Plan:           plan.Name,
		Price:          plan.PriceLabel,
		Features:       plan.Features,
		StartDate:      start,
		EndDate:        start.Add(Term),
		Status:         StatusActive,
		PaymentMethod:  method,
		AutoRenew:      true,
		SubscriberName: strings.TrimSpace(in.SubscriberName),
	}
	created, err := s.Repo.Activate(ctx, sub)
	if err != nil {
		return Subscription{}, apperr.New(apperr.KindStorage, op, "failed to activate subscription", err)
	}
	telemetry.Info("subscription.activated", map[string]any{
		"user_id":         userID,
		"subscription_id": created.ID,
		"plan":            created.Plan,
	})
	return created, nil
}

// List returns every record for userID with lapsed ones reported as expired.
func (s *Service) List(ctx context.Context, userID string) ([]Subscription, error) {
	const op = "subscriptions.list"
	subs, err := s.Repo.List(ctx, userID)
	if err != nil {
		return nil, apperr.New(apperr.KindStorage, op, "failed to load subscriptions", err)
	}
	now := s.now()
	out := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub.effective(now))
	}
	return out, nil
}

// Active returns records that are active and not yet past their end date.
func (s *Service) Active(ctx context.Context, userID string) ([]Subscription, error) {
	subs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.IsActive(now) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// SwitchPlan makes an owned active subscription the current plan.
func (s *Service) SwitchPlan(ctx context.Context, userID, subscriptionID string) (Subscription, error) {
	const op = "subscriptions.switch"
	sub, err := s.get(ctx, op, userID, subscriptionID)
	if err != nil {
		return Subscription{}, err
	}
	if !sub.IsActive(s.now()) {
		return Subscription{}, apperr.New(apperr.KindConflict, op, ErrNotActive.Error(), ErrNotActive)
	}
	if err := s.Profiles.SetCurrentPlan(ctx, userID, sub.Plan); err != nil {
		return Subscription{}, apperr.New(apperr.KindStorage, op, "failed to switch plan", err)
	}
	telemetry.Info("subscription.switched", map[string]any{"user_id": userID, "plan": sub.Plan})
	return sub, nil
}

func (s *Service) Cancel(ctx context.Context, userID, subscriptionID string) (Subscription, error) {
	const op = "subscriptions.cancel"
	if _, err := s.get(ctx, op, userID, subscriptionID); err != nil {
		return Subscription{}, err
	}
	sub, err := s.Repo.Cancel(ctx, userID, subscriptionID)
	if errors.Is(err, ErrNotFound) {
		return Subscription{}, apperr.New(apperr.KindNotFound, op, ErrNotFound.Error(), err)
	}
	if err != nil {
		return Subscription{}, apperr.New(apperr.KindStorage, op, "failed to cancel subscription", err)
	}
	telemetry.Info("subscription.cancelled", map[string]any{"user_id": userID, "subscription_id": sub.ID})
	return sub, nil
}

// DeleteForUser removes every record owned by userID.
func (s *Service) DeleteForUser(ctx context.Context, userID string) error {
	return s.Repo.DeleteForUser(ctx, userID)
}

func (s *Service) get(ctx context.Context, op, userID, id string) (Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return Subscription{}, apperr.New(apperr.KindAuth, op, "login required", nil)
	}
	sub, err := s.Repo.Get(ctx, userID, id)
	if errors.Is(err, ErrNotFound) {
		return Subscription{}, apperr.New(apperr.KindNotFound, op, ErrNotFound.Error(), err)
	}
	if err != nil {
		return Subscription{}, apperr.New(apperr.KindStorage, op, "failed to load subscription", err)
	}
	return sub, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
