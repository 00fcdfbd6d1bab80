package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socioscan-backend/internal/profiles"
	"socioscan-backend/internal/shared/apperr"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *profiles.MemoryRepo, *testClock) {
	t.Helper()
	clk := &testClock{t: time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)}
	profileRepo := profiles.NewMemoryRepo()
	repo := NewMemoryRepo(profileRepo)
	repo.now = clk.Now
	svc := NewService(repo, profileRepo, DefaultCatalog())
	svc.Now = clk.Now
	return svc, profileRepo, clk
}

func currentPlan(t *testing.T, repo *profiles.MemoryRepo, userID string) string {
	t.Helper()
	p, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	return p.CurrentPlan
}

func TestSubscribeSetsTermAndCurrentPlan(t *testing.T) {
	svc, profileRepo, clk := newTestService(t)

	sub, err := svc.Subscribe(context.Background(), "u1", SubscribeInput{Plan: "pro", PaymentMethod: "Card", SubscriberName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Pro", sub.Plan)
	assert.Equal(t, "$29.99", sub.Price)
	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, "card", sub.PaymentMethod)
	assert.True(t, sub.AutoRenew)
	assert.Equal(t, clk.t, sub.StartDate)
	assert.Equal(t, clk.t.Add(30*24*time.Hour), sub.EndDate)
	assert.Len(t, sub.Features, 4)
	assert.Equal(t, "Pro", currentPlan(t, profileRepo, "u1"))
}

func TestSubscribeValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "platinum", PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrUnknownPlan)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "Enterprise", PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrContactSales)

	_, err = svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "basic", PaymentMethod: "cash"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Subscribe(ctx, "", SubscribeInput{Plan: "basic", PaymentMethod: "card"})
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
}

func TestActiveExcludesLapsedAndCancelled(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()

	old, err := svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "basic", PaymentMethod: "upi"})
	require.NoError(t, err)
	clk.t = clk.t.Add(31 * 24 * time.Hour)
	current, err := svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "pro", PaymentMethod: "card"})
	require.NoError(t, err)

	active, err := svc.Active(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, current.ID, active[0].ID)

	all, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, s := range all {
		if s.ID == old.ID {
			assert.Equal(t, StatusExpired, s.Status)
		}
	}
}

func TestSwitchPlanRequiresOwnedActive(t *testing.T) {
	svc, profileRepo, clk := newTestService(t)
	ctx := context.Background()

	basic, err := svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "basic", PaymentMethod: "card"})
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "pro", PaymentMethod: "card"})
	require.NoError(t, err)
	require.Equal(t, "Pro", currentPlan(t, profileRepo, "u1"))

	_, err = svc.SwitchPlan(ctx, "u1", basic.ID)
	require.NoError(t, err)
	assert.Equal(t, "Basic", currentPlan(t, profileRepo, "u1"))

	_, err = svc.SwitchPlan(ctx, "u2", basic.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	clk.t = clk.t.Add(Term + time.Minute)
	_, err = svc.SwitchPlan(ctx, "u1", basic.ID)
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCancelClearsCurrentPlan(t *testing.T) {
	svc, profileRepo, _ := newTestService(t)
	ctx := context.Background()

	basic, err := svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "basic", PaymentMethod: "card"})
	require.NoError(t, err)
	pro, err := svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "pro", PaymentMethod: "card"})
	require.NoError(t, err)

	// cancelling a plan that is not current leaves currentPlan alone
	cancelled, err := svc.Cancel(ctx, "u1", basic.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.False(t, cancelled.AutoRenew)
	assert.Equal(t, "Pro", currentPlan(t, profileRepo, "u1"))

	_, err = svc.Cancel(ctx, "u1", pro.ID)
	require.NoError(t, err)
	assert.Empty(t, currentPlan(t, profileRepo, "u1"))

	_, err = svc.Cancel(ctx, "u1", "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteForUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Subscribe(ctx, "u1", SubscribeInput{Plan: "basic", PaymentMethod: "card"})
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "u2", SubscribeInput{Plan: "basic", PaymentMethod: "card"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteForUser(ctx, "u1"))
	left, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, left)
	other, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
