package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func subscriptionRows(sub Subscription, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "plan", "price", "features", "start_date", "end_date", "status", "payment_method", "auto_renew", "subscriber_name", "created_at"}).
		AddRow(sub.ID, sub.UserID, sub.Plan, sub.Price, []byte(`["Basic scanning","Weekly reports"]`), sub.StartDate, sub.EndDate, status, sub.PaymentMethod, status == StatusActive, nil, sub.StartDate)
}

func sampleSubscription() Subscription {
	start := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	return Subscription{
		ID:            "s1",
		UserID:        "u1",
		Plan:          "Basic",
		Price:         "$9.99",
		Features:      []string{"Basic scanning", "Weekly reports"},
		StartDate:     start,
		EndDate:       start.Add(Term),
		Status:        StatusActive,
		PaymentMethod: "card",
		AutoRenew:     true,
	}
}

func TestPGActivateCommitsInsertAndPlan(t *testing.T) {
	repo, mock := newMock(t)
	sub := sampleSubscription()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscriptions").
		WithArgs(sub.ID, sub.UserID, sub.Plan, sub.Price, `["Basic scanning","Weekly reports"]`, sub.StartDate, sub.EndDate, sub.Status, sub.PaymentMethod, sub.AutoRenew, sub.SubscriberName).
		WillReturnRows(subscriptionRows(sub, StatusActive))
	mock.ExpectExec("INSERT INTO profiles").
		WithArgs("u1", "Basic").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Activate(context.Background(), sub)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if len(got.Features) != 2 || got.SubscriberName != "" {
		t.Fatalf("unexpected subscription: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGActivateRollsBackWhenPlanUpdateFails(t *testing.T) {
	repo, mock := newMock(t)
	sub := sampleSubscription()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscriptions").
		WillReturnRows(subscriptionRows(sub, StatusActive))
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if _, err := repo.Activate(context.Background(), sub); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGCancelMissingRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE subscriptions SET status = 'cancelled'").
		WithArgs("s9", "u1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if _, err := repo.Cancel(context.Background(), "u1", "s9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGCancelClearsPlanConditionally(t *testing.T) {
	repo, mock := newMock(t)
	sub := sampleSubscription()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE subscriptions SET status = 'cancelled'").
		WithArgs("s1", "u1").
		WillReturnRows(subscriptionRows(sub, StatusCancelled))
	mock.ExpectExec("UPDATE profiles SET current_plan = NULL").
		WithArgs("u1", "Basic").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Cancel(context.Background(), "u1", "s1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != StatusCancelled || got.AutoRenew {
		t.Fatalf("unexpected subscription: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGGetMapsNoRows(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT .* FROM subscriptions").
		WithArgs("s1", "u2").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.Get(context.Background(), "u2", "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
