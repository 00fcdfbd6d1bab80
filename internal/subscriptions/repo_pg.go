package subscriptions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"socioscan-backend/internal/profiles"
)

type PGRepo struct {
	DB *sql.DB
}

const subscriptionColumns = `id, user_id, plan, price, features, start_date, end_date, status, payment_method, auto_renew, subscriber_name, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Activate inserts the record and sets currentPlan in one transaction.
func (r *PGRepo) Activate(ctx context.Context, sub Subscription) (Subscription, error) {
	features, err := json.Marshal(sub.Features)
	if err != nil {
		return Subscription{}, fmt.Errorf("encode features: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Subscription{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `
INSERT INTO subscriptions (id, user_id, plan, price, features, start_date, end_date, status, payment_method, auto_renew, subscriber_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
RETURNING `+subscriptionColumns,
		sub.ID, sub.UserID, sub.Plan, sub.Price, string(features),
		sub.StartDate, sub.EndDate, sub.Status, sub.PaymentMethod, sub.AutoRenew, sub.SubscriberName,
	)
	created, err := scanSubscription(row)
	if err != nil {
		return Subscription{}, err
	}
	if err = profiles.SetCurrentPlanTx(ctx, tx, sub.UserID, sub.Plan); err != nil {
		return Subscription{}, err
	}
	if err = tx.Commit(); err != nil {
		return Subscription{}, err
	}
	return created, nil
}

func (r *PGRepo) List(ctx context.Context, userID string) ([]Subscription, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE user_id = $1
ORDER BY start_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (Subscription, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE id = $1 AND user_id = $2`, id, userID)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	return sub, err
}

// Cancel marks the record cancelled and drops currentPlan when no other
// active record of the same plan remains.
func (r *PGRepo) Cancel(ctx context.Context, userID, id string) (Subscription, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Subscription{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `
UPDATE subscriptions SET status = 'cancelled', auto_renew = false
WHERE id = $1 AND user_id = $2
RETURNING `+subscriptionColumns, id, userID)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return Subscription{}, err
	}
	if err != nil {
		return Subscription{}, err
	}
	if _, err = tx.ExecContext(ctx, `
UPDATE profiles SET current_plan = NULL, updated_at = now()
WHERE id = $1 AND current_plan = $2
  AND NOT EXISTS (
    SELECT 1 FROM subscriptions
    WHERE user_id = $1 AND plan = $2 AND status = 'active' AND end_date > now()
  )`, userID, sub.Plan); err != nil {
		return Subscription{}, err
	}
	if err = tx.Commit(); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func (r *PGRepo) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE user_id = $1`, userID)
	return err
}

func scanSubscription(row rowScanner) (Subscription, error) {
	var (
		sub            Subscription
		features       []byte
		paymentMethod  sql.NullString
		subscriberName sql.NullString
	)
	if err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Plan,
		&sub.Price,
		&features,
		&sub.StartDate,
		&sub.EndDate,
		&sub.Status,
		&paymentMethod,
		&sub.AutoRenew,
		&subscriberName,
		&sub.CreatedAt,
	); err != nil {
		return Subscription{}, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &sub.Features); err != nil {
			return Subscription{}, fmt.Errorf("decode features: %w", err)
		}
	}
	sub.PaymentMethod = paymentMethod.String
	sub.SubscriberName = subscriberName.String
	return sub, nil
}
