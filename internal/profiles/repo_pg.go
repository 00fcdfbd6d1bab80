package profiles

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

const profileColumns = `id, full_name, email, phone, age, bio, photo_url, resume_url, current_plan, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) Create(ctx context.Context, profile Profile) (Profile, error) {
	const query = `
INSERT INTO profiles (id, full_name, email, photo_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO UPDATE SET
  full_name = COALESCE(EXCLUDED.full_name, profiles.full_name),
  email = COALESCE(EXCLUDED.email, profiles.email),
  photo_url = COALESCE(EXCLUDED.photo_url, profiles.photo_url),
  updated_at = now()
RETURNING ` + profileColumns
	row := r.DB.QueryRowContext(ctx, query,
		profile.ID,
		nullableString(profile.FullName),
		nullableString(profile.Email),
		nullableString(profile.PhotoURL),
	)
	return scanProfile(row)
}

func (r *PGRepo) Get(ctx context.Context, userID string) (Profile, error) {
	const query = `
SELECT ` + profileColumns + `
FROM profiles
WHERE id = $1
LIMIT 1`
	profile, err := scanProfile(r.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return profile, err
}

func (r *PGRepo) Update(ctx context.Context, userID string, patch Patch) (Profile, error) {
	const query = `
UPDATE profiles SET
  full_name = COALESCE($2, full_name),
  email = COALESCE($3, email),
  phone = COALESCE($4, phone),
  age = COALESCE($5, age),
  bio = COALESCE($6, bio),
  photo_url = COALESCE($7, photo_url),
  updated_at = now()
WHERE id = $1
RETURNING ` + profileColumns
	row := r.DB.QueryRowContext(ctx, query,
		userID,
		nullableStringPtr(patch.FullName),
		nullableStringPtr(patch.Email),
		nullableStringPtr(patch.Phone),
		nullableIntPtr(patch.Age),
		nullableStringPtr(patch.Bio),
		nullableStringPtr(patch.PhotoURL),
	)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return profile, err
}

func (r *PGRepo) SetResumeReference(ctx context.Context, userID, url string) (string, error) {
	const query = `
WITH old AS (
  SELECT resume_url FROM profiles WHERE id = $1 FOR UPDATE
)
INSERT INTO profiles (id, resume_url, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (id) DO UPDATE SET
  resume_url = EXCLUDED.resume_url,
  updated_at = now()
RETURNING (SELECT resume_url FROM old)`
	var previous sql.NullString
	if err := r.DB.QueryRowContext(ctx, query, userID, url).Scan(&previous); err != nil {
		return "", err
	}
	return previous.String, nil
}

func (r *PGRepo) ClearResumeReference(ctx context.Context, userID string) (string, error) {
	const query = `
WITH old AS (
  SELECT id, resume_url FROM profiles WHERE id = $1 FOR UPDATE
)
UPDATE profiles p SET resume_url = NULL, updated_at = now()
FROM old
WHERE p.id = old.id
RETURNING old.resume_url`
	var previous sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return previous.String, nil
}

func (r *PGRepo) ClearResumeReferenceIf(ctx context.Context, userID, expected string) (bool, error) {
	if expected == "" {
		return false, nil
	}
	const query = `
UPDATE profiles SET resume_url = NULL, updated_at = now()
WHERE id = $1 AND resume_url = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepo) SetCurrentPlan(ctx context.Context, userID, plan string) error {
	return setCurrentPlan(ctx, r.DB, userID, plan)
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SetCurrentPlanTx updates the plan inside a caller-owned transaction.
func SetCurrentPlanTx(ctx context.Context, tx Execer, userID, plan string) error {
	return setCurrentPlan(ctx, tx, userID, plan)
}

func setCurrentPlan(ctx context.Context, db Execer, userID, plan string) error {
	const query = `
INSERT INTO profiles (id, current_plan, created_at, updated_at)
VALUES ($1, $2, now(), now())
ON CONFLICT (id) DO UPDATE SET
  current_plan = EXCLUDED.current_plan,
  updated_at = now()`
	_, err := db.ExecContext(ctx, query, userID, nullableString(plan))
	return err
}

func (r *PGRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, userID)
	return err
}

func scanProfile(row rowScanner) (Profile, error) {
	var profile Profile
	var fullName, email, phone, bio, photoURL, resumeURL, currentPlan sql.NullString
	var age sql.NullInt64
	err := row.Scan(
		&profile.ID,
		&fullName,
		&email,
		&phone,
		&age,
		&bio,
		&photoURL,
		&resumeURL,
		&currentPlan,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return Profile{}, err
	}
	profile.FullName = fullName.String
	profile.Email = email.String
	profile.Phone = phone.String
	profile.Age = int(age.Int64)
	profile.Bio = bio.String
	profile.PhotoURL = photoURL.String
	profile.ResumeURL = resumeURL.String
	profile.CurrentPlan = currentPlan.String
	return profile, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableStringPtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableIntPtr(value *int) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}
