package account

import (
	"context"
	"database/sql"
	"strings"

	"socioscan-backend/internal/profiles"
	"socioscan-backend/internal/resumes"
	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/telemetry"
	"socioscan-backend/internal/subscriptions"
)

// ProfileStore is the slice of the profiles service account deletion needs.
type ProfileStore interface {
	ClearResumeReference(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// SubscriptionStore removes a user's subscription records.
type SubscriptionStore interface {
	DeleteForUser(ctx context.Context, userID string) error
}

type Service struct {
	Profiles      ProfileStore
	Subscriptions SubscriptionStore
	Reaper        resumes.Reaper
	Identity      IdentityDeleter
	// DB, when set, deletes profile and subscription rows in one transaction.
	DB *sql.DB
}

type DeleteResult struct {
	ResumeReaped    bool `json:"resumeReaped"`
	IdentityDeleted bool `json:"identityDeleted"`
}

func NewService(profileStore ProfileStore, subs SubscriptionStore, reaper resumes.Reaper, identity IdentityDeleter) *Service {
	return &Service{Profiles: profileStore, Subscriptions: subs, Reaper: reaper, Identity: identity}
}

// Delete removes everything held for userID: the resume object, subscription
// records, the profile and finally the sign-in identity. Each step is
// idempotent so a failed call can be retried.
func (s *Service) Delete(ctx context.Context, userID, requestID string) (DeleteResult, error) {
	const op = "account.delete"
	if strings.TrimSpace(userID) == "" {
		return DeleteResult{}, apperr.New(apperr.KindAuth, op, "login required", nil)
	}
	var result DeleteResult

	previous, err := s.Profiles.ClearResumeReference(ctx, userID)
	if err != nil {
		return DeleteResult{}, apperr.New(apperr.KindStorage, op, "failed to clear resume reference", err)
	}
	if previous != "" && s.Reaper != nil {
		s.Reaper.Reap(ctx, resumes.ReapRequest{
			UserID:    userID,
			Reference: previous,
			Reason:    resumes.ReasonAccount,
			RequestID: requestID,
		})
		result.ResumeReaped = true
	}

	if s.DB != nil {
		err = deleteWithTx(ctx, s.DB, userID)
	} else {
		err = s.deleteRecords(ctx, userID)
	}
	if err != nil {
		return DeleteResult{}, apperr.New(apperr.KindStorage, op, "failed to delete account data", err)
	}

	if s.Identity != nil {
		if err := s.Identity.DeleteUser(ctx, userID); err != nil {
			telemetry.Error("account.identity_delete_failed", map[string]any{"user_id": userID, "error": err.Error()})
			return result, apperr.New(apperr.KindFetch, op, "account data deleted but sign-in removal failed", err)
		}
		result.IdentityDeleted = true
	}

	telemetry.Info("account.deleted", map[string]any{
		"user_id":          userID,
		"request_id":       requestID,
		"resume_reaped":    result.ResumeReaped,
		"identity_deleted": result.IdentityDeleted,
	})
	return result, nil
}

func (s *Service) deleteRecords(ctx context.Context, userID string) error {
	if s.Subscriptions != nil {
		if err := s.Subscriptions.DeleteForUser(ctx, userID); err != nil {
			return err
		}
	}
	return s.Profiles.Delete(ctx, userID)
}

func deleteWithTx(ctx context.Context, db *sql.DB, userID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

var (
	_ ProfileStore      = (*profiles.Service)(nil)
	_ SubscriptionStore = (*subscriptions.Service)(nil)
)
