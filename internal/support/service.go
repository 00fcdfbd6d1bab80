package support

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"socioscan-backend/internal/profiles"
	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/telemetry"
)

// ProfileReader resolves the reply-to address.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (profiles.Profile, error)
}

type Service struct {
	Sender   Sender
	Profiles ProfileReader
	From     string
	To       string
	validate *validator.Validate
}

func NewService(sender Sender, profileReader ProfileReader, from, to string) *Service {
	return &Service{
		Sender:   sender,
		Profiles: profileReader,
		From:     from,
		To:       to,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Submit sends req to the support inbox with the caller's profile email as
// reply-to, falling back to the token email when the profile has none.
func (s *Service) Submit(ctx context.Context, userID, tokenEmail string, req Request) error {
	const op = "support.submit"
	if strings.TrimSpace(userID) == "" {
		return apperr.New(apperr.KindAuth, op, "login required", nil)
	}
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.ValidationError(op, fmt.Sprintf("%s is invalid", strings.ToLower(verrs[0].Field())))
		}
		return apperr.ValidationError(op, "invalid support request")
	}

	replyTo := tokenEmail
	if s.Profiles != nil {
		p, err := s.Profiles.Get(ctx, userID)
		switch {
		case err == nil && p.Email != "":
			replyTo = p.Email
		case err != nil && !errors.Is(err, profiles.ErrNotFound):
			telemetry.Warn("support.profile_lookup_failed", map[string]any{"user_id": userID, "error": err.Error()})
		}
	}
	if replyTo == "" {
		return apperr.ValidationError(op, "an email address is required to reply")
	}

	email := Email{
		From:    s.From,
		To:      s.To,
		ReplyTo: replyTo,
		Subject: fmt.Sprintf("[%s] %s", req.Category, req.Subject),
		Body:    fmt.Sprintf("From: %s (%s)\nCategory: %s\n\n%s\n", replyTo, userID, req.Category, req.Message),
	}
	if err := s.Sender.Send(ctx, email); err != nil {
		return apperr.New(apperr.KindFetch, op, "failed to send support request", err)
	}
	telemetry.Info("support.submitted", map[string]any{"user_id": userID, "category": req.Category})
	return nil
}

func (s *Service) validator() *validator.Validate {
	if s.validate == nil {
		s.validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return s.validate
}
