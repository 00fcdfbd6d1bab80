package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// FieldError describes one rejected patch field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError carries per-field details and matches ErrInvalidInput.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field+":"+f.Rule)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func (s *Service) ready() error {
	if s == nil || s.Repo == nil {
		return errors.New("profiles service not configured")
	}
	return nil
}

// Create records the profile at signup; calling it again refreshes identity fields.
func (s *Service) Create(ctx context.Context, profile Profile) (Profile, error) {
	if err := s.ready(); err != nil {
		return Profile{}, err
	}
	profile.ID = strings.TrimSpace(profile.ID)
	if profile.ID == "" {
		return Profile{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	profile.Email = strings.TrimSpace(profile.Email)
	if err := validatePatch(Patch{Email: nonEmpty(profile.Email), FullName: nonEmpty(profile.FullName)}); err != nil {
		return Profile{}, err
	}
	return s.Repo.Create(ctx, profile)
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	if err := s.ready(); err != nil {
		return Profile{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return Profile{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.Get(ctx, userID)
}

// Update merges the supplied fields into the profile.
func (s *Service) Update(ctx context.Context, userID string, patch Patch) (Profile, error) {
	if err := s.ready(); err != nil {
		return Profile{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return Profile{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if patch.Email != nil {
		trimmed := strings.TrimSpace(*patch.Email)
		patch.Email = &trimmed
	}
	if err := validatePatch(patch); err != nil {
		return Profile{}, err
	}
	if patch.Empty() {
		return s.Repo.Get(ctx, userID)
	}
	return s.Repo.Update(ctx, userID, patch)
}

func (s *Service) SetResumeReference(ctx context.Context, userID, url string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("%w: user id and resume url are required", ErrInvalidInput)
	}
	return s.Repo.SetResumeReference(ctx, userID, url)
}

// ResumeReference returns the stored reference, or "" when there is no profile yet.
func (s *Service) ResumeReference(ctx context.Context, userID string) (string, error) {
	profile, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return profile.ResumeURL, nil
}

func (s *Service) ClearResumeReference(ctx context.Context, userID string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.Repo.ClearResumeReference(ctx, userID)
}

func (s *Service) ClearResumeReferenceIf(ctx context.Context, userID, expected string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.Repo.ClearResumeReferenceIf(ctx, userID, expected)
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, userID)
}

func validatePatch(patch Patch) error {
	err := validate.Struct(patch)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: jsonName(fe.StructField()), Rule: fe.Tag()})
	}
	return out
}

func jsonName(field string) string {
	switch field {
	case "PhotoURL":
		return "photoURL"
	case "":
		return field
	default:
		return strings.ToLower(field[:1]) + field[1:]
	}
}

func nonEmpty(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
