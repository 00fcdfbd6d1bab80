package profiles

import "time"

// Profile is the per-user record keyed by the identity provider uid.
type Profile struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Age         int       `json:"age,omitempty"`
	Bio         string    `json:"bio"`
	PhotoURL    string    `json:"photoURL"`
	ResumeURL   string    `json:"resumeURL"`
	CurrentPlan string    `json:"currentPlan"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Patch is a merge-update: nil fields are left untouched.
type Patch struct {
	FullName *string `json:"fullName" validate:"omitempty,max=120"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Age      *int    `json:"age" validate:"omitempty,min=13,max=120"`
	Bio      *string `json:"bio" validate:"omitempty,max=2000"`
	PhotoURL *string `json:"photoURL" validate:"omitempty,url,max=2048"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.FullName == nil && p.Email == nil && p.Phone == nil &&
		p.Age == nil && p.Bio == nil && p.PhotoURL == nil
}

func (p Patch) apply(profile *Profile) {
	if p.FullName != nil {
		profile.FullName = *p.FullName
	}
	if p.Email != nil {
		profile.Email = *p.Email
	}
	if p.Phone != nil {
		profile.Phone = *p.Phone
	}
	if p.Age != nil {
		profile.Age = *p.Age
	}
	if p.Bio != nil {
		profile.Bio = *p.Bio
	}
	if p.PhotoURL != nil {
		profile.PhotoURL = *p.PhotoURL
	}
}
