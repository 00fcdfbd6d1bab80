package profiles

type createProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL"`
}
