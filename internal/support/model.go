package support

const (
	CategoryGeneral   = "general"
	CategoryTechnical = "technical"
	CategoryBilling   = "billing"
	CategoryAccount   = "account"
)

// Request is a support message from a signed-in user.
type Request struct {
	Category string `json:"category" validate:"required,oneof=general technical billing account"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=5000"`
}

// Email is what a Sender delivers.
type Email struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Body    string
}
