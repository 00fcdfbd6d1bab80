package subscriptions

import "time"

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Term is the length of a subscription period.
const Term = 30 * 24 * time.Hour

// PaymentMethods are the tags accepted on subscribe. Payment itself happens elsewhere.
var PaymentMethods = []string{"card", "upi", "netbanking", "paypal", "googlepay", "applepay"}

type Subscription struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Plan           string    `json:"plan"`
	Price          string    `json:"price"`
	Features       []string  `json:"features"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	Status         string    `json:"status"`
	PaymentMethod  string    `json:"paymentMethod"`
	AutoRenew      bool      `json:"autoRenew"`
	SubscriberName string    `json:"subscriberName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// IsActive reports whether s is active and not past its end date.
func (s Subscription) IsActive(now time.Time) bool {
	return s.Status == StatusActive && s.EndDate.After(now)
}

// effective reports lapsed active records as expired.
func (s Subscription) effective(now time.Time) Subscription {
	if s.Status == StatusActive && !s.EndDate.After(now) {
		s.Status = StatusExpired
	}
	return s
}
