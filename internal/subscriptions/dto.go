package subscriptions

type subscribeRequest struct {
	Plan           string `json:"plan" binding:"required"`
	PaymentMethod  string `json:"paymentMethod" binding:"required"`
	SubscriberName string `json:"subscriberName"`
}

type plansResponse struct {
	Plans []Plan `json:"plans"`
}

type listResponse struct {
	Subscriptions []Subscription `json:"subscriptions"`
	CurrentPlan   string         `json:"currentPlan,omitempty"`
}
