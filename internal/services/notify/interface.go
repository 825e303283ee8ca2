package notify

// Notification is the push payload shape the storefront clients expect.
type Notification struct {
	Title              string            `json:"title"`
	Body               string            `json:"body"`
	Icon               string            `json:"icon,omitempty"`
	Badge              string            `json:"badge,omitempty"`
	Tag                string            `json:"tag,omitempty"`
	Data               map[string]string `json:"data,omitempty"`
	Actions            []Action          `json:"actions,omitempty"`
	RequireInteraction bool              `json:"requireInteraction,omitempty"`
}

// Action is a button rendered on the notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Result reports per-subscription delivery counts.
type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Sender delivers a push notification to every subscription of one
// recipient. Exactly one of userID or anonymousID is set. Delivery is
// best effort: callers log failures and never propagate them.
type Sender interface {
	SendToUser(userID, anonymousID *string, n Notification) (Result, error)
}
