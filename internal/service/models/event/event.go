package event

import "time"

type Type string

const (
	TypeStatusChanged  Type = "status_changed"
	TypeReauthRequired Type = "reauth_required"
	TypeLoggedIn       Type = "logged_in"
	TypeOrderPrinted   Type = "order_printed"
	TypeOrderFailed    Type = "order_failed"
)

// Event is a notification for the operator channel.
type Event struct {
	Type    Type      `json:"type"`
	Message string    `json:"message"`
	State   string    `json:"state,omitempty"`
	OrderID string    `json:"order_id,omitempty"`
	At      time.Time `json:"at"`
}
