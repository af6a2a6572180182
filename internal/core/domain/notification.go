package domain

import "time"

// NotificationLevel selects how a transient notification is presented.
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
)

// Notification is a toast queued for a visitor and shown once.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
}

// Activity is an audit record of a user-initiated action.
type Activity struct {
	VisitorID string    `json:"visitor_id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

const (
	ActionLogin          = "login"
	ActionRegister       = "register"
	ActionLogout         = "logout"
	ActionUpdatePassword = "update_password"
	ActionUpload         = "upload"
	ActionDelete         = "delete"
	ActionRecover        = "recover"
	ActionPurge          = "purge"
	ActionResize         = "resize"
	ActionCheckout       = "checkout"
	ActionSecretKey      = "secret_key"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
