package domain

import "time"

// AccountType is the subscription tier reported by the backend.
type AccountType string

const (
	AccountFree       AccountType = "free"
	AccountStandard   AccountType = "standard"
	AccountPremium    AccountType = "premium"
	AccountEnterprise AccountType = "enterprise"
)

// UserRecord models the account returned by GET /api/users/get-user.
// The portal never mutates it locally; changes go through the backend.
type UserRecord struct {
	ID          string      `json:"uuid"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	PublicKey   string      `json:"public_key"`
	AccountType AccountType `json:"account_type"`
	APICalls
	CreatedAt time.Time `json:"created_at"`
}

// APICalls holds the per-verb request counters the backend keeps for a user.
type APICalls struct {
	Get  int64 `json:"get_api_calls"`
	Post int64 `json:"post_api_calls"`
	Edit int64 `json:"edit_api_calls"`
}

// Paid reports whether the account is on any tier above free.
func (u *UserRecord) Paid() bool {
	return u != nil && u.AccountType != "" && u.AccountType != AccountFree
}
