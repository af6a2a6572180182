package domain

import "time"

// Credentials carries the cookies the backend uses for authentication
// (access token, refresh token). The portal treats the values as opaque and
// threads them through every backend call explicitly.
type Credentials map[string]string

// CookieUpdate is a single Set-Cookie instruction from the backend.
type CookieUpdate struct {
	Name    string
	Value   string
	MaxAge  int
	Expires time.Time
}

// Merge applies backend cookie updates. A cookie with an empty value, a
// negative MaxAge or an expiry in the past removes the entry.
func (c Credentials) Merge(now time.Time, updates ...CookieUpdate) {
	for _, u := range updates {
		if u.Name == "" {
			continue
		}
		if u.Value == "" || u.MaxAge < 0 || (!u.Expires.IsZero() && !u.Expires.After(now)) {
			delete(c, u.Name)
			continue
		}
		c[u.Name] = u.Value
	}
}

// Clear drops every credential.
func (c Credentials) Clear() {
	for k := range c {
		delete(c, k)
	}
}

// Empty reports whether no credential is held.
func (c Credentials) Empty() bool {
	return len(c) == 0
}

// Clone returns an independent copy.
func (c Credentials) Clone() Credentials {
	out := make(Credentials, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
