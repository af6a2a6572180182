package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/mediavault/portal/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type userReply struct {
	users []domain.UserRecord
	err   error
}

// stubBackend answers get-user from a queue of replies; the last reply
// repeats once the queue is exhausted.
type stubBackend struct {
	mu sync.Mutex

	replies      []userReply
	refreshErr   error
	refreshSets  domain.Credentials // merged into creds on a successful refresh
	getCalls     int
	refreshCalls int
	onGetUser    func()

	loginErr     error
	loginSets    domain.Credentials
	registerErr  error
	logoutStatus string
	logoutErr    error
	passwordErr  error
	secretKey    string
	secretErr    error

	images      []domain.Image
	imagesErr   error
	listCalls   int
	deleted     []string
	videos      []domain.Video
	uploadRes   *domain.UploadResult
	mutationErr error
	checkout    *domain.CheckoutSession
	lastID      string
}

func (b *stubBackend) GetUser(_ context.Context, _ domain.Credentials) ([]domain.UserRecord, error) {
	b.mu.Lock()
	b.getCalls++
	var r userReply
	if len(b.replies) > 0 {
		r = b.replies[0]
		if len(b.replies) > 1 {
			b.replies = b.replies[1:]
		}
	}
	hook := b.onGetUser
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	return r.users, r.err
}

func (b *stubBackend) RefreshToken(_ context.Context, creds domain.Credentials) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++
	if b.refreshErr != nil {
		return b.refreshErr
	}
	for k, v := range b.refreshSets {
		creds[k] = v
	}
	return nil
}

func (b *stubBackend) Login(_ context.Context, creds domain.Credentials, _, _ string) error {
	if b.loginErr != nil {
		return b.loginErr
	}
	for k, v := range b.loginSets {
		creds[k] = v
	}
	return nil
}

func (b *stubBackend) Register(_ context.Context, _ domain.Credentials, _, _, _ string) error {
	return b.registerErr
}

func (b *stubBackend) Logout(_ context.Context, _ domain.Credentials) (string, error) {
	return b.logoutStatus, b.logoutErr
}

func (b *stubBackend) UpdatePassword(_ context.Context, _ domain.Credentials, _, _ string) error {
	return b.passwordErr
}

func (b *stubBackend) GetSecretKey(_ context.Context, _ domain.Credentials, _ string) (string, error) {
	return b.secretKey, b.secretErr
}

func (b *stubBackend) ListImages(_ context.Context, _ domain.Credentials) ([]domain.Image, error) {
	b.listCalls++
	return b.images, b.imagesErr
}

func (b *stubBackend) UploadImages(_ context.Context, _ domain.Credentials, _ []domain.Upload) (*domain.UploadResult, error) {
	return b.uploadRes, b.mutationErr
}

func (b *stubBackend) DeleteImage(_ context.Context, _ domain.Credentials, id string) (string, error) {
	b.lastID = id
	return "image deleted", b.mutationErr
}

func (b *stubBackend) ListDeletedImages(_ context.Context, _ domain.Credentials) ([]string, error) {
	b.listCalls++
	return b.deleted, nil
}

func (b *stubBackend) RecoverImage(_ context.Context, _ domain.Credentials, id string) error {
	b.lastID = id
	return b.mutationErr
}

func (b *stubBackend) PurgeImage(_ context.Context, _ domain.Credentials, id string) error {
	b.lastID = id
	return b.mutationErr
}

func (b *stubBackend) ResizeImage(_ context.Context, _ domain.Credentials, id string, _, _ int) (*domain.ResizedImage, error) {
	b.lastID = id
	if b.mutationErr != nil {
		return nil, b.mutationErr
	}
	return &domain.ResizedImage{URL: "https://cdn.example/" + id}, nil
}

func (b *stubBackend) ListVideos(_ context.Context, _ domain.Credentials) ([]domain.Video, error) {
	b.listCalls++
	return b.videos, nil
}

func (b *stubBackend) UploadVideos(_ context.Context, _ domain.Credentials, _ []domain.Upload) (*domain.UploadResult, error) {
	return b.uploadRes, b.mutationErr
}

func (b *stubBackend) DeleteVideo(_ context.Context, _ domain.Credentials, vid string) error {
	b.lastID = vid
	return b.mutationErr
}

func (b *stubBackend) CreateCheckout(_ context.Context, _ domain.Credentials) (*domain.CheckoutSession, error) {
	if b.mutationErr != nil {
		return nil, b.mutationErr
	}
	return b.checkout, nil
}

// stubCache stores JSON per visitor and key, the way the real caches do.
type stubCache struct {
	data     map[string]map[string][]byte
	getErr   error
	clears   int
	invalid  []string
	clearErr error
}

func newStubCache() *stubCache {
	return &stubCache{data: map[string]map[string][]byte{}}
}

func (c *stubCache) Get(_ context.Context, visitorID, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[visitorID][key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *stubCache) Put(_ context.Context, visitorID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.data[visitorID] == nil {
		c.data[visitorID] = map[string][]byte{}
	}
	c.data[visitorID][key] = raw
	return nil
}

func (c *stubCache) Invalidate(_ context.Context, visitorID string, keys ...string) error {
	for _, k := range keys {
		delete(c.data[visitorID], k)
		c.invalid = append(c.invalid, k)
	}
	return nil
}

func (c *stubCache) Clear(_ context.Context, visitorID string) error {
	c.clears++
	delete(c.data, visitorID)
	return c.clearErr
}

type stubNotifier struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (n *stubNotifier) Push(_ context.Context, _ string, item domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
	return nil
}

func (n *stubNotifier) Drain(_ context.Context, _ string) ([]domain.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.items
	n.items = nil
	return out, nil
}

func (n *stubNotifier) last() (domain.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return domain.Notification{}, false
	}
	return n.items[len(n.items)-1], true
}

type stubActivity struct {
	insertErr error
	entries   []*domain.Activity
}

func (a *stubActivity) Insert(_ context.Context, e *domain.Activity) error {
	if a.insertErr != nil {
		return a.insertErr
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *stubActivity) Recent(_ context.Context, visitorID string, limit int64) ([]domain.Activity, error) {
	out := []domain.Activity{}
	for i := len(a.entries) - 1; i >= 0; i-- {
		if a.entries[i].VisitorID != visitorID {
			continue
		}
		out = append(out, *a.entries[i])
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	errUnauthorized = &domain.APIError{Code: http.StatusUnauthorized, Status: "error", Message: "unauthorized"}
	errTooMany      = &domain.APIError{Code: http.StatusTooManyRequests, Status: "error", Message: "too many requests"}
	errServer       = &domain.APIError{Code: http.StatusInternalServerError, Status: "error", Message: "boom"}
	errNetwork      = &domain.APIError{Status: "error", Message: "connection refused"}
	errPlain        = errors.New("plain failure")
)

func alice() domain.UserRecord {
	return domain.UserRecord{ID: "u-1", Username: "alice", Email: "alice@example.com", AccountType: domain.AccountFree}
}

func okUser() userReply { return userReply{users: []domain.UserRecord{alice()}} }

func failWith(err error) userReply { return userReply{err: err} }
