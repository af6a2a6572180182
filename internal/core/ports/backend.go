package ports

import (
	"context"

	"github.com/mediavault/portal/internal/core/domain"
)

// SessionBackend is the part of the backend the bootstrap cycle talks to.
// Every call reads the visitor's credentials and merges any cookies the
// backend sets back into them.
type SessionBackend interface {
	GetUser(ctx context.Context, creds domain.Credentials) ([]domain.UserRecord, error)
	RefreshToken(ctx context.Context, creds domain.Credentials) error
}

// AccountBackend covers the user-initiated account actions.
type AccountBackend interface {
	SessionBackend
	Login(ctx context.Context, creds domain.Credentials, email, password string) error
	Register(ctx context.Context, creds domain.Credentials, username, email, password string) error
	// Logout returns the status string the backend reports on success.
	Logout(ctx context.Context, creds domain.Credentials) (string, error)
	UpdatePassword(ctx context.Context, creds domain.Credentials, current, next string) error
	GetSecretKey(ctx context.Context, creds domain.Credentials, password string) (string, error)
}

// MediaBackend covers images, videos and billing.
type MediaBackend interface {
	ListImages(ctx context.Context, creds domain.Credentials) ([]domain.Image, error)
	UploadImages(ctx context.Context, creds domain.Credentials, files []domain.Upload) (*domain.UploadResult, error)
	DeleteImage(ctx context.Context, creds domain.Credentials, id string) (string, error)
	ListDeletedImages(ctx context.Context, creds domain.Credentials) ([]string, error)
	RecoverImage(ctx context.Context, creds domain.Credentials, id string) error
	PurgeImage(ctx context.Context, creds domain.Credentials, id string) error
	ResizeImage(ctx context.Context, creds domain.Credentials, id string, width, height int) (*domain.ResizedImage, error)

	ListVideos(ctx context.Context, creds domain.Credentials) ([]domain.Video, error)
	UploadVideos(ctx context.Context, creds domain.Credentials, files []domain.Upload) (*domain.UploadResult, error)
	DeleteVideo(ctx context.Context, creds domain.Credentials, id string) error

	CreateCheckout(ctx context.Context, creds domain.Credentials) (*domain.CheckoutSession, error)
}
