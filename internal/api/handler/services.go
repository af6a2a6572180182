package handler

import (
	"context"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/service"
)

// Expirer forces the next request to re-run the bootstrap cycle.
type Expirer interface {
	Expire(st *service.SessionState)
}

// SessionActions is the session surface the handlers drive.
type SessionActions interface {
	Expirer
	Login(ctx context.Context, st *service.SessionState, email, password string) (service.Outcome, error)
	Register(ctx context.Context, st *service.SessionState, username, email, password string) (service.Outcome, error)
	Logout(ctx context.Context, st *service.SessionState) service.Outcome
	UpdatePassword(ctx context.Context, st *service.SessionState, current, next, confirm string) error
	SecretKey(ctx context.Context, st *service.SessionState, password string) (string, error)
	Activity(ctx context.Context, st *service.SessionState) ([]domain.Activity, error)
}

// MediaActions is the gallery, video and billing surface.
type MediaActions interface {
	Images(ctx context.Context, st *service.SessionState) ([]domain.Image, error)
	UploadImages(ctx context.Context, st *service.SessionState, files []domain.Upload) (*domain.UploadResult, error)
	DeleteImage(ctx context.Context, st *service.SessionState, id string) error
	DeletedImages(ctx context.Context, st *service.SessionState) ([]string, error)
	RecoverImage(ctx context.Context, st *service.SessionState, id string) error
	PurgeImage(ctx context.Context, st *service.SessionState, id string) error
	ResizeImage(ctx context.Context, st *service.SessionState, id string, width, height int) (*domain.ResizedImage, error)
	Videos(ctx context.Context, st *service.SessionState) ([]domain.Video, error)
	UploadVideos(ctx context.Context, st *service.SessionState, files []domain.Upload) (*domain.UploadResult, error)
	DeleteVideo(ctx context.Context, st *service.SessionState, vid string) error
	Checkout(ctx context.Context, st *service.SessionState) (*domain.CheckoutSession, error)
}
