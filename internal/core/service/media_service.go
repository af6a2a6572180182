package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/ports"
	"github.com/mediavault/portal/internal/metrics"
)

// Query cache keys.
const (
	KeyImages        = "images"
	KeyDeletedImages = "deleted-images"
	KeyVideos        = "videos"
)

// MediaService lists and mutates a visitor's images and videos and starts
// billing checkouts. List results are cached per visitor; every mutation
// invalidates the lists it affects.
type MediaService struct {
	backend ports.MediaBackend
	cache   ports.QueryCache
	actions actionRecorder
	log     zerolog.Logger
}

func NewMediaService(
	backend ports.MediaBackend,
	cache ports.QueryCache,
	notifier ports.Notifier,
	activity ports.ActivityRepository,
	log zerolog.Logger,
) *MediaService {
	log = log.With().Str("component", "media").Logger()
	return &MediaService{
		backend: backend,
		cache:   cache,
		actions: actionRecorder{notifier: notifier, activity: activity, log: log, now: time.Now},
		log:     log,
	}
}

func (s *MediaService) Images(ctx context.Context, st *SessionState) ([]domain.Image, error) {
	return cachedQuery(ctx, s, st, KeyImages, func() ([]domain.Image, error) {
		return s.backend.ListImages(ctx, st.credentials())
	})
}

func (s *MediaService) DeletedImages(ctx context.Context, st *SessionState) ([]string, error) {
	return cachedQuery(ctx, s, st, KeyDeletedImages, func() ([]string, error) {
		return s.backend.ListDeletedImages(ctx, st.credentials())
	})
}

func (s *MediaService) Videos(ctx context.Context, st *SessionState) ([]domain.Video, error) {
	return cachedQuery(ctx, s, st, KeyVideos, func() ([]domain.Video, error) {
		return s.backend.ListVideos(ctx, st.credentials())
	})
}

// UploadImages sends files to the backend. Files the backend rejected are
// reported in the result and in an error notification; the call itself only
// fails when the request does.
func (s *MediaService) UploadImages(ctx context.Context, st *SessionState, files []domain.Upload) (*domain.UploadResult, error) {
	return s.upload(ctx, st, files, KeyImages, s.backend.UploadImages)
}

func (s *MediaService) UploadVideos(ctx context.Context, st *SessionState, files []domain.Upload) (*domain.UploadResult, error) {
	return s.upload(ctx, st, files, KeyVideos, s.backend.UploadVideos)
}

// DeleteImage moves an image to the deleted list.
func (s *MediaService) DeleteImage(ctx context.Context, st *SessionState, id string) error {
	if err := requireID(id); err != nil {
		return s.fail(ctx, st, domain.ActionDelete, err)
	}
	msg, err := s.backend.DeleteImage(ctx, st.credentials(), id)
	if err != nil {
		return s.fail(ctx, st, domain.ActionDelete, err)
	}
	s.invalidate(ctx, st, KeyImages, KeyDeletedImages)
	if msg == "" {
		msg = "Image deleted"
	}
	s.actions.succeeded(ctx, st, domain.ActionDelete, msg)
	return nil
}

// RecoverImage brings a soft-deleted image back.
func (s *MediaService) RecoverImage(ctx context.Context, st *SessionState, id string) error {
	if err := requireID(id); err != nil {
		return s.fail(ctx, st, domain.ActionRecover, err)
	}
	if err := s.backend.RecoverImage(ctx, st.credentials(), id); err != nil {
		return s.fail(ctx, st, domain.ActionRecover, err)
	}
	s.invalidate(ctx, st, KeyImages, KeyDeletedImages)
	s.actions.succeeded(ctx, st, domain.ActionRecover, "Image recovered")
	return nil
}

// PurgeImage removes a soft-deleted image for good.
func (s *MediaService) PurgeImage(ctx context.Context, st *SessionState, id string) error {
	if err := requireID(id); err != nil {
		return s.fail(ctx, st, domain.ActionPurge, err)
	}
	if err := s.backend.PurgeImage(ctx, st.credentials(), id); err != nil {
		return s.fail(ctx, st, domain.ActionPurge, err)
	}
	s.invalidate(ctx, st, KeyDeletedImages)
	s.actions.succeeded(ctx, st, domain.ActionPurge, "Image permanently deleted")
	return nil
}

func (s *MediaService) ResizeImage(ctx context.Context, st *SessionState, id string, width, height int) (*domain.ResizedImage, error) {
	if err := requireID(id); err != nil {
		return nil, s.fail(ctx, st, domain.ActionResize, err)
	}
	if width <= 0 || height <= 0 {
		err := fmt.Errorf("%w: width and height must be positive", domain.ErrInvalidInput)
		return nil, s.fail(ctx, st, domain.ActionResize, err)
	}
	out, err := s.backend.ResizeImage(ctx, st.credentials(), id, width, height)
	if err != nil {
		return nil, s.fail(ctx, st, domain.ActionResize, err)
	}
	s.invalidate(ctx, st, KeyImages)
	s.actions.succeeded(ctx, st, domain.ActionResize, "Image resized")
	return out, nil
}

func (s *MediaService) DeleteVideo(ctx context.Context, st *SessionState, vid string) error {
	if err := requireID(vid); err != nil {
		return s.fail(ctx, st, domain.ActionDelete, err)
	}
	if err := s.backend.DeleteVideo(ctx, st.credentials(), vid); err != nil {
		return s.fail(ctx, st, domain.ActionDelete, err)
	}
	s.invalidate(ctx, st, KeyVideos)
	s.actions.succeeded(ctx, st, domain.ActionDelete, "Video deleted")
	return nil
}

// Checkout starts a payment session for the account upgrade.
func (s *MediaService) Checkout(ctx context.Context, st *SessionState) (*domain.CheckoutSession, error) {
	if u := st.Snapshot().User; u != nil && u.Paid() {
		err := fmt.Errorf("%w: account is already upgraded", domain.ErrInvalidInput)
		return nil, s.fail(ctx, st, domain.ActionCheckout, err)
	}
	cs, err := s.backend.CreateCheckout(ctx, st.credentials())
	if err != nil {
		return nil, s.fail(ctx, st, domain.ActionCheckout, err)
	}
	s.actions.succeeded(ctx, st, domain.ActionCheckout, "")
	return cs, nil
}

type uploadFunc func(context.Context, domain.Credentials, []domain.Upload) (*domain.UploadResult, error)

func (s *MediaService) upload(ctx context.Context, st *SessionState, files []domain.Upload, key string, send uploadFunc) (*domain.UploadResult, error) {
	if len(files) == 0 {
		err := fmt.Errorf("%w: no files selected", domain.ErrInvalidInput)
		return nil, s.fail(ctx, st, domain.ActionUpload, err)
	}
	res, err := send(ctx, st.credentials(), files)
	if err != nil {
		return nil, s.fail(ctx, st, domain.ActionUpload, err)
	}
	s.invalidate(ctx, st, key)

	if n := len(res.UploadedFiles); n > 0 {
		s.actions.succeeded(ctx, st, domain.ActionUpload, fmt.Sprintf("Uploaded %d file(s)", n))
	}
	if len(res.FailedFiles) > 0 {
		s.actions.notify(ctx, st, domain.NotifyError, "Failed to upload: "+strings.Join(res.FailedFiles, ", "))
	}
	return res, nil
}

func (s *MediaService) fail(ctx context.Context, st *SessionState, action string, err error) error {
	s.actions.failed(ctx, st, action, err)
	return err
}

func (s *MediaService) invalidate(ctx context.Context, st *SessionState, keys ...string) {
	if err := s.cache.Invalidate(ctx, st.ID(), keys...); err != nil {
		s.log.Warn().Err(err).Str("visitor", st.ID()).Strs("keys", keys).Msg("failed to invalidate query cache")
	}
}

// cachedQuery serves key from the visitor's cache, falling back to fetch.
// Cache errors degrade to a backend call. A rate-limited fetch notifies the
// visitor; other query failures are left to the caller.
func cachedQuery[T any](ctx context.Context, s *MediaService, st *SessionState, key string, fetch func() (T, error)) (T, error) {
	var out T
	found, err := s.cache.Get(ctx, st.ID(), key, &out)
	if err != nil {
		s.log.Warn().Err(err).Str("visitor", st.ID()).Str("key", key).Msg("query cache read failed")
	}
	if found {
		return out, nil
	}

	out, err = fetch()
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			metrics.RateLimitedTotal.Inc()
			s.actions.notify(ctx, st, domain.NotifyError, rateLimitedMessage)
		}
		var zero T
		return zero, err
	}

	if err := s.cache.Put(ctx, st.ID(), key, out); err != nil {
		s.log.Warn().Err(err).Str("visitor", st.ID()).Str("key", key).Msg("query cache write failed")
	}
	return out, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	return nil
}
