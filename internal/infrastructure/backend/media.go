package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/mediavault/portal/internal/core/domain"
)

// ListImages calls GET /api/file/get-all.
func (c *Client) ListImages(ctx context.Context, creds domain.Credentials) ([]domain.Image, error) {
	var env envelope[[]domain.Image]
	err := c.do(ctx, request{
		op:     "list_images",
		method: http.MethodGet,
		path:   "/api/file/get-all",
	}, creds, &env)
	if err != nil {
		return nil, err
	}
	for i := range env.Data {
		if env.Data[i].CDNURL == "" {
			env.Data[i].CDNURL = c.FileURL(env.Data[i].ID)
		}
	}
	return env.Data, nil
}

// UploadImages calls POST /api/file/upload with one "file" part per upload.
func (c *Client) UploadImages(ctx context.Context, creds domain.Credentials, files []domain.Upload) (*domain.UploadResult, error) {
	return c.upload(ctx, creds, "upload_images", "/api/file/upload", "file", files)
}

// DeleteImage calls DELETE /api/file/delete?iid=<id> (soft delete) and
// returns the confirmation message.
func (c *Client) DeleteImage(ctx context.Context, creds domain.Credentials, id string) (string, error) {
	var env envelope[[]string]
	err := c.do(ctx, request{
		op:     "delete_image",
		method: http.MethodDelete,
		path:   "/api/file/delete",
		query:  url.Values{"iid": {id}},
	}, creds, &env)
	if err != nil {
		return "", err
	}
	if len(env.Data) == 0 {
		return env.Status, nil
	}
	return env.Data[0], nil
}

// ListDeletedImages calls GET /api/file/deleted-images and returns the IDs of
// soft-deleted images.
func (c *Client) ListDeletedImages(ctx context.Context, creds domain.Credentials) ([]string, error) {
	var env envelope[[]string]
	err := c.do(ctx, request{
		op:     "list_deleted_images",
		method: http.MethodGet,
		path:   "/api/file/deleted-images",
	}, creds, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// RecoverImage calls PATCH /api/file/recover?id=<id>.
func (c *Client) RecoverImage(ctx context.Context, creds domain.Credentials, id string) error {
	return c.do(ctx, request{
		op:     "recover_image",
		method: http.MethodPatch,
		path:   "/api/file/recover",
		query:  url.Values{"id": {id}},
	}, creds, nil)
}

// PurgeImage calls DELETE /api/file/delete-permanently?id=<id>.
func (c *Client) PurgeImage(ctx context.Context, creds domain.Credentials, id string) error {
	return c.do(ctx, request{
		op:     "purge_image",
		method: http.MethodDelete,
		path:   "/api/file/delete-permanently",
		query:  url.Values{"id": {id}},
	}, creds, nil)
}

// ResizeImage calls POST /api/file/edit/<iid>/?width=<w>&height=<h>.
func (c *Client) ResizeImage(ctx context.Context, creds domain.Credentials, id string, width, height int) (*domain.ResizedImage, error) {
	var out domain.ResizedImage
	err := c.do(ctx, request{
		op:     "resize_image",
		method: http.MethodPost,
		path:   "/api/file/edit/" + url.PathEscape(id) + "/",
		query: url.Values{
			"width":  {strconv.Itoa(width)},
			"height": {strconv.Itoa(height)},
		},
	}, creds, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVideos calls GET /api/video/get-all.
func (c *Client) ListVideos(ctx context.Context, creds domain.Credentials) ([]domain.Video, error) {
	var env envelope[[]domain.Video]
	err := c.do(ctx, request{
		op:     "list_videos",
		method: http.MethodGet,
		path:   "/api/video/get-all",
	}, creds, &env)
	if err != nil {
		return nil, err
	}
	for i := range env.Data {
		if env.Data[i].URL == "" {
			env.Data[i].URL = c.WatchURL(env.Data[i].VID)
		}
	}
	return env.Data, nil
}

// UploadVideos calls POST /api/video/upload with one "video" part per upload.
func (c *Client) UploadVideos(ctx context.Context, creds domain.Credentials, files []domain.Upload) (*domain.UploadResult, error) {
	return c.upload(ctx, creds, "upload_videos", "/api/video/upload", "video", files)
}

// DeleteVideo calls DELETE /api/video/delete?vid=<id>.
func (c *Client) DeleteVideo(ctx context.Context, creds domain.Credentials, id string) error {
	return c.do(ctx, request{
		op:     "delete_video",
		method: http.MethodDelete,
		path:   "/api/video/delete",
		query:  url.Values{"vid": {id}},
	}, creds, nil)
}

// WatchURL is the streaming link for a video, used when a listing omits it.
func (c *Client) WatchURL(vid string) string {
	return c.URL("/api/video/watch/", url.Values{"vid": {vid}})
}

// FileURL is the direct link for an image, used when a listing omits the CDN URL.
func (c *Client) FileURL(id string) string {
	return c.URL("/api/file/get-file/"+url.PathEscape(id), nil)
}

// CreateCheckout calls POST /api/stripe/create-session. The backend has
// shipped both {data:{checkout_url}} and {data:["<url>"]}; either is accepted.
func (c *Client) CreateCheckout(ctx context.Context, creds domain.Credentials) (*domain.CheckoutSession, error) {
	var env envelope[json.RawMessage]
	err := c.do(ctx, request{
		op:     "create_checkout",
		method: http.MethodPost,
		path:   "/api/stripe/create-session",
	}, creds, &env)
	if err != nil {
		return nil, err
	}

	var session domain.CheckoutSession
	if err := json.Unmarshal(env.Data, &session); err == nil && session.URL != "" {
		return &session, nil
	}
	var urls []string
	if err := json.Unmarshal(env.Data, &urls); err == nil && len(urls) > 0 {
		return &domain.CheckoutSession{URL: urls[0]}, nil
	}
	return nil, &domain.APIError{Status: "error", Message: "create-session: missing checkout url"}
}

func (c *Client) upload(ctx context.Context, creds domain.Credentials, op, path, field string, files []domain.Upload) (*domain.UploadResult, error) {
	body, ctype, err := multipartBody(field, files)
	if err != nil {
		return nil, &domain.APIError{Status: "error", Message: err.Error()}
	}

	var out domain.UploadResult
	err = c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   body,
		ctype:  ctype,
	}, creds, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody encodes files as form parts named field, keeping each
// file's own content type.
func multipartBody(field string, files []domain.Upload) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(field), quoteEscaper.Replace(f.Filename)))
		ctype := f.ContentType
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		h.Set("Content-Type", ctype)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("multipart %s: %w", f.Filename, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("multipart %s: %w", f.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("multipart close: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
