package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/service"
)

// maxUploadBytes caps a single file read from a multipart upload.
const maxUploadBytes = 100 << 20

type MediaHandler struct {
	media    MediaActions
	sessions Expirer
}

func NewMediaHandler(media MediaActions, sessions Expirer) *MediaHandler {
	return &MediaHandler{media: media, sessions: sessions}
}

// ListImages returns the user's images.
//
// @Summary      List images
// @Tags         images
// @Produce      json
// @Success      200  {object}  imagesResponse
// @Failure      303  {object}  middleware.RedirectBody
// @Router       /images [get]
func (h *MediaHandler) ListImages(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	imgs, err := h.media.Images(c.Request().Context(), st)
	if err != nil {
		expireOnUnauthorized(h.sessions, st, err)
		return err
	}
	if imgs == nil {
		imgs = []domain.Image{}
	}
	return c.JSON(http.StatusOK, imagesResponse{Images: imgs})
}

// UploadImages accepts multipart "files" parts.
//
// @Summary      Upload images
// @Tags         images
// @Accept       multipart/form-data
// @Produce      json
// @Param        files  formData  file  true  "Images to upload"
// @Success      201    {object}  domain.UploadResult
// @Failure      400    {object}  errorResponse
// @Router       /images [post]
func (h *MediaHandler) UploadImages(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	files, err := readUploads(c)
	if err != nil {
		return err
	}
	res, err := h.media.UploadImages(c.Request().Context(), st, files)
	if err != nil {
		expireOnUnauthorized(h.sessions, st, err)
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// DeleteImage soft-deletes an image.
//
// @Summary      Delete image
// @Tags         images
// @Param        id   path  string  true  "Image ID"
// @Success      204
// @Router       /images/{id} [delete]
func (h *MediaHandler) DeleteImage(c echo.Context) error {
	return h.mutate(c, h.media.DeleteImage)
}

// ResizeImage creates a resized copy.
//
// @Summary      Resize image
// @Tags         images
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Image ID"
// @Param        body  body      resizeRequest  true  "Target dimensions"
// @Success      200   {object}  domain.ResizedImage
// @Failure      422   {object}  errorResponse
// @Router       /images/{id}/resize [post]
func (h *MediaHandler) ResizeImage(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	var req resizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	out, err := h.media.ResizeImage(c.Request().Context(), st, c.Param("id"), req.Width, req.Height)
	if err != nil {
		expireOnUnauthorized(h.sessions, st, err)
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// ListDeletedImages returns the IDs of soft-deleted images.
//
// @Summary      List deleted images
// @Tags         images
// @Produce      json
// @Success      200  {object}  deletedImagesResponse
// @Router       /images/deleted [get]
func (h *MediaHandler) ListDeletedImages(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	ids, err := h.media.DeletedImages(c.Request().Context(), st)
	if err != nil {
		expireOnUnauthorized(h.sessions, st, err)
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, deletedImagesResponse{IDs: ids})
}

// RecoverImage restores a soft-deleted image.
//
// @Summary      Recover image
// @Tags         images
// @Param        id   path  string  true  "Image ID"
// @Success      204
// @Router       /images/deleted/{id}/recover [post]
func (h *MediaHandler) RecoverImage(c echo.Context) error {
	return h.mutate(c, h.media.RecoverImage)
}

// PurgeImage permanently deletes a soft-deleted image.
//
// @Summary      Purge image
// @Tags         images
// @Param        id   path  string  true  "Image ID"
// @Success      204
// @Router       /images/deleted/{id} [delete]
func (h *MediaHandler) PurgeImage(c echo.Context) error {
	return h.mutate(c, h.media.PurgeImage)
}

// ListVideos returns the user's videos.
//
// @Summary      List videos
// @Tags         videos
// @Produce      json
// @Success      200  {object}  videosResponse
// @Router       /videos [get]
func (h *MediaHandler) ListVideos(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	vids, err := h.media.Videos(c.Request().Context(), st)
	if err != nil {
		expireOnUnauthorized(h.sessions, st, err)
		return err
	}
	if vids == nil {
		vids = []domain.Video{}
	}
	return c.JSON(http.StatusOK, videosResponse{Videos: vids})
}

// UploadVideos accepts multipart "files" parts.
//
// @Summary      Upload videos
// @Tags         videos
// @Accept       multipart/form-data
// @Produce      json
// @Param        files  formData  file  true  "Videos to upload"
// @Success      201    {object}  domain.UploadResult
// @Router       /videos [post]
func (h *MediaHandler) UploadVideos(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	files, err := readUploads(c)
	if err != nil {
		return err
	}
	res, err := h.media.UploadVideos(c.Request().Context(), st, files)
	if err != nil {
		expireOnUnauthorized(h.sessions, st, err)
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// DeleteVideo removes a video.
//
// @Summary      Delete video
// @Tags         videos
// @Param        id   path  string  true  "Video ID"
// @Success      204
// @Router       /videos/{id} [delete]
func (h *MediaHandler) DeleteVideo(c echo.Context) error {
	return h.mutate(c, h.media.DeleteVideo)
}

// Checkout starts an upgrade checkout and returns the payment page URL.
//
// @Summary      Start checkout
// @Tags         billing
// @Produce      json
// @Success      200  {object}  domain.CheckoutSession
// @Failure      403  {object}  errorResponse
// @Router       /billing/checkout [post]
func (h *MediaHandler) Checkout(c echo.Context) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	cs, err := h.media.Checkout(c.Request().Context(), st)
	if err != nil {
		expireOnUnauthorized(h.sessions, st, err)
		return err
	}
	return c.JSON(http.StatusOK, cs)
}

type mutation func(ctx context.Context, st *service.SessionState, id string) error

func (h *MediaHandler) mutate(c echo.Context, fn mutation) error {
	st, err := ctxState(c)
	if err != nil {
		return err
	}
	if err := fn(c.Request().Context(), st, c.Param("id")); err != nil {
		expireOnUnauthorized(h.sessions, st, err)
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func readUploads(c echo.Context) ([]domain.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "expected multipart form")
	}

	headers := form.File["files"]
	files := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxUploadBytes {
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("%s is too large", fh.Filename))
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		files = append(files, domain.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Data:        data,
		})
	}
	return files, nil
}
