package handler

import "github.com/mediavault/portal/internal/core/domain"

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type secretKeyRequest struct {
	Password string `json:"password" validate:"required"`
}

type secretKeyResponse struct {
	SecretKey string `json:"secret_key"`
}

type resizeRequest struct {
	Width  int `json:"width"  validate:"gt=0,max=10000"`
	Height int `json:"height" validate:"gt=0,max=10000"`
}

type profileResponse struct {
	User *domain.UserRecord `json:"user"`
	Paid bool               `json:"paid"`
}

type activityResponse struct {
	Activity []domain.Activity `json:"activity"`
}

type imagesResponse struct {
	Images []domain.Image `json:"images"`
}

type deletedImagesResponse struct {
	IDs []string `json:"ids"`
}

type videosResponse struct {
	Videos []domain.Video `json:"videos"`
}

type notificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

type pageResponse struct {
	Page    string `json:"page"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse mirrors the envelope rendered by the HTTP error handler.
type errorResponse struct {
	Error string `json:"error"`
}
