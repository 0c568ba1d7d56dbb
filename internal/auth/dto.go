package auth

import (
	"github.com/mathmindlabs/mathmind-backend/internal/users"
)

// RegisterRequest captures a new email/password signup.
type RegisterRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	Name         string  `json:"name" validate:"required"`
	ProfileImage *string `json:"profile_image,omitempty" validate:"omitempty,url"`
}

// LoginRequest captures the credentials sent to the password login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest carries the identity asserted by Google sign-in.
// GoogleID is the stable subject; email and name seed the profile when
// the account is provisioned on first sign-in.
type GoogleLoginRequest struct {
	GoogleID     string  `json:"google_id" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Name         string  `json:"name" validate:"required"`
	ProfileImage *string `json:"profile_image,omitempty" validate:"omitempty,url"`
}

// AuthResponse contains the token pair and profile produced by a
// successful registration or login.
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RefreshRequest carries the expired-or-live access token alongside the
// refresh token so rotation can locate the session by jti.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse is the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
