package api

import (
	"context"

	"github.com/artvinci/artvinci-go/pkg/validate"
)

// LoginRequest carries the credentials for password login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries the signup form.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role,omitempty"`
}

// AuthResponse is the shape every token-yielding flow returns: tokens at the
// root plus the user profile.
type AuthResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user"`
	Message string `json:"message"`
}

// RegisterResponse either includes tokens (immediate login) or flags that an
// email verification round-trip is required first.
type RegisterResponse struct {
	VerificationRequired bool   `json:"verification_required"`
	Message              string `json:"message"`
	Email                string `json:"email"`
	Access               string `json:"access"`
	Refresh              string `json:"refresh"`
	User                 *User  `json:"user"`
}

// SendOTPRequest asks the backend to mail a one-time passcode.
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest redeems the mailed passcode.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// RefreshRequest exchanges the refresh token for a new access token.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// RefreshResponse carries the replacement access token.
type RefreshResponse struct {
	Access string `json:"access"`
}

// LogoutRequest hands the refresh token over for blacklisting.
type LogoutRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// ForgotPasswordRequest starts the reset-email flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a reset token for a new password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// GoogleCallbackRequest exchanges the OAuth authorization code.
type GoogleCallbackRequest struct {
	Code string `json:"code" validate:"required"`
}

// FaceImageRequest carries a captured frame for face login/registration.
type FaceImageRequest struct {
	Image string `json:"image" validate:"required"`
}

// MessageResponse is the generic acknowledgment shape.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProfileUpdate is a partial profile patch; zero fields are omitted.
type ProfileUpdate struct {
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Bio             string `json:"bio,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := c.post(ctx, "/auth/login/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account; the response flags whether an OTP round-trip
// is still required.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out RegisterResponse
	if err := c.post(ctx, "/auth/register/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendOTP mails a fresh passcode to the pending address.
func (c *Client) SendOTP(ctx context.Context, req SendOTPRequest) (*MessageResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out MessageResponse
	if err := c.post(ctx, "/auth/send-otp/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP activates the account and yields tokens.
func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := c.post(ctx, "/auth/verify-otp/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken mints a new access token from the refresh token.
func (c *Client) RefreshToken(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out RefreshResponse
	if err := c.post(ctx, "/auth/token/refresh/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the backend to blacklist the refresh token.
func (c *Client) Logout(ctx context.Context, req LogoutRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	return c.post(ctx, "/auth/logout/", req, nil)
}

// Me fetches the authenticated profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.get(ctx, "/auth/me/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile patches the authenticated profile.
func (c *Client) UpdateProfile(ctx context.Context, patch ProfileUpdate) (*User, error) {
	var out User
	if err := c.patch(ctx, "/auth/me/", patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword requests a reset email.
func (c *Client) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out MessageResponse
	if err := c.post(ctx, "/auth/forgot-password/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword completes the reset flow.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out MessageResponse
	if err := c.post(ctx, "/auth/reset-password/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GoogleCallback trades an OAuth authorization code for tokens.
func (c *Client) GoogleCallback(ctx context.Context, req GoogleCallbackRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := c.post(ctx, "/auth/google/callback/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FaceLogin authenticates from a captured frame.
func (c *Client) FaceLogin(ctx context.Context, req FaceImageRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := c.post(ctx, "/auth/face/login/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FaceRegister enrolls the authenticated user's face.
func (c *Client) FaceRegister(ctx context.Context, req FaceImageRequest) (*MessageResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out MessageResponse
	if err := c.post(ctx, "/auth/face/register/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
