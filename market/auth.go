package market

import (
	"bytes"
	"context"
)

// LoginResult is the payload of a successful login.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	// IsVerified is omitted by some backend versions; absent means verified.
	IsVerified *bool `json:"isVerified"`
}

type loginResponse struct {
	Data LoginResult `json:"data"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	result := &loginResponse{}

	_, err := handleError(c.req(ctx, result).
		SetBody(map[string]string{
			"email":            email,
			"password":         password,
			"token_expires_in": tokenExpiresIn,
		}).
		Post("/api/auth/login"))

	return result.Data, err
}

type refreshResponse struct {
	Data struct {
		AccessToken string `json:"accessToken"`
	} `json:"data"`
}

// RefreshToken exchanges a refresh token for a new access token. The refresh
// token itself is not rotated by this endpoint.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	result := &refreshResponse{}

	_, err := handleError(c.req(ctx, result).
		SetBody(map[string]string{
			"refreshToken":     refreshToken,
			"token_expires_in": tokenExpiresIn,
		}).
		Post("/api/auth/refresh-token"))

	return result.Data.AccessToken, err
}

// SignUpParams is the registration form. ProfileImage is optional.
type SignUpParams struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	ProfileImage []byte
	ImageName    string
}

type signUpResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
}

// SignUp registers a new account. The account starts unverified; the backend
// sends an OTP to the given email address.
func (c *Client) SignUp(ctx context.Context, params SignUpParams) (string, error) {
	result := &signUpResponse{}

	req := c.req(ctx, result).
		SetMultipartFormData(map[string]string{
			"firstName": params.FirstName,
			"lastName":  params.LastName,
			"email":     params.Email,
			"password":  params.Password,
		})

	if len(params.ProfileImage) > 0 {
		name := params.ImageName
		if name == "" {
			name = "profile.jpg"
		}
		req.SetFileReader("profileImage", name, bytes.NewReader(params.ProfileImage))
	}

	_, err := handleError(req.Post("/api/auth/signup"))

	return result.Data.Message, err
}

type verifyOTPResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// VerifyOTP submits the emailed one-time code. Returns true when the backend
// confirms the email address.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (bool, error) {
	result := &verifyOTPResponse{}

	_, err := handleError(c.req(ctx, result).
		SetBody(map[string]string{
			"email": email,
			"otp":   otp,
		}).
		Post("/api/auth/verify-otp"))

	return result.Success, err
}

// ResendVerificationOTP asks the backend to send a fresh OTP.
func (c *Client) ResendVerificationOTP(ctx context.Context, email string) error {
	_, err := handleError(c.req(ctx, nil).
		SetBody(map[string]string{"email": email}).
		Post("/api/auth/resend-verification-otp"))

	return err
}
