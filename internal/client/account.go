package client

import (
	"context"
	"net/http"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
)

// FetchProfile returns the signed-in account's profile. The bearer token is
// sent when one is available but is not required.
func (c *Client) FetchProfile(ctx context.Context) (*models.Profile, error) {
	const op = "fetch_profile"

	resp, err := c.do(ctx, op, http.MethodGet, pathProfile, nil, authOptional)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.rejection(op)
	}

	var profile models.Profile
	resp.decode(&profile)
	if profile.Email == "" {
		return nil, &BackendError{Op: op, StatusCode: resp.status, MissingField: "email"}
	}
	return &profile, nil
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset asks the backend to email a reset link. Any status
// other than 200, including other 2xx codes, is a rejection.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "forgot_password"

	resp, err := c.do(ctx, op, http.MethodPost, pathForgotPassword, forgotPasswordRequest{Email: email}, authOptional)
	if err != nil {
		return err
	}
	// Only a plain 200 means the link went out.
	if resp.status != http.StatusOK {
		return resp.rejection(op)
	}
	return nil
}
