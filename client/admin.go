package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Administrative user management. The client attaches the bearer token and
// sends the request; whether the caller is an administrator is entirely the
// authority's decision. Nothing here infers admin rights from the username.

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context) ([]AccountInfo, error) {
	var resp struct {
		Users []AccountInfo `json:"users"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/users", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// DeleteUser removes an account by username.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	path := "/auth/users/" + url.PathEscape(normalizeUsername(username))
	err := c.doJSON(ctx, http.MethodDelete, path, nil, nil, true)
	return mapAccountError(err)
}

// ResetPassword sets a new password for an account.
func (c *Client) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	path := "/auth/users/" + url.PathEscape(normalizeUsername(username)) + "/reset-password"
	body := map[string]string{"new_password": newPassword}
	err := c.doJSON(ctx, http.MethodPost, path, body, nil, true)
	return mapAccountError(err)
}

func mapAccountError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return wrap(ErrUserNotFound, apiErr)
	}
	return err
}
