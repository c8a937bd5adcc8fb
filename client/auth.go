package client

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/analuiza2102/bioaccess/capture"
	"github.com/analuiza2102/bioaccess/session"
)

// Login authenticates with a username and password. Success updates the
// session store; a wrong credential pair surfaces only the generic
// rejection.
func (c *Client) Login(ctx context.Context, username, password string) (session.User, error) {
	body := map[string]string{
		"username": normalizeUsername(username),
		"password": password,
	}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &resp, false); err != nil {
		return session.User{}, mapLoginError(err)
	}
	return c.establishSession(resp, body["username"])
}

// CheckBiometric reports whether the identity has an enrolled template.
func (c *Client) CheckBiometric(ctx context.Context, username string) (BiometricStatus, error) {
	body := map[string]string{"username": normalizeUsername(username)}
	var resp BiometricStatus
	if err := c.doJSON(ctx, http.MethodPost, "/auth/check-biometric", body, &resp, false); err != nil {
		return BiometricStatus{}, err
	}
	return resp, nil
}

// Enroll registers a biometric template for an existing identity from a
// base64-encoded image. The session is unaffected.
func (c *Client) Enroll(ctx context.Context, username string, img capture.SingleImage) (EnrollResponse, error) {
	body := map[string]string{
		"username":  normalizeUsername(username),
		"image_b64": base64.StdEncoding.EncodeToString(img.Data),
		// The production authority decodes by declared format; servers
		// that sniff content ignore the field.
		"image_format": formatFromMIME(img.MIMEType),
	}
	var resp EnrollResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/enroll", body, &resp, false); err != nil {
		return EnrollResponse{}, mapEnrollError(err)
	}
	return resp, nil
}

// EnrollUpload registers a biometric template from an uploaded file, sent as
// multipart form data.
func (c *Client) EnrollUpload(ctx context.Context, username, fileName string, img capture.SingleImage) (EnrollResponse, error) {
	var resp EnrollResponse
	err := c.doMultipart(ctx, "/auth/enroll-upload",
		map[string]string{"username": normalizeUsername(username)},
		"image", fileName, img.Data, &resp, false)
	if err != nil {
		return EnrollResponse{}, mapEnrollError(err)
	}
	return resp, nil
}

// Verify authenticates by a single face image. Success updates the session
// store.
func (c *Client) Verify(ctx context.Context, username string, img capture.SingleImage) (session.User, error) {
	body := map[string]string{
		"username":     normalizeUsername(username),
		"image_b64":    base64.StdEncoding.EncodeToString(img.Data),
		"image_format": formatFromMIME(img.MIMEType),
	}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify", body, &resp, false); err != nil {
		return session.User{}, mapVerifyError(err)
	}
	return c.establishSession(resp, body["username"])
}

// VerifyLiveness authenticates by a liveness pair: two sequential captures
// of a moving subject. The liveness judgment itself belongs to the remote
// authority.
func (c *Client) VerifyLiveness(ctx context.Context, username string, pair capture.LivenessPair) (session.User, error) {
	body := map[string]string{
		"username":    normalizeUsername(username),
		"image_b64_a": base64.StdEncoding.EncodeToString(pair.ImageA.Data),
		"image_b64_b": base64.StdEncoding.EncodeToString(pair.ImageB.Data),
	}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify", body, &resp, false); err != nil {
		return session.User{}, mapVerifyError(err)
	}
	return c.establishSession(resp, body["username"])
}

// VerifyUpload authenticates by an uploaded image file.
func (c *Client) VerifyUpload(ctx context.Context, username, fileName string, img capture.SingleImage) (session.User, error) {
	var resp authResponse
	err := c.doMultipart(ctx, "/auth/verify-upload",
		map[string]string{"username": normalizeUsername(username)},
		"image", fileName, img.Data, &resp, false)
	if err != nil {
		return session.User{}, mapVerifyError(err)
	}
	return c.establishSession(resp, normalizeUsername(username))
}

// VerifyCamera authenticates by a camera snapshot.
func (c *Client) VerifyCamera(ctx context.Context, username string, img capture.SingleImage) (session.User, error) {
	var resp authResponse
	err := c.doMultipart(ctx, "/auth/verify-camera",
		map[string]string{"username": normalizeUsername(username)},
		"camera_image", "camera_capture.jpg", img.Data, &resp, false)
	if err != nil {
		return session.User{}, mapVerifyError(err)
	}
	return c.establishSession(resp, normalizeUsername(username))
}

// CreateUser creates a new account. The request is validated client-side
// before anything goes on the wire.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (CreateUserResponse, error) {
	req.Username = normalizeUsername(req.Username)
	if err := c.validate.Struct(req); err != nil {
		return CreateUserResponse{}, err
	}
	var resp CreateUserResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/create-user", req, &resp, false); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return CreateUserResponse{}, wrap(ErrUserExists, apiErr)
		}
		return CreateUserResponse{}, err
	}
	return resp, nil
}

func formatFromMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	default:
		return "jpeg"
	}
}

func mapLoginError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return wrap(ErrRejected, apiErr)
	}
	return err
}

func mapVerifyError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusUnauthorized:
		return wrap(ErrRejected, apiErr)
	case http.StatusBadRequest:
		return wrap(ErrInvalidInput, apiErr)
	case http.StatusNotFound:
		return wrap(ErrUserNotFound, apiErr)
	}
	return err
}

func mapEnrollError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusConflict:
		return wrap(ErrAlreadyEnrolled, apiErr)
	case http.StatusBadRequest:
		return wrap(ErrFaceNotDetected, apiErr)
	case http.StatusNotFound:
		return wrap(ErrUserNotFound, apiErr)
	}
	return err
}
