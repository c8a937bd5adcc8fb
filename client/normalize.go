package client

import (
	"errors"
	"fmt"

	"github.com/analuiza2102/bioaccess/session"
)

// errNoToken marks a success response that carried no usable token.
var errNoToken = errors.New("authentication response carried no token")

// normalizeAuth maps any accepted wire shape of an authentication success
// into one canonical session-update record. The authority variously fills
// `token` or `access_token` and may omit `username`; that tolerance lives
// here and nowhere else.
func normalizeAuth(r authResponse, fallbackUsername string) (string, session.User, error) {
	token := r.Token
	if token == "" {
		token = r.AccessToken
	}
	if token == "" {
		return "", session.User{}, errNoToken
	}

	username := r.Username
	if username == "" {
		username = fallbackUsername
	}
	user := session.User{
		Username:  username,
		Role:      session.Role(r.Role),
		Clearance: r.Clearance,
	}
	if user.Username == "" {
		return "", session.User{}, errors.New("authentication response carried no username")
	}
	if user.Clearance < 1 || user.Clearance > 3 {
		return "", session.User{}, fmt.Errorf("authentication response carried clearance %d", user.Clearance)
	}
	return token, user, nil
}

// establishSession applies a normalized authentication result to the session
// store, when one is wired.
func (c *Client) establishSession(r authResponse, fallbackUsername string) (session.User, error) {
	token, user, err := normalizeAuth(r, fallbackUsername)
	if err != nil {
		return session.User{}, err
	}
	if c.sessions != nil {
		if err := c.sessions.Login(token, user); err != nil {
			return session.User{}, err
		}
	}
	return user, nil
}
