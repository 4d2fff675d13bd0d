package opensubtitles

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login opens a user session. With empty credentials the client stays
// anonymous and no request is made.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if c == nil {
		return errors.New("opensubtitles: client is nil")
	}
	username = strings.TrimSpace(username)
	if username == "" && password == "" {
		c.logger.Debug("opensubtitles anonymous session")
		return nil
	}
	var resp loginResponse
	err := c.call(ctx, "login", http.MethodPost, c.baseURL.JoinPath("login"),
		loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return errors.New("opensubtitles: login response missing token")
	}
	c.setToken(resp.Token)
	c.logger.Debug("opensubtitles session opened")
	return nil
}

// Logout closes the user session when one is held.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil {
		return errors.New("opensubtitles: client is nil")
	}
	if c.token() == "" {
		return nil
	}
	err := c.call(ctx, "logout", http.MethodDelete, c.baseURL.JoinPath("logout"), nil, nil)
	c.setToken("")
	return err
}
