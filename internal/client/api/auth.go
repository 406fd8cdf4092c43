package api

import (
	"context"
	"net/http"
	"time"
)

// User is the client-side view of an account.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	AvatarKey   string    `json:"avatarKey"`
	Language    int       `json:"language"`
	HasPassword bool      `json:"hasPassword"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type sessionResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Signup creates an account and installs the returned token pair.
func (c *Client) Signup(ctx context.Context, email, password, username string) (*User, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"password": password,
		"username": username,
	}, &resp, false)
	if err != nil {
		return nil, err
	}
	c.SetTokens(resp.AccessToken, resp.RefreshToken)
	return resp.User, nil
}

// Login authenticates and installs the returned token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp, false)
	if err != nil {
		return nil, err
	}
	c.SetTokens(resp.AccessToken, resp.RefreshToken)
	return resp.User, nil
}

// Logout discards the local session. The server call is best effort: local
// tokens are dropped whether or not it succeeds.
func (c *Client) Logout(ctx context.Context) {
	_, refresh := c.Tokens()
	_ = c.do(ctx, http.MethodPost, "/api/auth/logout",
		map[string]string{"refreshToken": refresh}, nil, false)
	c.clearTokens()
}

type userResponse struct {
	User *User `json:"user"`
}

// ChangeUsername renames the account identified by userID.
func (c *Client) ChangeUsername(ctx context.Context, userID, username string) (*User, error) {
	var resp userResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/modify/username", map[string]any{
		"userId":   userID,
		"username": username,
	}, &resp, true)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ChangePassword sets a new password.
func (c *Client) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (*User, error) {
	var resp userResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/modify/password", map[string]any{
		"userId":          userID,
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, &resp, true)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ChangeLanguage sets the summary language preference.
func (c *Client) ChangeLanguage(ctx context.Context, userID string, language int) (*User, error) {
	var resp userResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/modify/language", map[string]any{
		"userId":   userID,
		"language": language,
	}, &resp, true)
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}
