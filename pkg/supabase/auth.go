package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

// OAuthProviders are the sign-in providers the app offers.
var OAuthProviders = []string{"google", "apple", "linkedin_oidc"}

// SignUp registers a user. Profile fields travel as user metadata, where a
// database trigger copies them into the users table.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", errors.ErrInvalidInput)
	}

	body := map[string]any{
		"email":    req.Email,
		"password": req.Password,
		"data": map[string]string{
			"full_name":   req.FullName,
			"designation": req.Designation,
			"bio":         req.Bio,
		},
	}

	// With email confirmation on, GoTrue answers with the bare user.
	var raw struct {
		Session
		User
	}
	if err := c.do(ctx, request{method: http.MethodPost, url: c.authURL + "/signup", body: body}, &raw); err != nil {
		return nil, err
	}
	session := raw.Session
	if session.User == nil && raw.User.ID != "" {
		u := raw.User
		session.User = &u
	}
	return &session, nil
}

// SignInWithPassword authenticates with email and password.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	var session Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.authURL + "/token?grant_type=password",
		body:   map[string]string{"email": email, "password": password},
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", errors.ErrInvalidInput)
	}
	var session Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.authURL + "/token?grant_type=refresh_token",
		body:   map[string]string{"refresh_token": refreshToken},
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{method: http.MethodPost, url: c.authURL + "/logout", token: accessToken}, nil)
}

// ResetPasswordForEmail sends a reset link that opens the app.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", errors.ErrInvalidInput)
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		url:    c.authURL + "/recover?redirect_to=" + url.QueryEscape(ResetPasswordRedirect),
		body:   map[string]string{"email": email},
	}, nil)
}

// UpdatePassword sets a new password for the signed-in user.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) (*User, error) {
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", errors.ErrInvalidInput)
	}
	var user User
	err := c.do(ctx, request{
		method: http.MethodPut,
		url:    c.authURL + "/user",
		body:   map[string]string{"password": password},
		token:  accessToken,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser returns the user owning accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, request{method: http.MethodGet, url: c.authURL + "/user", token: accessToken}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// OAuthURL is the authorize URL that starts an OAuth sign-in with provider.
func (c *Client) OAuthURL(provider string) (string, error) {
	known := false
	for _, p := range OAuthProviders {
		if p == provider {
			known = true
			break
		}
	}
	if !known {
		return "", fmt.Errorf("%w: unsupported provider %q", errors.ErrInvalidInput, provider)
	}
	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", OAuthRedirect)
	return c.authURL + "/authorize?" + q.Encode(), nil
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", errors.ErrInvalidInput)
	}
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", errors.ErrInvalidInput)
	}
	return nil
}
