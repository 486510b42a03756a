package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/supabase"
)

// Authenticator is the Supabase auth surface the service uses.
type Authenticator interface {
	SignUp(ctx context.Context, req supabase.SignUpRequest) (*supabase.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, accessToken, password string) (*supabase.User, error)
	OAuthURL(provider string) (string, error)
}

// AuthService signs users in through Supabase and keeps the local profile
// in step with the auth user.
type AuthService struct {
	auth   Authenticator
	social *SocialService
	logger *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(auth Authenticator, social *SocialService, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{auth: auth, social: social, logger: logger}
}

// SignUp registers a user and creates their profile.
func (s *AuthService) SignUp(ctx context.Context, req supabase.SignUpRequest) (*supabase.Session, error) {
	session, err := s.auth.SignUp(ctx, req)
	if err != nil {
		return nil, err
	}
	if session.User != nil {
		_, err := s.social.EnsureProfile(session.User.ID, req.Email, req.FullName)
		if err != nil {
			return nil, err
		}
		designation, bio := req.Designation, req.Bio
		if _, err := s.social.UpdateProfile(session.User.ID, ProfileUpdate{Designation: &designation, Bio: &bio}); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// SignIn signs a user in with email and password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*supabase.Session, error) {
	session, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.syncProfile(session)
	return session, nil
}

// Refresh exchanges a refresh token for a new session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*supabase.Session, error) {
	return s.auth.RefreshSession(ctx, refreshToken)
}

// SignOut revokes the session behind accessToken.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	return s.auth.SignOut(ctx, accessToken)
}

// ResetPassword sends a password reset email.
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	return s.auth.ResetPasswordForEmail(ctx, email)
}

// UpdatePassword sets a new password for the signed-in user.
func (s *AuthService) UpdatePassword(ctx context.Context, accessToken, password string) (*supabase.User, error) {
	return s.auth.UpdatePassword(ctx, accessToken, password)
}

// OAuthURL returns the URL that starts an OAuth sign-in.
func (s *AuthService) OAuthURL(provider string) (string, error) {
	return s.auth.OAuthURL(provider)
}

// syncProfile makes sure a signed-in user has a local profile. Failures are
// logged; sign-in still succeeds.
func (s *AuthService) syncProfile(session *supabase.Session) {
	if session.User == nil {
		return
	}
	u := session.User
	if _, err := s.social.EnsureProfile(u.ID, u.Email, u.MetadataString("full_name")); err != nil {
		s.logger.Warn("failed to sync profile", zap.String("user", u.ID), zap.Error(err))
	}
}
