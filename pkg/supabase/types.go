package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

// User is a Supabase auth user.
type User struct {
	ID               string         `json:"id"`
	Aud              string         `json:"aud,omitempty"`
	Role             string         `json:"role,omitempty"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
	AppMetadata      map[string]any `json:"app_metadata,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// MetadataString reads a string from the user metadata.
func (u User) MetadataString(key string) string {
	if v, ok := u.UserMetadata[key].(string); ok {
		return v
	}
	return ""
}

// Session is an auth session. Sign-up with email confirmation enabled
// returns a session with only User set.
type Session struct {
	AccessToken  string `json:"access_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// SignUpRequest registers a user with profile metadata.
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	Designation string `json:"designation,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// UserProfile is a row of the users table.
type UserProfile struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	FullName    string            `json:"full_name"`
	AvatarURL   string            `json:"avatar_url,omitempty"`
	Designation string            `json:"designation,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
	Visibility  string            `json:"visibility,omitempty"`
	LinkedInURL string            `json:"linkedin_url,omitempty"`
	GitHubURL   string            `json:"github_url,omitempty"`
	IsPremium   bool              `json:"is_premium"`
}

// cafeRow is a row of the cafes table.
type cafeRow struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      *string         `json:"description"`
	Address          string          `json:"address"`
	Latitude         float64         `json:"latitude"`
	Longitude        float64         `json:"longitude"`
	WifiSpeed        *int            `json:"wifi_speed"`
	NoiseLevel       string          `json:"noise_level"`
	SeatingCapacity  *int            `json:"seating_capacity"`
	Images           []string        `json:"images"`
	Amenities        []string        `json:"amenities"`
	OpeningHours     json.RawMessage `json:"opening_hours"`
	AverageRating    float64         `json:"average_rating"`
	CurrentOccupancy int             `json:"current_occupancy"`
	IsVerified       bool            `json:"is_verified"`
}

// Error is an error body returned by Supabase (GoTrue or PostgREST).
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the HTTP status onto the common sentinels so callers can use
// errors.Is without knowing about this type.
func (e *Error) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		return errors.ErrInvalidInput
	case e.StatusCode == http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return errors.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return errors.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return errors.ErrConflict
	case e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500:
		return errors.ErrUnavailable
	}
	return nil
}

func parseError(body []byte, statusCode int) error {
	var errResp struct {
		Code             any    `json:"code"`
		ErrorCode        string `json:"error_code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Details          string `json:"details"`
		Hint             string `json:"hint"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		return &Error{Code: "unknown", Message: string(body), StatusCode: statusCode}
	}

	msg := firstNonEmpty(errResp.Message, errResp.Msg, errResp.ErrorDescription, errResp.Error)
	code := errResp.ErrorCode
	if s, ok := errResp.Code.(string); ok && code == "" {
		code = s
	}
	return &Error{
		Code:       code,
		Message:    msg,
		Details:    errResp.Details,
		Hint:       errResp.Hint,
		StatusCode: statusCode,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
