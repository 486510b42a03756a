package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/common/errors"
)

// Monday morning.
var testNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{URL: srv.URL + "/", AnonKey: "anon"}, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return c
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(Config{AnonKey: "anon"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = New(Config{URL: "https://x.supabase.co"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestSignInWithPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])

		_, _ = w.Write([]byte(`{"access_token":"tok","refresh_token":"ref","expires_in":3600,
			"user":{"id":"u1","email":"ada@example.com","user_metadata":{"full_name":"Ada"}}}`))
	})

	session, err := c.SignInWithPassword(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", session.AccessToken)
	require.NotNil(t, session.User)
	assert.Equal(t, "Ada", session.User.MetadataString("full_name"))
}

func TestSignInRejectsBadInputLocally(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.SignInWithPassword(context.Background(), "not-an-email", "secret1")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = c.SignInWithPassword(context.Background(), "ada@example.com", "123")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestSignInInvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "wrong-pass")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	var sbErr *Error
	require.ErrorAs(t, err, &sbErr)
	assert.Equal(t, "Invalid login credentials", sbErr.Message)
}

func TestSignUpWithoutSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		var body struct {
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body.Data["full_name"])
		assert.Equal(t, "Engineer", body.Data["designation"])
		_, _ = w.Write([]byte(`{"id":"u1","email":"ada@example.com"}`))
	})

	session, err := c.SignUp(context.Background(), SignUpRequest{
		Email: "ada@example.com", Password: "secret1", FullName: "Ada", Designation: "Engineer",
	})
	require.NoError(t, err)
	assert.Empty(t, session.AccessToken)
	require.NotNil(t, session.User)
	assert.Equal(t, "u1", session.User.ID)
}

func TestResetPasswordRedirect(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/recover", r.URL.Path)
		assert.Equal(t, ResetPasswordRedirect, r.URL.Query().Get("redirect_to"))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.ResetPasswordForEmail(context.Background(), "ada@example.com"))
}

func TestGetUserUsesAccessToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","email":"ada@example.com"}`))
	})

	user, err := c.GetUser(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = c.GetUser(context.Background(), "stale")
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
}

func TestOAuthURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	raw, err := c.OAuthURL("linkedin_oidc")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/authorize", u.Path)
	assert.Equal(t, "linkedin_oidc", u.Query().Get("provider"))
	assert.Equal(t, OAuthRedirect, u.Query().Get("redirect_to"))

	_, err = c.OAuthURL("myspace")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestCafes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/cafes", r.URL.Path)
		assert.Equal(t, "eq.true", r.URL.Query().Get("is_verified"))
		_, _ = w.Write([]byte(`[
			{"id":"c1","name":"Byte Brew","description":"Calm","wifi_speed":120,"noise_level":"quiet",
			 "images":["https://img/1.jpg"],"amenities":["Power_Outlets","meeting_room"],
			 "opening_hours":{"Monday":"07:00-22:00"},"average_rating":4.6,"current_occupancy":40,"is_verified":true},
			{"id":"c2","name":"Night Owl","noise_level":"lively",
			 "opening_hours":{"sunday":{"open":"20:00","close":"02:00"}},"is_verified":true}
		]`))
	})

	cafes, err := c.Cafes(context.Background())
	require.NoError(t, err)
	require.Len(t, cafes, 2)

	first := cafes[0]
	assert.Equal(t, 120, first.WifiSpeedMbps)
	assert.Equal(t, cafe.NoiseQuiet, first.NoiseLevel)
	assert.True(t, first.HasPowerOutlets)
	assert.True(t, first.HasBookableSpace)
	assert.True(t, first.IsOpen)
	assert.Equal(t, "https://img/1.jpg", first.ImageURL)
	assert.Equal(t, "Calm", first.Description)

	second := cafes[1]
	assert.Equal(t, cafe.NoiseLoud, second.NoiseLevel)
	assert.Equal(t, "20:00-02:00", second.OpeningHours["sunday"])
	assert.False(t, second.IsOpen)
	assert.False(t, second.HasPowerOutlets)
}

func TestGetProfileNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.u9", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`[]`))
	})
	_, err := c.GetProfile(context.Background(), "tok", "u9")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestUpsertProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Prefer"), "merge-duplicates")
		var p UserProfile
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		p.IsPremium = true
		_ = json.NewEncoder(w).Encode([]UserProfile{p})
	})

	out, err := c.UpsertProfile(context.Background(), "tok", UserProfile{ID: "u1", FullName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", out.FullName)
	assert.True(t, out.IsPremium)
}

func TestVerifier(t *testing.T) {
	v, err := NewVerifier("super-secret")
	require.NoError(t, err)
	v.now = func() time.Time { return testNow }

	token, err := v.Sign(&Claims{
		Email: "ada@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	claims, err := v.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, "ada@example.com", claims.Email)

	other, err := NewVerifier("other-secret")
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, errors.ErrUnauthorized)

	expired, err := v.Sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(testNow.Add(-time.Minute)),
	}})
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, errors.ErrUnauthorized)

	noExp, err := v.Sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}})
	require.NoError(t, err)
	_, err = v.Verify(noExp)
	assert.ErrorIs(t, err, errors.ErrUnauthorized)

	_, err = v.Verify("")
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
}
