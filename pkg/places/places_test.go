package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/common/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c := NewClient("test-key", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	return c, &calls
}

func TestTextSearch(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		assert.Equal(t, "quiet coffee", r.URL.Query().Get("query"))
		assert.Equal(t, "cafe", r.URL.Query().Get("type"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "37.77,-122.41", r.URL.Query().Get("location"))
		_, _ = w.Write([]byte(`{"status":"OK","results":[
			{"place_id":"abc","name":"Bean There","rating":4.2,"user_ratings_total":31,"price_level":1,
			 "geometry":{"location":{"lat":37.78,"lng":-122.41}},"opening_hours":{"open_now":true}}
		]}`))
	})

	places, err := c.TextSearch(context.Background(), "quiet coffee", &LatLng{Lat: 37.77, Lng: -122.41}, 1000)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Bean There", places[0].Name)
	require.NotNil(t, places[0].PriceLevel)
	assert.Equal(t, 1, *places[0].PriceLevel)
}

func TestZeroResults(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})
	places, err := c.NearbySearch(context.Background(), LatLng{Lat: 1, Lng: 2}, 500, "")
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestRetriesThenSucceeds(t *testing.T) {
	var n int32
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"place_id":"x","name":"X"}]}`))
	})

	places, err := c.NearbySearch(context.Background(), LatLng{Lat: 1, Lng: 2}, 500, "wifi")
	require.NoError(t, err)
	assert.Len(t, places, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestRetriesExhausted(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT"}`))
	})

	_, err := c.TextSearch(context.Background(), "coffee", nil, 0)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestDeadlineKeepsCause(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.TextSearch(ctx, "coffee", nil, 0)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNonRetryableStatus(t *testing.T) {
	tests := []struct {
		status string
		want   error
	}{
		{"INVALID_REQUEST", errors.ErrInvalidInput},
		{"NOT_FOUND", errors.ErrNotFound},
		{"REQUEST_DENIED", errors.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"` + tt.status + `","error_message":"nope"}`))
			})
			_, err := c.Details(context.Background(), "p1")
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope")
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestDetailsCached(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("fields"), "formatted_phone_number")
		_, _ = w.Write([]byte(`{"status":"OK","result":{"place_id":"p1","name":"Tech Hub",
			"website":"https://techhub.example","formatted_phone_number":"555-0100",
			"opening_hours":{"open_now":false,"weekday_text":["Monday: 7:00 AM – 6:00 PM"]}}}`))
	})

	p, err := c.Details(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Tech Hub", p.Name)

	p, err = c.Details(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", p.FormattedPhoneNumber)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestMissingKey(t *testing.T) {
	c := NewClient("")
	_, err := c.TextSearch(context.Background(), "coffee", nil, 0)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}

func TestInputValidation(t *testing.T) {
	c := NewClient("k")
	_, err := c.TextSearch(context.Background(), "  ", nil, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = c.NearbySearch(context.Background(), LatLng{}, 0, "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = c.Details(context.Background(), "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestPhotoURL(t *testing.T) {
	c := NewClient("k", WithBaseURL("https://example.test/place/"))
	u := c.PhotoURL("ref123", 0)
	assert.True(t, strings.HasPrefix(u, "https://example.test/place/photo?"))
	assert.Contains(t, u, "maxwidth=400")
	assert.Contains(t, u, "photo_reference=ref123")
	assert.Empty(t, c.PhotoURL("", 100))
}

func TestParseLatLng(t *testing.T) {
	ll, err := ParseLatLng("37.77, -122.41")
	require.NoError(t, err)
	assert.Equal(t, LatLng{Lat: 37.77, Lng: -122.41}, ll)

	for _, bad := range []string{"", "37.7", "a,b", "91,0", "0,181"} {
		_, err := ParseLatLng(bad)
		assert.ErrorIs(t, err, errors.ErrInvalidInput, bad)
	}
}

func TestToCafe(t *testing.T) {
	level := 3
	p := Place{
		PlaceID:          "abc",
		Name:             "Bean There",
		Rating:           4.4,
		UserRatingsTotal: 12,
		PriceLevel:       &level,
		Vicinity:         "1 Main St",
		Geometry:         Geometry{Location: LatLng{Lat: 37.7749, Lng: -122.4194}},
		OpeningHours:     &OpeningHours{OpenNow: true, WeekdayText: []string{"Monday: 7:00 AM – 6:00 PM"}},
		Types:            []string{"cafe", "point_of_interest", "food"},
	}
	origin := LatLng{Lat: 37.7749, Lng: -122.4094}

	c := ToCafe(p, &origin)
	assert.Equal(t, "place:abc", c.ID)
	assert.Equal(t, cafe.PricePremium, c.PriceLevel)
	assert.Equal(t, cafe.NoiseModerate, c.NoiseLevel)
	assert.True(t, c.IsOpen)
	assert.Equal(t, "1 Main St", c.Address)
	assert.Equal(t, "cafe, food", c.Description)
	assert.Equal(t, "7:00 AM – 6:00 PM", c.OpeningHours["monday"])
	assert.Equal(t, "0.5 mi", c.Distance)
	assert.NoError(t, c.Validate())

	c = ToCafe(Place{PlaceID: "z", Name: "Z"}, nil)
	assert.Equal(t, cafe.PriceModerate, c.PriceLevel)
	assert.Empty(t, c.Distance)
}
