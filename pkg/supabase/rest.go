package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/common/errors"
)

const cafeColumns = "id,name,description,address,latitude,longitude,wifi_speed,noise_level," +
	"seating_capacity,images,amenities,opening_hours,average_rating,current_occupancy,is_verified"

// Cafes lists verified rows of the cafes table as cafe records. It makes
// the client a cafe.Source.
func (c *Client) Cafes(ctx context.Context) ([]cafe.Cafe, error) {
	q := url.Values{}
	q.Set("select", cafeColumns)
	q.Set("is_verified", "eq.true")
	q.Set("order", "name.asc")

	var rows []cafeRow
	if err := c.do(ctx, request{method: http.MethodGet, url: c.restURL + "/cafes?" + q.Encode()}, &rows); err != nil {
		return nil, fmt.Errorf("list cafes: %w", err)
	}

	now := c.now()
	out := make([]cafe.Cafe, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCafe(now))
	}
	return out, nil
}

// GetProfile reads one row of the users table.
func (c *Client) GetProfile(ctx context.Context, accessToken, userID string) (*UserProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", errors.ErrInvalidInput)
	}
	q := url.Values{}
	q.Set("id", "eq."+userID)
	q.Set("select", "*")

	var rows []UserProfile
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.restURL + "/users?" + q.Encode(),
		token:  accessToken,
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("profile %s: %w", userID, errors.ErrNotFound)
	}
	return &rows[0], nil
}

// UpsertProfile writes p to the users table and returns the stored row.
func (c *Client) UpsertProfile(ctx context.Context, accessToken string, p UserProfile) (*UserProfile, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("%w: user id is required", errors.ErrInvalidInput)
	}
	var rows []UserProfile
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.restURL + "/users?on_conflict=id",
		body:   p,
		token:  accessToken,
		headers: map[string]string{
			"Prefer": "resolution=merge-duplicates,return=representation",
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &p, nil
	}
	return &rows[0], nil
}

func (r cafeRow) toCafe(now time.Time) cafe.Cafe {
	c := cafe.Cafe{
		ID:               r.ID,
		Name:             r.Name,
		Rating:           r.AverageRating,
		PriceLevel:       cafe.PriceModerate,
		CurrentOccupancy: r.CurrentOccupancy,
		Address:          r.Address,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		OpeningHours:     decodeHours(r.OpeningHours),
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.WifiSpeed != nil {
		c.WifiSpeedMbps = *r.WifiSpeed
	}
	if level, ok := cafe.ParseNoiseLevel(r.NoiseLevel); ok {
		c.NoiseLevel = level
	} else {
		c.NoiseLevel = cafe.NoiseModerate
	}
	if len(r.Images) > 0 {
		c.ImageURL = r.Images[0]
	}
	c.HasPowerOutlets = hasAmenity(r.Amenities, "power_outlets", "power", "outlets")
	c.HasBookableSpace = hasAmenity(r.Amenities, "meeting_room", "bookable_space", "meeting_space")
	c.IsOpen = cafe.OpenAt(c.OpeningHours, now)
	return c
}

func hasAmenity(amenities []string, names ...string) bool {
	return slices.ContainsFunc(amenities, func(a string) bool {
		a = strings.ToLower(strings.TrimSpace(a))
		return slices.Contains(names, a)
	})
}

// decodeHours accepts either {"monday": "07:00-22:00"} or
// {"monday": {"open": "07:00", "close": "22:00"}}.
func decodeHours(raw json.RawMessage) map[string]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err == nil {
		return lowerKeys(flat)
	}

	var nested map[string]struct {
		Open  string `json:"open"`
		Close string `json:"close"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil
	}
	flat = make(map[string]string, len(nested))
	for day, span := range nested {
		if span.Open == "" || span.Close == "" {
			continue
		}
		flat[day] = span.Open + "-" + span.Close
	}
	return lowerKeys(flat)
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
