// Package places is a small Google Places (legacy web service) client used
// to discover cafes beyond the curated dataset.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

	detailsCacheSize = 512
	maxBodyPreview   = 512
)

// detailFields is the field mask requested for place details.
var detailFields = []string{
	"place_id", "name", "formatted_address", "geometry", "photo", "rating",
	"user_ratings_total", "opening_hours", "formatted_phone_number",
	"website", "price_level", "type",
}

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Places web service.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPClient
	logger     *zap.Logger
	details    *expirable.LRU[string, Place]
	cacheTTL   time.Duration
	attempts   uint
	delay      time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the transport.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithCacheTTL sets how long place details are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// WithRetry sets the attempt count and base backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

// NewClient creates a Places client. An empty apiKey yields a client whose
// calls fail with ErrUnavailable.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     zap.NewNop(),
		cacheTTL:   15 * time.Minute,
		attempts:   3,
		delay:      500 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	c.details = expirable.NewLRU[string, Place](detailsCacheSize, nil, c.cacheTTL)
	return c
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(s string) (LatLng, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return LatLng{}, fmt.Errorf("%w: location %q is not lat,lng", errors.ErrInvalidInput, s)
	}
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	ln, err2 := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err1 != nil || err2 != nil || la < -90 || la > 90 || ln < -180 || ln > 180 {
		return LatLng{}, fmt.Errorf("%w: location %q is not lat,lng", errors.ErrInvalidInput, s)
	}
	return LatLng{Lat: la, Lng: ln}, nil
}

func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// Place is the subset of a Places result the app uses.
type Place struct {
	PlaceID              string        `json:"place_id"`
	Name                 string        `json:"name"`
	FormattedAddress     string        `json:"formatted_address,omitempty"`
	Vicinity             string        `json:"vicinity,omitempty"`
	Geometry             Geometry      `json:"geometry"`
	Rating               float64       `json:"rating,omitempty"`
	UserRatingsTotal     int           `json:"user_ratings_total,omitempty"`
	PriceLevel           *int          `json:"price_level,omitempty"`
	OpeningHours         *OpeningHours `json:"opening_hours,omitempty"`
	Photos               []Photo       `json:"photos,omitempty"`
	Types                []string      `json:"types,omitempty"`
	FormattedPhoneNumber string        `json:"formatted_phone_number,omitempty"`
	Website              string        `json:"website,omitempty"`
}

// Geometry holds a place's position.
type Geometry struct {
	Location LatLng `json:"location"`
}

// OpeningHours as reported by Places.
type OpeningHours struct {
	OpenNow     bool     `json:"open_now"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Photo is a reference usable with PhotoURL.
type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

type response struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []Place         `json:"results,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
}

// TextSearch finds cafes matching a free-text query, optionally biased
// towards near within radius meters.
func (c *Client) TextSearch(ctx context.Context, query string, near *LatLng, radius int) ([]Place, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", errors.ErrInvalidInput)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "cafe")
	if near != nil {
		params.Set("location", near.String())
		if radius > 0 {
			params.Set("radius", strconv.Itoa(radius))
		}
	}

	var resp response
	if err := c.get(ctx, "textsearch", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// NearbySearch lists cafes within radius meters of loc.
func (c *Client) NearbySearch(ctx context.Context, loc LatLng, radius int, keyword string) ([]Place, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", errors.ErrInvalidInput)
	}
	params := url.Values{}
	params.Set("location", loc.String())
	params.Set("radius", strconv.Itoa(radius))
	params.Set("type", "cafe")
	if keyword != "" {
		params.Set("keyword", keyword)
	}

	var resp response
	if err := c.get(ctx, "nearbysearch", params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Details fetches one place. Results are cached.
func (c *Client) Details(ctx context.Context, placeID string) (Place, error) {
	if placeID == "" {
		return Place{}, fmt.Errorf("%w: place id is required", errors.ErrInvalidInput)
	}
	if p, ok := c.details.Get(placeID); ok {
		return p, nil
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", strings.Join(detailFields, ","))

	var resp response
	if err := c.get(ctx, "details", params, &resp); err != nil {
		return Place{}, err
	}
	if len(resp.Result) == 0 {
		return Place{}, fmt.Errorf("place %s: %w", placeID, errors.ErrNotFound)
	}
	var p Place
	if err := json.Unmarshal(resp.Result, &p); err != nil {
		return Place{}, fmt.Errorf("failed to parse place details: %w", err)
	}
	c.details.Add(placeID, p)
	return p, nil
}

// PhotoURL builds the URL of a place photo. It performs no request.
func (c *Client) PhotoURL(photoReference string, maxWidth int) string {
	if photoReference == "" {
		return ""
	}
	if maxWidth <= 0 {
		maxWidth = 400
	}
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photo_reference", photoReference)
	params.Set("key", c.apiKey)
	return c.baseURL + "/photo?" + params.Encode()
}

// get calls endpoint and decodes the JSON envelope into out. Rate limiting,
// provider hiccups and 5xx responses are retried with backoff.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out *response) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: places API key not configured", errors.ErrUnavailable)
	}
	params.Set("key", c.apiKey)
	apiURL := c.baseURL + "/" + endpoint + "/json?" + params.Encode()

	var lastErr error
	err := retry.Do(
		func() error {
			lastErr = c.fetch(ctx, apiURL, out)
			if lastErr != nil && !isRetryable(lastErr) {
				return retry.Unrecoverable(lastErr)
			}
			return lastErr
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying places request",
				zap.String("endpoint", endpoint), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: places %s: %w", errors.ErrUnavailable, endpoint, ctxErr)
	}
	if lastErr == nil {
		lastErr = err
	}
	if isRetryable(lastErr) {
		return fmt.Errorf("%w: places %s: %w", errors.ErrUnavailable, endpoint, lastErr)
	}
	return lastErr
}

// retryableError marks failures worth another attempt.
type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var r retryableError
	return errors.As(err, &r)
}

func (c *Client) fetch(ctx context.Context, apiURL string, out *response) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retryableError{err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("failed to close response body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return retryableError{err}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return retryableError{fmt.Errorf("HTTP %d: %s", resp.StatusCode, preview(body))}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: places returned HTTP %d: %s", errors.ErrUnavailable, resp.StatusCode, preview(body))
	}

	*out = response{}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Debug("places JSON parse error", zap.String("body", preview(body)), zap.Error(err))
		return fmt.Errorf("%w: failed to parse places response: %v", errors.ErrUnavailable, err)
	}
	return statusError(out.Status, out.ErrorMessage)
}

// statusError maps a Places status string onto the common error sentinels.
func statusError(status, message string) error {
	detail := status
	if message != "" {
		detail += ": " + message
	}
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "INVALID_REQUEST":
		return fmt.Errorf("%w: %s", errors.ErrInvalidInput, detail)
	case "NOT_FOUND":
		return fmt.Errorf("%w: %s", errors.ErrNotFound, detail)
	case "REQUEST_DENIED":
		// The key is ours, not the caller's, so this is not a 401.
		return fmt.Errorf("%w: places: %s", errors.ErrUnavailable, detail)
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return retryableError{fmt.Errorf("places: %s", detail)}
	default:
		return fmt.Errorf("%w: places: %s", errors.ErrUnavailable, detail)
	}
}

func preview(body []byte) string {
	if len(body) > maxBodyPreview {
		return string(body[:maxBodyPreview])
	}
	return string(body)
}
