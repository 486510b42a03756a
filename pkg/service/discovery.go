package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/soshbru/soshbru/internal/manager"
	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/common/errors"
	"github.com/soshbru/soshbru/pkg/filter"
	"github.com/soshbru/soshbru/pkg/metrics"
	"github.com/soshbru/soshbru/pkg/places"
)

const (
	DefaultRemoteTimeout = 8 * time.Second
	placeIDPrefix        = "place:"
	photoWidth           = 800
)

// PlaceSearcher is the part of the Places client the service needs.
type PlaceSearcher interface {
	TextSearch(ctx context.Context, query string, near *places.LatLng, radius int) ([]places.Place, error)
	NearbySearch(ctx context.Context, loc places.LatLng, radius int, keyword string) ([]places.Place, error)
	Details(ctx context.Context, placeID string) (places.Place, error)
	PhotoURL(photoReference string, maxWidth int) string
}

// SearchRequest is a one-shot local search.
type SearchRequest struct {
	Query   string
	Filters []string
	Mode    string
}

// SearchResult is the outcome of a local search.
type SearchResult struct {
	Query   string            `json:"query"`
	Filters []string          `json:"filters"`
	Mode    filter.Mode       `json:"mode"`
	Cafes   []cafe.Cafe       `json:"cafes"`
	Total   int               `json:"total"`
	Counts  map[filter.ID]int `json:"counts"`
	Ignored []string          `json:"ignored,omitempty"`
}

// FilterOption is a catalog entry with the number of cafes it would keep.
type FilterOption struct {
	filter.Option
	Count int `json:"count"`
}

// CafeDetail is a cafe together with its live social context.
type CafeDetail struct {
	Cafe          cafe.Cafe `json:"cafe"`
	Professionals []Member  `json:"professionals"`
	OnSite        int       `json:"onSite"`
	Favorite      bool      `json:"favorite"`
}

// RemoteResult is the outcome of a remote search on a session. Degraded
// results are empty and carry a hint for the client.
type RemoteResult struct {
	SessionID  string      `json:"sessionId"`
	Query      string      `json:"query"`
	Cafes      []cafe.Cafe `json:"cafes"`
	Total      int         `json:"total"`
	Degraded   bool        `json:"degraded"`
	Hint       string      `json:"hint,omitempty"`
	Generation uint64      `json:"generation"`
}

// ToggleResult reports a filter toggle on a session.
type ToggleResult struct {
	Session    manager.Session `json:"session"`
	Changed    bool            `json:"changed"`
	Suggestion *filter.Option  `json:"suggestion,omitempty"`
}

// DiscoveryService answers cafe searches over a cafe source and keeps the
// browsing sessions.
type DiscoveryService struct {
	source        cafe.Source
	sessions      *manager.SessionManager
	places        PlaceSearcher
	social        *SocialService
	metrics       *metrics.Metrics
	logger        *zap.Logger
	origin        *places.LatLng
	radius        int
	remoteTimeout time.Duration
}

// DiscoveryOption customizes a DiscoveryService.
type DiscoveryOption func(*DiscoveryService)

// WithPlaces enables remote search. origin biases results and is used to
// compute distances.
func WithPlaces(p PlaceSearcher, origin *places.LatLng, radius int) DiscoveryOption {
	return func(s *DiscoveryService) {
		s.places = p
		s.origin = origin
		s.radius = radius
	}
}

// WithSocial adds on-site professionals and favorites to cafe details.
func WithSocial(social *SocialService) DiscoveryOption {
	return func(s *DiscoveryService) { s.social = social }
}

// WithMetrics records search metrics.
func WithMetrics(m *metrics.Metrics) DiscoveryOption {
	return func(s *DiscoveryService) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) DiscoveryOption {
	return func(s *DiscoveryService) { s.logger = l }
}

// WithRemoteTimeout bounds each remote search.
func WithRemoteTimeout(d time.Duration) DiscoveryOption {
	return func(s *DiscoveryService) { s.remoteTimeout = d }
}

// NewDiscoveryService creates a new DiscoveryService.
func NewDiscoveryService(source cafe.Source, sessions *manager.SessionManager, opts ...DiscoveryOption) *DiscoveryService {
	s := &DiscoveryService{
		source:        source,
		sessions:      sessions,
		logger:        zap.NewNop(),
		remoteTimeout: DefaultRemoteTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Filters returns the catalog with per-filter counts for query.
func (s *DiscoveryService) Filters(ctx context.Context, query string) ([]FilterOption, error) {
	cafes, err := s.source.Cafes(ctx)
	if err != nil {
		return nil, err
	}
	counts := filter.Counts(cafes, query)
	catalog := filter.Catalog()
	out := make([]FilterOption, len(catalog))
	for i, o := range catalog {
		out[i] = FilterOption{Option: o, Count: counts[o.ID]}
	}
	return out, nil
}

// Search runs a one-shot search. Unknown filter ids are ignored and
// reported back; an unknown mode is invalid input.
func (s *DiscoveryService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	mode, ok := filter.ParseMode(req.Mode)
	if !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", errors.ErrInvalidInput, req.Mode)
	}
	cafes, err := s.source.Cafes(ctx)
	if err != nil {
		return nil, err
	}

	sel := filter.Initialize(req.Filters)
	res := s.evaluate(cafes, req.Query, sel, mode)
	for _, raw := range req.Filters {
		if _, ok := filter.Lookup(raw); !ok {
			res.Ignored = append(res.Ignored, raw)
		}
	}
	return res, nil
}

func (s *DiscoveryService) evaluate(cafes []cafe.Cafe, query string, sel filter.Selection, mode filter.Mode) *SearchResult {
	matched := filter.ApplyMode(cafes, query, sel, mode)
	s.metrics.RecordSearch(string(mode), len(matched))
	return &SearchResult{
		Query:   query,
		Filters: sel.Strings(),
		Mode:    mode,
		Cafes:   matched,
		Total:   len(matched),
		Counts:  filter.Counts(cafes, query),
	}
}

// Cafe returns one cafe with its social context. Ids with the "place:"
// prefix are resolved through Places. userID may be empty.
func (s *DiscoveryService) Cafe(ctx context.Context, id, userID string) (*CafeDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: cafe id is required", errors.ErrInvalidInput)
	}

	detail := &CafeDetail{Professionals: []Member{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := s.lookup(gctx, id)
		if err != nil {
			return err
		}
		detail.Cafe = c
		return nil
	})

	if s.social != nil {
		g.Go(func() error {
			members, err := s.social.Professionals(gctx, id)
			if err != nil {
				return err
			}
			detail.Professionals = members
			return nil
		})
		if userID != "" {
			g.Go(func() error {
				fav, err := s.social.IsFavorite(userID, id)
				if err != nil {
					return err
				}
				detail.Favorite = fav
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	detail.OnSite = len(detail.Professionals)
	if detail.OnSite > detail.Cafe.OnSiteProfessionals {
		detail.Cafe.OnSiteProfessionals = detail.OnSite
	}
	return detail, nil
}

func (s *DiscoveryService) lookup(ctx context.Context, id string) (cafe.Cafe, error) {
	if placeID, ok := strings.CutPrefix(id, placeIDPrefix); ok {
		if s.places == nil {
			return cafe.Cafe{}, fmt.Errorf("%w: remote search is not configured", errors.ErrUnavailable)
		}
		p, err := s.places.Details(ctx, placeID)
		if err != nil {
			return cafe.Cafe{}, err
		}
		return s.toCafe(p, s.origin), nil
	}
	cafes, err := s.source.Cafes(ctx)
	if err != nil {
		return cafe.Cafe{}, err
	}
	return cafe.Find(cafes, id)
}

// Suggest returns cafes whose names resemble query.
func (s *DiscoveryService) Suggest(ctx context.Context, query string, limit int) ([]filter.Suggestion, error) {
	if strings.TrimSpace(query) == "" {
		return []filter.Suggestion{}, nil
	}
	cafes, err := s.source.Cafes(ctx)
	if err != nil {
		return nil, err
	}
	return filter.SuggestCafes(query, cafes, limit), nil
}

// CreateSession starts a browsing session.
func (s *DiscoveryService) CreateSession(filters []string, mode string) (manager.Session, error) {
	m, ok := filter.ParseMode(mode)
	if !ok {
		return manager.Session{}, fmt.Errorf("%w: unknown mode %q", errors.ErrInvalidInput, mode)
	}
	return s.sessions.Create(filters, m), nil
}

// Session returns the current state of a session.
func (s *DiscoveryService) Session(id string) (manager.Session, error) {
	return s.sessions.Get(id)
}

// DeleteSession ends a session.
func (s *DiscoveryService) DeleteSession(id string) {
	s.sessions.Delete(id)
}

// ToggleFilter flips one filter on a session. An unknown id leaves the
// session unchanged and comes back with the closest catalog entry, if any.
func (s *DiscoveryService) ToggleFilter(sessionID, raw string) (*ToggleResult, error) {
	var changed bool
	sess, err := s.sessions.Update(sessionID, func(sess *manager.Session) error {
		sess.Selection, changed = sess.Selection.Toggle(raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordToggle(raw, changed)

	res := &ToggleResult{Session: sess, Changed: changed}
	if !changed {
		s.logger.Debug("ignoring unknown filter", zap.String("session", sessionID), zap.String("filter", raw))
		if opt, ok := filter.SuggestFilter(raw); ok {
			res.Suggestion = &opt
		}
	}
	return res, nil
}

// SetQuery replaces the search text of a session.
func (s *DiscoveryService) SetQuery(sessionID, query string) (manager.Session, error) {
	return s.sessions.Update(sessionID, func(sess *manager.Session) error {
		sess.Query = query
		return nil
	})
}

// SetMode switches how the session combines filters.
func (s *DiscoveryService) SetMode(sessionID, mode string) (manager.Session, error) {
	m, ok := filter.ParseMode(mode)
	if !ok {
		return manager.Session{}, fmt.Errorf("%w: unknown mode %q", errors.ErrInvalidInput, mode)
	}
	return s.sessions.Update(sessionID, func(sess *manager.Session) error {
		sess.Mode = m
		return nil
	})
}

// ResetSession clears the query and selects All.
func (s *DiscoveryService) ResetSession(sessionID string) (manager.Session, error) {
	return s.sessions.Update(sessionID, func(sess *manager.Session) error {
		sess.Query = ""
		sess.Selection = filter.Selection{}
		return nil
	})
}

// SessionResults evaluates the session's query and selection.
func (s *DiscoveryService) SessionResults(ctx context.Context, sessionID string) (*SearchResult, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	cafes, err := s.source.Cafes(ctx)
	if err != nil {
		return nil, err
	}
	return s.evaluate(cafes, sess.Query, sess.Selection, sess.Mode), nil
}

// SearchRemote searches Places for query on behalf of a session. Only the
// latest request of a session may publish its results: a response that
// arrives after a newer request began fails with manager.ErrStale. Provider
// failures do not fail the call; they produce an empty degraded result.
func (s *DiscoveryService) SearchRemote(ctx context.Context, sessionID, query string) (*RemoteResult, error) {
	if s.places == nil {
		return nil, fmt.Errorf("%w: remote search is not configured", errors.ErrUnavailable)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", errors.ErrInvalidInput)
	}

	ticket, err := s.sessions.Begin(sessionID)
	if err != nil {
		return nil, err
	}

	rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()

	res := &RemoteResult{SessionID: sessionID, Query: query, Cafes: []cafe.Cafe{}, Generation: ticket.Generation}
	found, err := s.places.TextSearch(rctx, query, s.origin, s.radius)
	if err != nil {
		s.logger.Warn("remote search failed",
			zap.String("session", sessionID), zap.String("query", query), zap.Error(err))
		res.Degraded = true
		res.Hint = degradedHint(err)
	} else {
		converted := make([]cafe.Cafe, len(found))
		for i, p := range found {
			converted[i] = s.toCafe(p, s.origin)
		}
		res.Cafes = converted
	}

	sess, err := s.sessions.Commit(ticket, func(sess *manager.Session) {
		sess.RemoteQuery = query
		sess.Remote = cafe.CloneAll(res.Cafes)
	})
	if err != nil {
		if errors.Is(err, manager.ErrStale) {
			s.metrics.RecordRemote(metrics.RemoteStale)
		}
		return nil, err
	}

	// The session's filters apply to remote results as well; the text was
	// already matched by the provider.
	res.Cafes = filter.ApplyMode(res.Cafes, "", sess.Selection, sess.Mode)
	res.Total = len(res.Cafes)
	if res.Degraded {
		s.metrics.RecordRemote(metrics.RemoteDegraded)
	} else {
		s.metrics.RecordRemote(metrics.RemoteOK)
	}
	return res, nil
}

func degradedHint(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Remote search timed out. Pull to retry."
	case errors.Is(err, errors.ErrInvalidInput):
		return "Try a different search."
	default:
		return "Remote search is unavailable right now. Try again shortly."
	}
}

// SearchPlaces is a stateless remote search.
func (s *DiscoveryService) SearchPlaces(ctx context.Context, query string, near *places.LatLng) ([]cafe.Cafe, error) {
	if s.places == nil {
		return nil, fmt.Errorf("%w: remote search is not configured", errors.ErrUnavailable)
	}
	if near == nil {
		near = s.origin
	}
	found, err := s.places.TextSearch(ctx, query, near, s.radius)
	if err != nil {
		return nil, err
	}
	out := make([]cafe.Cafe, len(found))
	for i, p := range found {
		out[i] = s.toCafe(p, near)
	}
	return out, nil
}

// NearbyPlaces lists Places cafes around near, or around the configured
// origin. radius <= 0 uses the configured radius.
func (s *DiscoveryService) NearbyPlaces(ctx context.Context, near *places.LatLng, radius int, keyword string) ([]cafe.Cafe, error) {
	if s.places == nil {
		return nil, fmt.Errorf("%w: remote search is not configured", errors.ErrUnavailable)
	}
	if near == nil {
		near = s.origin
	}
	if near == nil {
		return nil, fmt.Errorf("%w: location is required", errors.ErrInvalidInput)
	}
	if radius <= 0 {
		radius = s.radius
	}
	found, err := s.places.NearbySearch(ctx, *near, radius, keyword)
	if err != nil {
		return nil, err
	}
	out := make([]cafe.Cafe, len(found))
	for i, p := range found {
		out[i] = s.toCafe(p, near)
	}
	return out, nil
}

// toCafe converts a place and points ImageURL at its first photo.
func (s *DiscoveryService) toCafe(p places.Place, origin *places.LatLng) cafe.Cafe {
	c := places.ToCafe(p, origin)
	if len(p.Photos) > 0 {
		c.ImageURL = s.places.PhotoURL(p.Photos[0].PhotoReference, photoWidth)
	}
	return c
}
