package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/config"
	"github.com/soshbru/soshbru/pkg/metrics"
	"github.com/soshbru/soshbru/pkg/service"
	"github.com/soshbru/soshbru/pkg/supabase"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*supabase.Claims, error)
}

// Server holds the state for the REST API server.
type Server struct {
	discovery *service.DiscoveryService
	social    *service.SocialService
	auth      *service.AuthService
	verifier  TokenVerifier
	metrics   *metrics.Metrics
	logger    *zap.Logger
	http      config.HTTPConfig
	router    *gin.Engine
}

// Option customizes a Server.
type Option func(*Server)

// WithSocial enables the profile, check-in, meetup and favorite routes.
// They need a verifier as well.
func WithSocial(social *service.SocialService, verifier TokenVerifier) Option {
	return func(s *Server) {
		s.social = social
		s.verifier = verifier
	}
}

// WithAuth enables the /v1/auth routes.
func WithAuth(auth *service.AuthService) Option {
	return func(s *Server) { s.auth = auth }
}

// WithMetrics exposes /metrics and instruments every route.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithHTTPConfig sets rate limiting and CORS.
func WithHTTPConfig(cfg config.HTTPConfig) Option {
	return func(s *Server) { s.http = cfg }
}

// NewServer creates a new Server instance.
func NewServer(discovery *service.DiscoveryService, opts ...Option) *Server {
	s := &Server{
		discovery: discovery,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog(s.logger), s.metrics.Middleware(), cors(s.http.CORSOrigins))
	if s.http.RateLimit > 0 {
		r.Use(newClientLimiter(s.http.RateLimit, s.http.RateBurst).middleware())
	}
	s.router = r
	s.setupRoutes()
	return s
}

// Handler returns the router, for embedding in an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/v1")
	v1.GET("/filters", s.handleFilters)
	v1.GET("/cafes", s.handleCafes)
	v1.GET("/cafes/:id", s.optionalAuth(), s.handleCafe)
	v1.GET("/suggest", s.handleSuggest)

	sessions := v1.Group("/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("/:id", s.handleGetSession)
	sessions.DELETE("/:id", s.handleDeleteSession)
	sessions.POST("/:id/toggle", s.handleToggle)
	sessions.PUT("/:id/query", s.handleSetQuery)
	sessions.PUT("/:id/mode", s.handleSetMode)
	sessions.POST("/:id/reset", s.handleResetSession)
	sessions.GET("/:id/cafes", s.handleSessionCafes)
	sessions.GET("/:id/remote", s.handleSessionRemote)

	v1.GET("/places/search", s.handlePlacesSearch)
	v1.GET("/places/nearby", s.handlePlacesNearby)
	v1.GET("/places/:placeId", s.handlePlace)

	if s.auth != nil {
		auth := v1.Group("/auth")
		auth.POST("/signup", s.handleSignUp)
		auth.POST("/login", s.handleLogin)
		auth.POST("/refresh", s.handleRefresh)
		auth.POST("/reset", s.handleResetPassword)
		auth.GET("/oauth/:provider", s.handleOAuth)
		auth.POST("/logout", s.requireAuth(), s.handleLogout)
		auth.PUT("/password", s.requireAuth(), s.handleUpdatePassword)
	}

	if s.social != nil && s.verifier != nil {
		v1.GET("/cafes/:id/professionals", s.handleProfessionals)

		me := v1.Group("", s.requireAuth())
		me.GET("/me", s.handleMe)
		me.PUT("/me", s.handleUpdateMe)
		me.GET("/checkins/active", s.handleActiveCheckIn)
		me.POST("/checkins", s.handleCheckIn)
		me.POST("/checkins/checkout", s.handleCheckOut)
		me.GET("/meetups", s.handleMeetups)
		me.POST("/meetups", s.handleSendMeetup)
		me.POST("/meetups/:id/respond", s.handleRespondMeetup)
		me.GET("/favorites", s.handleFavorites)
		me.POST("/favorites/:cafeId", s.handleAddFavorite)
		me.DELETE("/favorites/:cafeId", s.handleRemoveFavorite)
	}
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
