package server

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/soshbru/soshbru/pkg/common/errors"
	"github.com/soshbru/soshbru/pkg/supabase"
)

const (
	claimsKey         = "claims"
	tokenKey          = "token"
	maxTrackedClients = 10000
)

// accessLog logs one line per request.
func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

// cors answers preflights and sets the allow headers for permitted origins.
// "*" allows any origin.
func cors(origins []string) gin.HandlerFunc {
	anyOrigin := slices.Contains(origins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (anyOrigin || slices.Contains(origins, origin)) {
			h := c.Writer.Header()
			if anyOrigin {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// clientLimiter keeps a token bucket per client IP. The least recently seen
// clients are forgotten first.
type clientLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *lru.Cache[string, *rate.Limiter]
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if burst <= 0 {
		burst = max(1, int(perSecond))
	}
	buckets, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	return &clientLimiter{limit: rate.Limit(perSecond), burst: burst, buckets: buckets}
}

func (l *clientLimiter) allow(client string) bool {
	lim, ok := l.buckets.Get(client)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		if prev, found, _ := l.buckets.PeekOrAdd(client, lim); found {
			lim = prev
		}
	}
	return lim.Allow()
}

func (l *clientLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// requireAuth rejects requests without a valid bearer token.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.verifier == nil {
			handleError(c, errors.NewAppError(http.StatusServiceUnavailable, "Authentication is not configured", nil))
			c.Abort()
			return
		}
		token := bearerToken(c)
		claims, err := s.verifier.Verify(token)
		if err != nil {
			handleError(c, err)
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// optionalAuth records the caller when a valid token is present and
// otherwise lets the request through anonymously.
func (s *Server) optionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.verifier != nil {
			if token := bearerToken(c); token != "" {
				if claims, err := s.verifier.Verify(token); err == nil {
					c.Set(claimsKey, claims)
					c.Set(tokenKey, token)
				}
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func claimsFrom(c *gin.Context) *supabase.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*supabase.Claims)
	return claims
}

func userID(c *gin.Context) string {
	if claims := claimsFrom(c); claims != nil {
		return claims.UserID()
	}
	return ""
}
