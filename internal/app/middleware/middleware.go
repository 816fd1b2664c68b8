package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/auth"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/observability/metrics"
)

// SessionIDKey is the session cookie entry holding the guide session id.
const SessionIDKey = "sid"

// TokenValidator turns an access token into claims.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// CORSMiddleware answers cross-origin requests from allowedOrigins only. Other
// origins get no Access-Control-Allow-Origin, so browsers block them.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		c.Writer.Header().Add("Vary", "Origin")
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
				c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, HX-Request, HX-Target, HX-Current-URL")
				c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// JSON only, nothing here is meant to be framed or to load subresources.
		c.Writer.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		c.Next()
	}
}

// OTELGinMiddleware returns the OpenTelemetry middleware for Gin
func OTELGinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		ctx := c.Request.Context()
		m := metrics.Get()

		m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", route),
			attribute.String("status", status),
		))
		m.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", route),
		))

		switch {
		case strings.HasPrefix(route, "/auth/"):
			m.AuthRequestsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("endpoint", route),
				attribute.String("status", status),
			))
		case route == "/api/catalog/:category":
			m.SearchRequestsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("category", c.Param("category")),
			))
		}
	}
}

// SessionMiddleware binds the request to its guide session. The id is kept in the
// signed session cookie; a new one is minted for first-time visitors.
// Requires sessions.Sessions to run first.
func SessionMiddleware(registry *interactions.Registry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		sid, _ := session.Get(SessionIDKey).(string)
		if sid == "" {
			sid = uuid.NewString()
			session.Set(SessionIDKey, sid)
			if err := session.Save(); err != nil {
				logger.Warn("Failed to save session cookie", zap.Error(err))
			}
		}

		interactions.WithStore(c, registry.Get(sid))
		c.Next()
	}
}

// OptionalAuthMiddleware derives the auth state from the access token, if any, and
// syncs it into the session store. It never rejects a request.
func OptionalAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := interactions.FromContext(c)

		token := accessToken(c)
		if token == "" {
			store.Sync(models.Anonymous())
			c.Next()
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			store.Sync(models.Anonymous())
			c.Next()
			return
		}

		store.Sync(models.Authenticated(models.User{
			ID:          claims.UserID,
			DisplayName: claims.DisplayName,
			Email:       claims.Email,
		}))
		c.Next()
	}
}

// accessToken reads the auth cookie, then a bearer Authorization header.
func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(auth.AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
