package authhandlers

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	authservice "github.com/sjlangley/social-golf-spa/app/modules/auth/application"
	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
	"github.com/sjlangley/social-golf-spa/pkg/httpjson"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle IP entry is eligible for cleanup.
	maxIdleAge = 10 * time.Minute
)

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is an IP-based rate limiter that prunes stale entries inline.
type IPRateLimiter struct {
	ips map[string]*ipEntry
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*ipEntry),
		r:   r,
		b:   b,
	}
}

// GetLimiter returns a rate.Limiter for the given IP, pruning stale entries when the
// map exceeds cleanupThreshold.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	if len(i.ips) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, e := range i.ips {
			if e.lastSeen.Before(cutoff) {
				delete(i.ips, k)
			}
		}
	}

	e, exists := i.ips[ip]
	if !exists {
		e = &ipEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = e
	}
	e.lastSeen = now

	return e.limiter
}

// Len reports how many client addresses are tracked.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

// RateLimitMiddleware returns a middleware that rate limits requests based on IP.
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.GetLimiter(ip).Allow() {
				httpjson.Error(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware returns a middleware that sets CORS headers for the configured origins.
// When allowedOrigins is empty, no CORS headers are added.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := origins[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
					w.Header().Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type principalKey struct{}

// WithPrincipal stores the authenticated caller on the context.
func WithPrincipal(ctx context.Context, p *authdomain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller set by AuthMiddleware, if any.
func PrincipalFromContext(ctx context.Context) (*authdomain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*authdomain.Principal)
	return p, ok && p != nil
}

// AuthMiddleware authenticates the bearer token and stores the principal on
// the request context. Failures return 401, except member lookup failures
// which return 503.
func AuthMiddleware(service authservice.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := service.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				switch {
				case errors.Is(err, authservice.ErrResolvePrincipal):
					logger.ErrorContext(r.Context(), "Principal resolution failed", attr.Error(err))
					httpjson.Error(w, http.StatusServiceUnavailable, "member lookup unavailable")
				case errors.Is(err, authservice.ErrMissingToken):
					w.Header().Set("WWW-Authenticate", "Bearer")
					httpjson.Error(w, http.StatusUnauthorized, "Authorization header missing")
				case errors.Is(err, authservice.ErrExpiredToken):
					w.Header().Set("WWW-Authenticate", "Bearer")
					httpjson.Error(w, http.StatusUnauthorized, "Token expired")
				default:
					w.Header().Set("WWW-Authenticate", "Bearer")
					httpjson.Error(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequirePermission rejects callers whose effective permissions do not cover
// scope. It must run after AuthMiddleware.
func RequirePermission(scope authdomain.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if !principal.HasPermission(scope) {
				httpjson.Error(w, http.StatusForbidden, "User does not have the required scope: "+string(scope))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
