package api

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/logging"
)

// APIKeyHeader carries the tenant credential.
const APIKeyHeader = "X-API-Key"

type ctxKey int

const tenantKey ctxKey = iota

// =============================================================================
// TENANT
// =============================================================================

// RequireTenant resolves the X-API-Key header to a tenant before the wrapped
// handler runs. Requests without a valid credential never reach it.
//
// Failed resolutions drain a per-address bucket in failures. Once it is
// empty, requests from that address get 429 without a store lookup, valid
// credential or not. A nil failures disables this.
func RequireTenant(engine *leave.Engine, failures *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := IPKey(r)
			if failures.exhausted(addr) {
				failures.reject(w, r, addr)
				return
			}

			tenant, err := engine.ResolveTenant(r.Context(), r.Header.Get(APIKeyHeader))
			if err != nil {
				failures.consume(addr)
				writeEngineError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), tenantKey, tenant)
			log := logging.FromContext(ctx, nil).With(zap.String("client_id", tenant.ClientID()))
			ctx = logging.WithLogger(ctx, log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tenantFrom returns the tenant stored by RequireTenant.
func tenantFrom(ctx context.Context) (*leave.Tenant, bool) {
	t, ok := ctx.Value(tenantKey).(*leave.Tenant)
	return t, ok && t != nil
}

// =============================================================================
// REQUEST LOGGING
// =============================================================================

// RequestLogger logs one line per request and puts a request-scoped zap
// logger (tagged with chi's request id) into the context.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.L()
	}
	base = base.Named("api.http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := base.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), log)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			}
			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}

// =============================================================================
// RATE LIMITING
// =============================================================================

// RateLimitConfig defines the token bucket per key.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// KeyExtractor groups requests for rate limiting.
type KeyExtractor func(*http.Request) string

// IPKey groups requests by client address.
func IPKey(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// TenantKey groups requests by the tenant resolved by RequireTenant,
// falling back to the client address.
func TenantKey(r *http.Request) string {
	if t, ok := tenantFrom(r.Context()); ok {
		return "client:" + t.ClientID()
	}
	return IPKey(r)
}

// RateLimiter keeps one token bucket per key. A nil *RateLimiter allows
// everything.
type RateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewRateLimiter returns nil when cfg.RequestsPerWindow or cfg.Window is not
// positive.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerWindow <= 0 || cfg.Window <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       burst,
		lastCleanup: time.Now(),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket is full again, at most every
// five minutes.
func (rl *RateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()
	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// exhausted reports whether key has no token left, without taking one.
func (rl *RateLimiter) exhausted(key string) bool {
	if rl == nil {
		return false
	}
	l, ok := rl.limiters.Load(key)
	return ok && l.(*rate.Limiter).Tokens() < 1
}

// consume takes a token from key's bucket if one is left.
func (rl *RateLimiter) consume(key string) {
	if rl == nil {
		return
	}
	rl.limiter(key).Allow()
}

// reject replies 429 with the seconds until key has a token again.
func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, key string) {
	reservation := rl.limiter(key).Reserve()
	delay := reservation.Delay()
	reservation.Cancel()
	retryAfter := int(math.Ceil(delay.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	logging.FromContext(r.Context(), nil).Warn("rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.String("key_kind", strings.SplitN(key, ":", 2)[0]),
		zap.Int("retry_after", retryAfter),
	)
	writeError(w, http.StatusTooManyRequests, "too many requests", nil)
}

// Middleware rejects requests over the rate with 429 and a Retry-After
// header.
func (rl *RateLimiter) Middleware(keyOf KeyExtractor) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyOf(r)
			if rl.limiter(key).Allow() {
				next.ServeHTTP(w, r)
				return
			}
			rl.reject(w, r, key)
		})
	}
}

// RateLimit is NewRateLimiter(cfg).Middleware(keyOf). A non-positive
// RequestsPerWindow disables limiting.
func RateLimit(cfg RateLimitConfig, keyOf KeyExtractor) func(http.Handler) http.Handler {
	return NewRateLimiter(cfg).Middleware(keyOf)
}
