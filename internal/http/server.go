package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"expenses/internal/auth"
	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/notify"
	"expenses/internal/rates"
	"expenses/internal/services"
	"expenses/internal/storage"

	"github.com/google/uuid"
)

type ctxKey string

const claimsKey ctxKey = "claims"

type Server struct {
	http.Server

	entries *services.EntryService
	repo    *storage.SQLiteRepository
	auth    *auth.Manager
	rates   *rates.Snapshot
	sink    notify.Sink
	logger  *log.Logger

	limiter *ratelimit.Limiter
	headers *security.HeadersMiddleware

	// LRU caches for per-user aggregates, invalidated on entry mutation
	summaryCache  *cache.LRUCache[summaryResponse]
	monthlyCache  *cache.LRUCache[[]monthBucketResponse]
	categoryCache *cache.LRUCache[[]categoryAmountResponse]

	// alert de-dup state, one AlertState per user
	alertMu sync.Mutex
	alerts  map[int64]core.AlertState

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(
	addr string,
	entries *services.EntryService,
	repo *storage.SQLiteRepository,
	authMgr *auth.Manager,
	ratesSnap *rates.Snapshot,
	sink notify.Sink,
	logger *log.Logger,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		entries: entries,
		repo:    repo,
		auth:    authMgr,
		rates:   ratesSnap,
		sink:    sink,
		logger:  logger.WithComponent(log.ComponentHTTP),

		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		headers: security.NewHeadersMiddleware(security.DefaultHeadersConfig()),

		summaryCache:  cache.NewLRUCache[summaryResponse](100, 5*time.Minute),
		monthlyCache:  cache.NewLRUCache[[]monthBucketResponse](100, 5*time.Minute),
		categoryCache: cache.NewLRUCache[[]categoryAmountResponse](200, 5*time.Minute),

		alerts:           make(map[int64]core.AlertState),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/register", s.handleRegister)
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/entries", s.requireAuth(s.handleEntries))
	mux.HandleFunc("/api/entries/", s.requireAuth(s.handleEntryByID))
	mux.HandleFunc("/api/budgets", s.requireAuth(s.handleBudgets))
	mux.HandleFunc("/api/budgets/progress", s.requireAuth(s.handleBudgetProgress))
	mux.HandleFunc("/api/summary", s.requireAuth(s.handleSummary))
	mux.HandleFunc("/api/summary/monthly", s.requireAuth(s.handleSummaryMonthly))
	mux.HandleFunc("/api/summary/categories", s.requireAuth(s.handleSummaryCategories))
	mux.HandleFunc("/api/rates", s.requireAuth(s.handleRates))
	mux.HandleFunc("/api/categories", s.requireAuth(s.handleCategories))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.headers.Middleware(s.withObservability(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// withObservability attaches a request ID, logs start and completion, and
// rate-limits mutating requests per client IP.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := "req_" + uuid.NewString()

		reqLogger := s.logger.With(
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
		)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, reqLogger)
		r = r.WithContext(ctx)

		reqLogger.InfoContext(ctx, "Request started",
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if isMutating(r.Method) && !s.limiter.Allow(clientIP) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded")
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").
				Header("Retry-After", "60").
				Write(w)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		reqLogger.InfoContext(ctx, "Request completed",
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// extractClientIP resolves the client address, preferring proxy headers.
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// first hop is the original client
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireAuth verifies the Bearer token and stores the claims in the context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			UnauthorizedError("missing bearer token").Write(w)
			return
		}

		claims, err := s.auth.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Token rejected",
				log.FieldError, err)
			UnauthorizedError("invalid or expired token").Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		ErrorResponse(http.StatusServiceUnavailable, "database unavailable").Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := s.summaryCache.CleanExpired() +
				s.monthlyCache.CleanExpired() +
				s.categoryCache.CleanExpired()
			if removed > 0 {
				s.logger.Debug("Cache cleanup completed", "entries_removed", removed)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateUserCaches drops all cached aggregates for the user.
func (s *Server) invalidateUserCaches(userID int64) {
	prefix := cacheUserPrefix(userID)
	s.summaryCache.DeletePrefix(prefix)
	s.monthlyCache.DeletePrefix(prefix)
	s.categoryCache.DeletePrefix(prefix)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
