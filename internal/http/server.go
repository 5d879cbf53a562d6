package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"tresorier/internal/log"
	"tresorier/internal/services"
)

// Server is the JSON API over the ledger and member engines. Route shape
// follows the legacy API: one list/get/save/delete endpoint per entity,
// ids passed as query parameters.
type Server struct {
	http.Server
	ledger      *services.LedgerService
	members     *services.MemberService
	logger      *log.Logger
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

func NewServer(addr string, ledger *services.LedgerService, members *services.MemberService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledger,
		members:     members,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	routes := []struct {
		prefix string
		ops    entityHandlers
	}{
		{"/api/fiscal_years", entityHandlers{s.handleFiscalYearList, s.handleFiscalYearGet, s.handleFiscalYearSave, s.handleFiscalYearDelete}},
		{"/api/accounting/accounts", entityHandlers{s.handleAccountList, s.handleAccountGet, s.handleAccountSave, s.handleAccountDelete}},
		{"/api/accounting/operations/categories", entityHandlers{s.handleCategoryList, s.handleCategoryGet, s.handleCategorySave, s.handleCategoryDelete}},
		{"/api/accounting/operations", entityHandlers{s.handleOperationList, s.handleOperationGet, s.handleOperationSave, s.handleOperationDelete}},
		{"/api/cotisations", entityHandlers{s.handleCotisationList, s.handleCotisationGet, s.handleCotisationSave, s.handleCotisationDelete}},
		{"/api/members", entityHandlers{s.handleMemberList, s.handleMemberGet, s.handleMemberSave, s.handleMemberDelete}},
		{"/api/memberships", entityHandlers{s.handleMembershipList, s.handleMembershipGet, s.handleMembershipSave, s.handleMembershipDelete}},
	}
	for _, route := range routes {
		mux.HandleFunc(route.prefix+"/list", s.withMiddleware(requireMethod(http.MethodGet, route.ops.list)))
		mux.HandleFunc(route.prefix+"/get", s.withMiddleware(requireMethod(http.MethodGet, route.ops.get)))
		mux.HandleFunc(route.prefix+"/save", s.withMiddleware(requireMethod(http.MethodPost, route.ops.save)))
		mux.HandleFunc(route.prefix+"/delete", s.withMiddleware(requireMethod(http.MethodDelete, route.ops.delete)))
	}
	mux.HandleFunc("/api/accounting/operations/report", s.withMiddleware(requireMethod(http.MethodGet, s.handleOperationReport)))

	return s
}

type entityHandlers struct {
	list, get, save, delete http.HandlerFunc
}

func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// withMiddleware adds security headers, rate limiting on mutating methods
// and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		reqLogger := s.logger.With(log.FieldRequestID, requestID, log.FieldClientIP, clientIP)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, reqLogger)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		reqLogger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds())
	}
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

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the rate limiter cleanup goroutine and drains the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	// Counter resets after a quiet minute.
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}
