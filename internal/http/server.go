// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"anjo/internal/log"
	"anjo/internal/middleware/ratelimit"
	"anjo/internal/middleware/security"
	"anjo/internal/middleware/trace"
	"anjo/internal/notify"
	"anjo/internal/services"
	"anjo/internal/session"
)

// maxReceiptBytes bounds an uploaded receipt image.
const maxReceiptBytes = 10 << 20

// Deps are the collaborators of the API server. Sessions nil serves
// every request as a guest; Ready nil always reports ready.
type Deps struct {
	Ledger             *services.LedgerService
	Sessions           *session.Manager
	Inbox              *notify.Inbox
	Ready              func(context.Context) error
	Logger             *log.Logger
	RateLimitPerMinute int
	TrustedProxies     []string
}

// Server wraps http.Server with the ledger routes and the middleware
// they share.
type Server struct {
	http.Server
	ledger       *services.LedgerService
	sessions     *session.Manager
	inbox        *notify.Inbox
	ready        func(context.Context) error
	logger       *log.Logger
	audit        *log.StructuredLogger
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, d Deps) (*Server, error) {
	if d.Ledger == nil {
		return nil, errors.New("http: ledger service is required")
	}
	if d.Inbox == nil {
		d.Inbox = notify.NewInbox(notify.DefaultInboxSize)
	}
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	detector, err := security.NewDetector(d.TrustedProxies...)
	if err != nil {
		return nil, err
	}
	logger := d.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:   d.Ledger,
		sessions: d.Sessions,
		inbox:    d.Inbox,
		ready:    d.Ready,
		logger:   logger,
		audit:    log.NewStructuredLogger(logger),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
		detector: detector,
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /session", s.handleSession)

	api.HandleFunc("GET /transactions", s.handleListTransactions)
	api.HandleFunc("POST /transactions", s.handleCreateTransaction)
	api.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)

	api.HandleFunc("GET /goals", s.handleListGoals)
	api.HandleFunc("POST /goals", s.handleCreateGoal)
	api.HandleFunc("PUT /goals/{id}", s.handleUpdateGoal)
	api.HandleFunc("DELETE /goals/{id}", s.handleDeleteGoal)
	api.HandleFunc("POST /goals/{id}/deposits", s.handleDeposit)
	api.HandleFunc("GET /goals/{id}/prediction", s.handlePrediction)

	api.HandleFunc("GET /categories", s.handleListCategories)
	api.HandleFunc("POST /categories", s.handleCreateCategory)
	api.HandleFunc("GET /accounts", s.handleListAccounts)
	api.HandleFunc("POST /accounts", s.handleCreateAccount)

	api.HandleFunc("GET /stats", s.handleStats)
	api.HandleFunc("GET /summary", s.handleSummary)
	api.HandleFunc("GET /achievements", s.handleAchievements)
	api.HandleFunc("GET /tip", s.handleTip)
	api.HandleFunc("POST /receipts", s.handleScanReceipt)
	api.HandleFunc("GET /export.csv", s.handleExport)

	api.HandleFunc("GET /notifications", s.handleListNotifications)
	api.HandleFunc("POST /notifications/read", s.handleMarkNotificationsRead)
	api.HandleFunc("DELETE /notifications", s.handleClearNotifications)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/", s.withSession(api))

	var h http.Handler = root
	h = s.limiter.Middleware(detector.ClientIP, ratelimit.IsMutation, s.onRateLimit)(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(detector.ClientIP).Middleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops the limiter and drains the server. Safe to call more
// than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// withSession resolves the bearer token, if any, into the request owner.
// Requests without a token are guests served by the local store.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok, err := s.sessions.FromRequest(r)
		if err != nil {
			UnauthorizedError("invalid or expired token").Write(w)
			return
		}
		if ok {
			ctx := session.NewContext(r.Context(), id)
			ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldOwner, id.Owner))
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// owner returns the storage owner of r; "" is the guest.
func owner(r *http.Request) string {
	if id, ok := session.FromContext(r.Context()); ok {
		return id.Owner
	}
	return ""
}

// fail writes the response for err, logging anything that is not the
// caller's fault.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := FromError(err)
	if resp.statusCode >= http.StatusInternalServerError {
		s.audit.LogError(r.Context(), "Request failed", err, op, log.NewFields().WithOwner(owner(r)))
	}
	resp.Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "NOT_READY", "remote store unavailable").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, _ := session.FromContext(r.Context())
	NewResponse().JSON(map[string]string{
		"mode":  string(s.ledger.Mode(id.Owner)),
		"owner": id.Owner,
		"name":  id.Name,
	}).Write(w)
}
