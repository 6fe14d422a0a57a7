// Package api provides the HTTP REST API server for IcSwipe.
//
// It exposes endpoints for browsing categories, opening swipe queues,
// deciding on candidates, managing the wallet, reading the decision
// journal, and a WebSocket stream of notifications.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lokeshwaran100/ic-swipe/internal/app"
	"github.com/lokeshwaran100/ic-swipe/internal/catalog"
	"github.com/lokeshwaran100/ic-swipe/internal/engine"
	"github.com/lokeshwaran100/ic-swipe/internal/infra"
	"github.com/lokeshwaran100/ic-swipe/internal/wallet"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
	"github.com/lokeshwaran100/ic-swipe/pkg/utils"
)

const (
	// maxOpenQueues bounds the number of live swipe queues.
	maxOpenQueues = 64

	catalogPruneInterval = time.Minute
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	app    *app.App
	log    *logrus.Entry
	wsHub  *WSHub

	mu     sync.RWMutex
	queues map[string]*engine.Engine
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(a *app.App) *Server {
	srv := &Server{
		app:    a,
		log:    infra.Component(a.Log, "api"),
		queues: make(map[string]*engine.Engine),
	}
	srv.wsHub = NewWSHub(srv.log)
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until SIGINT/SIGTERM,
// then shuts down gracefully.
func (s *Server) ListenAndServe(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run(ctx)
	go s.pumpNotifications(ctx)
	go s.pruneCatalog(ctx, catalogPruneInterval)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
	}
	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := httpSrv.Shutdown(shutdownCtx)
	s.CloseQueues()
	return err
}

// CloseQueues tears down every open queue and blocks until swaps already
// dispatched by them have been reconciled with the wallet session.
func (s *Server) CloseQueues() {
	s.mu.Lock()
	closing := make([]*engine.Engine, 0, len(s.queues))
	for id, e := range s.queues {
		e.Close()
		closing = append(closing, e)
		delete(s.queues, id)
	}
	s.mu.Unlock()

	for _, e := range closing {
		e.Wait()
	}
}

// pruneCatalog drops expired generated lists every interval until ctx ends.
func (s *Server) pruneCatalog(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.app.Catalog.PruneCache()
		}
	}
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.app.Config.API.CORSOrigins) > 0 {
		origins = s.app.Config.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Catalog
		r.Get("/categories", s.handleCategories)

		// Queues
		r.Get("/queues", s.handleListQueues)
		r.Post("/queues", s.handleCreateQueue)
		r.Route("/queues/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetQueue)
			r.Delete("/", s.handleDeleteQueue)
			r.Post("/drag", s.handleDrag)
			r.Post("/accept", s.handleDecision(models.DecisionAccept))
			r.Post("/reject", s.handleDecision(models.DecisionReject))
		})

		// Wallet
		r.Get("/wallet", s.handleWallet)
		r.Post("/wallet/refresh", s.handleWalletRefresh)
		r.Put("/wallet/default-trade-size", s.handleSetDefaultTradeSize)
		r.Post("/wallet/deposit", s.handleDeposit)

		// Portfolio
		r.Get("/portfolio", s.handlePortfolio)
		r.Post("/portfolio/sell", s.handleSell)

		// Notification
		r.Get("/notification", s.handleGetNotification)
		r.Delete("/notification", s.handleDismissNotification)

		// Journal
		r.Get("/journal", s.handleJournal)

		// Config
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handleUpdateConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreateQueueRequest opens a queue from a category or a free-text prompt.
type CreateQueueRequest struct {
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

// QueueResponse describes an open queue.
type QueueResponse struct {
	ID       string          `json:"id"`
	Source   string          `json:"source"` // "static" or "generated"
	Title    string          `json:"title"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

// DragRequest is a drag release.
type DragRequest struct {
	OffsetX float64 `json:"offsetX"`
}

// DecisionResponse is the result of a drag or button decision.
type DecisionResponse struct {
	Decided  bool            `json:"decided"`
	Outcome  *engine.Outcome `json:"outcome,omitempty"`
	Snapshot engine.Snapshot `json:"snapshot"`
}

// AmountRequest carries a major-unit amount, e.g. {"amount": "5.00"}.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SellRequest sells a token back into the base currency.
type SellRequest struct {
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
}

// WalletResponse is the session's wallet view.
type WalletResponse struct {
	Authenticated bool               `json:"authenticated"`
	Principal     string             `json:"principal,omitempty"`
	Provider      string             `json:"provider"`
	State         models.WalletState `json:"state"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	open := len(s.queues)
	s.mu.RUnlock()

	llmProviders := []string{}
	if s.app.LLM != nil {
		llmProviders = s.app.LLM.ProviderNames()
	}
	data := map[string]any{
		"status":         "ok",
		"time":           time.Now().UTC().Format(time.RFC3339),
		"authenticated":  s.app.Session.IsAuthenticated(),
		"wallet":         s.app.Session.Client().Name(),
		"llm":            llmProviders,
		"open_queues":    open,
		"ws_clients":     s.wsHub.ClientCount(),
		"cached_prompts": s.app.Catalog.CachedPrompts(),
	}

	// ?ping=true contacts every LLM provider.
	if r.URL.Query().Get("ping") == "true" && s.app.LLM != nil {
		health := make(map[string]string)
		for name, err := range s.app.LLM.HealthCheck(r.Context()) {
			if err != nil {
				health[name] = err.Error()
			} else {
				health[name] = "ok"
			}
		}
		data["llm_health"] = health
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.app.Catalog.Categories()})
}

func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snaps := make([]engine.Snapshot, 0, len(s.queues))
	for _, e := range s.queues {
		snaps = append(snaps, e.Snapshot())
	}
	s.mu.RUnlock()
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snaps})
}

func (s *Server) handleCreateQueue(w http.ResponseWriter, r *http.Request) {
	var req CreateQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.RLock()
	full := len(s.queues) >= maxOpenQueues
	s.mu.RUnlock()
	if full {
		writeError(w, http.StatusTooManyRequests, "too many open queues; delete one first")
		return
	}

	var (
		queue  []models.Candidate
		source = "static"
		title  string
	)
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		queue = s.app.Catalog.LoadGenerated(r.Context(), prompt)
		source = "generated"
		title = prompt
	} else {
		queue = s.app.Catalog.LoadStatic(req.Category)
		title = catalog.Title(req.Category)
	}

	e := s.app.NewEngine()
	if err := e.Load(queue); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.queues[e.ID()] = e
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    QueueResponse{ID: e.ID(), Source: source, Title: title, Snapshot: e.Snapshot()},
	})
}

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	e, ok := s.queue(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: e.Snapshot()})
}

func (s *Server) handleDeleteQueue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	e, ok := s.queues[id]
	delete(s.queues, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "queue not found: "+id)
		return
	}
	e.Close()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]string{"deleted": id}})
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	e, ok := s.queue(w, r)
	if !ok {
		return
	}
	var req DragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, decided, err := e.OnDragEnd(r.Context(), req.OffsetX)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	resp := DecisionResponse{Decided: decided, Snapshot: e.Snapshot()}
	if decided {
		resp.Outcome = &out
		s.broadcastOutcome(e.ID(), out)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleDecision(d models.Decision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.queue(w, r)
		if !ok {
			return
		}
		out, err := e.Decide(r.Context(), d)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		s.broadcastOutcome(e.ID(), out)
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data:    DecisionResponse{Decided: true, Outcome: &out, Snapshot: e.Snapshot()},
		})
	}
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.walletView()})
}

func (s *Server) handleWalletRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Session.Refresh(r.Context()); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.walletView()})
}

func (s *Server) handleSetDefaultTradeSize(w http.ResponseWriter, r *http.Request) {
	amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}
	if err := s.app.Session.SetDefaultTradeSize(r.Context(), amount); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.walletView()})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}
	res, err := s.app.Session.Deposit(r.Context(), amount)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeTradeResult(w, res)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	pf, err := s.app.Session.Portfolio(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: pf})
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req SellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	symbol := utils.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	amount, err := models.AmountFromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.app.Session.SellToken(r.Context(), symbol, amount)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeTradeResult(w, res)
}

func (s *Server) handleGetNotification(w http.ResponseWriter, r *http.Request) {
	n, ok := s.app.Notifier.Current()
	if !ok {
		writeJSON(w, http.StatusOK, APIResponse{Success: true})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: n})
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	s.app.Notifier.Dismiss()
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	var (
		entries []models.JournalEntry
		err     error
	)
	if sid := r.URL.Query().Get("session"); sid != "" {
		entries, err = s.app.Journal.BySession(r.Context(), sid)
	} else {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, perr := strconv.Atoi(v)
			if perr != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		entries, err = s.app.Journal.Recent(r.Context(), limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
}

// ============================================================
// Helpers
// ============================================================

func (s *Server) queue(w http.ResponseWriter, r *http.Request) (*engine.Engine, bool) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	e, ok := s.queues[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "queue not found: "+id)
	}
	return e, ok
}

func (s *Server) walletView() WalletResponse {
	return WalletResponse{
		Authenticated: s.app.Session.IsAuthenticated(),
		Principal:     s.app.Session.Principal(),
		Provider:      s.app.Session.Client().Name(),
		State:         s.app.Session.State(),
	}
}

func (s *Server) broadcastOutcome(queueID string, out engine.Outcome) {
	s.wsHub.Broadcast(WSMessage{
		Type: "queue.decided",
		Data: map[string]any{
			"queue_id": queueID,
			"decision": out.Decision,
			"result":   out.Result,
			"symbol":   out.Candidate.Symbol,
		},
	})
}

func decodeAmount(w http.ResponseWriter, r *http.Request) (models.Amount, bool) {
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return 0, false
	}
	amount, err := models.AmountFromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	if amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be at least 0.01")
		return 0, false
	}
	return amount, true
}

// writeTradeResult reports business failures as 422 with the wallet's
// message; the result is still returned in data.
func writeTradeResult(w http.ResponseWriter, res models.TradeResult) {
	if !res.Success {
		writeJSON(w, http.StatusUnprocessableEntity, APIResponse{Success: false, Data: res, Error: res.Message})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrTradeInFlight), errors.Is(err, engine.ErrNotLoaded):
		return http.StatusConflict
	case errors.Is(err, engine.ErrExhausted), errors.Is(err, engine.ErrClosed):
		return http.StatusGone
	case errors.Is(err, wallet.ErrNotAuthenticated), errors.Is(err, wallet.ErrSessionClosed):
		return http.StatusUnauthorized
	case errors.Is(err, engine.ErrNoDefaultAmount), errors.Is(err, engine.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wallet.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, wallet.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
