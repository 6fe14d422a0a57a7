package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lokeshwaran100/ic-swipe/internal/config"
	"github.com/lokeshwaran100/ic-swipe/internal/infra"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// DefaultPaperPrincipal identifies the local paper wallet user.
const DefaultPaperPrincipal = "paper-local"

// NewClientFromConfig builds the wallet backend named by cfg.Wallet.Provider.
func NewClientFromConfig(cfg *config.Config) (WalletClient, error) {
	switch cfg.Wallet.Provider {
	case ProviderPaper, "":
		principal := cfg.Wallet.Principal
		if principal == "" {
			principal = DefaultPaperPrincipal
		}
		return NewPaperWallet(PaperConfig{
			Principal:        principal,
			InitialBalance:   models.Amount(cfg.Wallet.Paper.InitialBalance),
			DefaultTradeSize: models.Amount(cfg.Wallet.Paper.DefaultTradeSize),
		}), nil
	case ProviderHTTP:
		return NewHTTPClient(HTTPConfig{
			BaseURL: cfg.Wallet.BaseURL,
			Token:   cfg.Wallet.Token,
			Timeout: time.Duration(cfg.Wallet.TimeoutSec) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Wallet.Provider)
	}
}

// Session is the signed-in user's context: wallet client, identity and the
// cached WalletState. The cache is only ever overwritten with values the
// wallet returned.
type Session struct {
	id     string
	client WalletClient
	log    *logrus.Entry

	mu        sync.RWMutex
	principal string
	state     models.WalletState
	closed    bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the session's logger.
func WithSessionLogger(log *logrus.Logger) SessionOption {
	return func(s *Session) { s.log = infra.Component(log, "wallet") }
}

// NewSession creates a signed-out session over client. Call Authenticate
// to resolve the identity and prime the cache.
func NewSession(client WalletClient, opts ...SessionOption) *Session {
	s := &Session{
		id:     uuid.NewString(),
		client: client,
		log:    infra.Component(nil, "wallet"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("session", s.id)
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Client returns the underlying wallet client.
func (s *Session) Client() WalletClient { return s.client }

// Authenticate resolves the wallet identity and refreshes the cache. A
// refresh failure is logged but does not undo the sign-in.
func (s *Session) Authenticate(ctx context.Context) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	p, err := s.client.Principal(ctx)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	s.mu.Lock()
	s.principal = p
	s.mu.Unlock()
	s.log.WithField("principal", p).Info("wallet authenticated")

	if err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("initial wallet refresh failed")
	}
	return nil
}

// IsAuthenticated reports whether the session holds a wallet identity.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal != "" && !s.closed
}

// Principal returns the identity text, empty when signed out.
func (s *Session) Principal() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

// State returns a copy of the cached WalletState.
func (s *Session) State() models.WalletState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Refresh fetches balance and default trade size concurrently. On any
// failure the cache is left unchanged.
func (s *Session) Refresh(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	var balance, size models.Amount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = s.client.GetBalance(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		size, err = s.client.GetDefaultTradeSize(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.WithError(err).Warn("wallet refresh failed")
		return fmt.Errorf("refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.state = models.WalletState{Balance: balance, DefaultTradeSize: size}
	return nil
}

// SetDefaultTradeSize stores the per-swipe trade size remotely and caches
// the value the wallet echoed back.
func (s *Session) SetDefaultTradeSize(ctx context.Context, amount models.Amount) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	got, err := s.client.SetDefaultTradeSize(ctx, amount)
	if err != nil {
		return fmt.Errorf("set default trade size: %w", err)
	}
	s.mu.Lock()
	s.state.DefaultTradeSize = got
	s.mu.Unlock()
	return nil
}

// SwapBaseToToken forwards a buy to the wallet. The cache is not touched;
// the caller reconciles with ApplyTradeResult.
func (s *Session) SwapBaseToToken(ctx context.Context, symbol string, amount models.Amount) (models.TradeResult, error) {
	if !s.IsAuthenticated() {
		return models.TradeResult{}, ErrNotAuthenticated
	}
	return s.client.SwapBaseToToken(ctx, symbol, amount)
}

// ApplyTradeResult overwrites the cached balance with the wallet's literal
// new balance. Failed results leave the cache unchanged. It reports whether
// the cache changed.
func (s *Session) ApplyTradeResult(res models.TradeResult) bool {
	if !res.Success {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.state.Balance = res.NewBalance
	return true
}

// Deposit credits the wallet and reconciles the cache.
func (s *Session) Deposit(ctx context.Context, amount models.Amount) (models.TradeResult, error) {
	if !s.IsAuthenticated() {
		return models.TradeResult{}, ErrNotAuthenticated
	}
	res, err := s.client.Deposit(ctx, amount)
	if err != nil {
		return models.TradeResult{}, fmt.Errorf("deposit: %w", err)
	}
	s.ApplyTradeResult(res)
	return res, nil
}

// SellToken swaps amount of symbol back into the base currency and
// reconciles the cache.
func (s *Session) SellToken(ctx context.Context, symbol string, amount models.Amount) (models.TradeResult, error) {
	if !s.IsAuthenticated() {
		return models.TradeResult{}, ErrNotAuthenticated
	}
	res, err := s.client.SwapTokenToBase(ctx, symbol, amount)
	if err != nil {
		return models.TradeResult{}, fmt.Errorf("sell %s: %w", symbol, err)
	}
	s.ApplyTradeResult(res)
	return res, nil
}

// Portfolio returns the wallet's full holdings view.
func (s *Session) Portfolio(ctx context.Context) (models.Portfolio, error) {
	if !s.IsAuthenticated() {
		return models.Portfolio{}, ErrNotAuthenticated
	}
	return s.client.GetPortfolio(ctx)
}

// Close signs the session out and drops the cache. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.principal = ""
	s.state = models.WalletState{}
	s.log.Info("wallet session closed")
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
