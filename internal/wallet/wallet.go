// Package wallet talks to the ledger that holds a user's base-currency
// balance and token positions. It provides the WalletClient contract, an
// HTTP client for a remote wallet gateway, an in-memory paper wallet, and a
// Session that caches the authoritative balance for one signed-in user.
package wallet

import (
	"context"
	"errors"

	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// Provider names for configuration.
const (
	ProviderPaper = "paper"
	ProviderHTTP  = "http"
)

var (
	ErrNotAuthenticated = errors.New("wallet: not authenticated")
	ErrSessionClosed    = errors.New("wallet: session closed")
	ErrInvalidAmount    = errors.New("wallet: amount must be greater than 0")
	ErrTransport        = errors.New("wallet: transport error")
	ErrUnknownProvider  = errors.New("wallet: unknown provider")
)

// WalletClient is the contract every wallet backend satisfies. Amounts are
// minor units. Business failures (insufficient funds, zero amounts) come
// back as a TradeResult with Success false; a non-nil error means the call
// itself failed.
type WalletClient interface {
	// Name returns the backend identifier ("paper", "http").
	Name() string

	// IsAuthenticated reports whether the client carries a wallet identity.
	IsAuthenticated(ctx context.Context) (bool, error)

	// Principal returns the identity text, or ErrNotAuthenticated.
	Principal(ctx context.Context) (string, error)

	GetBalance(ctx context.Context) (models.Amount, error)
	GetDefaultTradeSize(ctx context.Context) (models.Amount, error)
	SetDefaultTradeSize(ctx context.Context, amount models.Amount) (models.Amount, error)

	// SwapBaseToToken spends amount of the base currency on symbol.
	SwapBaseToToken(ctx context.Context, symbol string, amount models.Amount) (models.TradeResult, error)

	// SwapTokenToBase sells amount of symbol back into the base currency.
	SwapTokenToBase(ctx context.Context, symbol string, amount models.Amount) (models.TradeResult, error)

	GetPortfolio(ctx context.Context) (models.Portfolio, error)
	Deposit(ctx context.Context, amount models.Amount) (models.TradeResult, error)
}
