package wallet

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Paper Wallet
// ════════════════════════════════════════════════════════════════════

// PaperWallet is an in-memory ledger for one principal. Swaps fill 1:1
// between the base currency and the token. It is the default backend and
// the one tests run against.
type PaperWallet struct {
	mu sync.RWMutex

	principal        string
	balance          models.Amount
	defaultTradeSize models.Amount
	totalDeposits    models.Amount
	totalSwaps       models.Amount
	tokens           map[string]models.Amount

	latency time.Duration
}

// PaperConfig holds configuration for the paper wallet.
type PaperConfig struct {
	Principal        string        // empty means signed out
	InitialBalance   models.Amount // credited as a deposit
	DefaultTradeSize models.Amount
	Latency          time.Duration // simulated round trip per call
}

// NewPaperWallet creates a paper wallet. The initial balance is capped at
// models.MaxAmount.
func NewPaperWallet(cfg PaperConfig) *PaperWallet {
	cfg.InitialBalance = min(cfg.InitialBalance, models.MaxAmount)
	pw := &PaperWallet{
		principal:        cfg.Principal,
		balance:          cfg.InitialBalance,
		totalDeposits:    cfg.InitialBalance,
		defaultTradeSize: cfg.DefaultTradeSize,
		tokens:           make(map[string]models.Amount),
		latency:          cfg.Latency,
	}
	return pw
}

// Name returns "paper".
func (pw *PaperWallet) Name() string { return ProviderPaper }

// SetPrincipal signs the wallet in, or out with an empty principal.
func (pw *PaperWallet) SetPrincipal(p string) {
	pw.mu.Lock()
	pw.principal = p
	pw.mu.Unlock()
}

// IsAuthenticated reports whether a principal is set.
func (pw *PaperWallet) IsAuthenticated(ctx context.Context) (bool, error) {
	if err := pw.wait(ctx); err != nil {
		return false, err
	}
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.principal != "", nil
}

// Principal returns the signed-in principal.
func (pw *PaperWallet) Principal(ctx context.Context) (string, error) {
	if err := pw.wait(ctx); err != nil {
		return "", err
	}
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	if pw.principal == "" {
		return "", ErrNotAuthenticated
	}
	return pw.principal, nil
}

// ════════════════════════════════════════════════════════════════════
// Account
// ════════════════════════════════════════════════════════════════════

// GetBalance returns the base-currency balance.
func (pw *PaperWallet) GetBalance(ctx context.Context) (models.Amount, error) {
	if err := pw.wait(ctx); err != nil {
		return 0, err
	}
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.balance, nil
}

// GetDefaultTradeSize returns the configured per-swipe trade size.
func (pw *PaperWallet) GetDefaultTradeSize(ctx context.Context) (models.Amount, error) {
	if err := pw.wait(ctx); err != nil {
		return 0, err
	}
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.defaultTradeSize, nil
}

// SetDefaultTradeSize stores the per-swipe trade size and echoes it back.
func (pw *PaperWallet) SetDefaultTradeSize(ctx context.Context, amount models.Amount) (models.Amount, error) {
	if err := pw.wait(ctx); err != nil {
		return 0, err
	}
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.defaultTradeSize = amount
	return amount, nil
}

// Deposit credits the base-currency balance.
func (pw *PaperWallet) Deposit(ctx context.Context, amount models.Amount) (models.TradeResult, error) {
	if err := pw.wait(ctx); err != nil {
		return models.TradeResult{}, err
	}
	if amount == 0 {
		return models.TradeResult{Message: "Deposit amount must be greater than 0"}, nil
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()
	balance, ok := pw.balance.Add(amount)
	if !ok {
		return models.TradeResult{NewBalance: pw.balance, Message: "Deposit would exceed the maximum balance"}, nil
	}
	pw.balance = balance
	pw.totalDeposits, _ = pw.totalDeposits.Add(amount)
	return models.TradeResult{
		Success:    true,
		NewBalance: pw.balance,
		Message:    fmt.Sprintf("Successfully deposited %s ICP", amount),
	}, nil
}

// ════════════════════════════════════════════════════════════════════
// Swaps
// ════════════════════════════════════════════════════════════════════

// SwapBaseToToken converts amount of the base currency into symbol, 1:1.
func (pw *PaperWallet) SwapBaseToToken(ctx context.Context, symbol string, amount models.Amount) (models.TradeResult, error) {
	if err := pw.wait(ctx); err != nil {
		return models.TradeResult{}, err
	}
	if amount == 0 {
		return models.TradeResult{Message: "Swap amount must be greater than 0"}, nil
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.balance < amount {
		return models.TradeResult{
			NewBalance: pw.balance,
			Message:    fmt.Sprintf("Insufficient ICP balance. Available: %s, Required: %s", pw.balance, amount),
		}, nil
	}

	held, ok := pw.tokens[symbol].Add(amount)
	if !ok {
		current := pw.tokens[symbol]
		return models.TradeResult{
			NewBalance:      pw.balance,
			NewTokenBalance: &current,
			Message:         fmt.Sprintf("Swap would exceed the maximum %s token balance", symbol),
		}, nil
	}
	pw.balance -= amount
	pw.totalSwaps, _ = pw.totalSwaps.Add(amount)
	pw.tokens[symbol] = held

	return models.TradeResult{
		Success:         true,
		NewBalance:      pw.balance,
		NewTokenBalance: &held,
		Message:         fmt.Sprintf("Successfully swapped %s ICP to %s %s tokens", amount, amount, symbol),
	}, nil
}

// SwapTokenToBase sells amount of symbol back into the base currency, 1:1.
func (pw *PaperWallet) SwapTokenToBase(ctx context.Context, symbol string, amount models.Amount) (models.TradeResult, error) {
	if err := pw.wait(ctx); err != nil {
		return models.TradeResult{}, err
	}
	if amount == 0 {
		return models.TradeResult{Message: "Swap amount must be greater than 0"}, nil
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()

	held := pw.tokens[symbol]
	if held < amount {
		return models.TradeResult{
			NewBalance:      pw.balance,
			NewTokenBalance: &held,
			Message:         fmt.Sprintf("Insufficient %s token balance. Available: %s, Required: %s", symbol, held, amount),
		}, nil
	}

	balance, ok := pw.balance.Add(amount)
	if !ok {
		return models.TradeResult{
			NewBalance:      pw.balance,
			NewTokenBalance: &held,
			Message:         "Swap would exceed the maximum balance",
		}, nil
	}

	held -= amount
	if held == 0 {
		delete(pw.tokens, symbol)
	} else {
		pw.tokens[symbol] = held
	}
	pw.balance = balance

	return models.TradeResult{
		Success:         true,
		NewBalance:      pw.balance,
		NewTokenBalance: &held,
		Message:         fmt.Sprintf("Successfully swapped %s %s tokens to %s ICP", amount, symbol, amount),
	}, nil
}

// GetPortfolio returns balances and totals. Token balances are sorted by symbol.
func (pw *PaperWallet) GetPortfolio(ctx context.Context) (models.Portfolio, error) {
	if err := pw.wait(ctx); err != nil {
		return models.Portfolio{}, err
	}
	pw.mu.RLock()
	defer pw.mu.RUnlock()

	tokens := make([]models.TokenBalance, 0, len(pw.tokens))
	for sym, amt := range pw.tokens {
		tokens = append(tokens, models.TokenBalance{Symbol: sym, Amount: amt})
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Symbol < tokens[j].Symbol })

	return models.Portfolio{
		BaseBalance:      pw.balance,
		DefaultTradeSize: pw.defaultTradeSize,
		TotalDeposits:    pw.totalDeposits,
		TotalSwaps:       pw.totalSwaps,
		TokenBalances:    tokens,
	}, nil
}

// wait simulates network latency.
func (pw *PaperWallet) wait(ctx context.Context) error {
	if pw.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(pw.latency):
		return nil
	}
}
