package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// HTTPClient implements WalletClient against a JSON wallet gateway that
// fronts the on-chain ledger. The bearer token identifies the caller.
type HTTPClient struct {
	mu sync.RWMutex

	baseURL    string
	token      string
	httpClient *http.Client
}

// HTTPConfig holds wallet gateway connection settings.
type HTTPConfig struct {
	BaseURL string        // defaults to "http://localhost:4943"
	Token   string        // bearer identity; empty means signed out
	Timeout time.Duration // HTTP client timeout (default: 15s)
}

// NewHTTPClient creates a gateway client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:4943"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns "http".
func (c *HTTPClient) Name() string { return ProviderHTTP }

// SetToken replaces the bearer identity.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ════════════════════════════════════════════════════════════════════
// Identity
// ════════════════════════════════════════════════════════════════════

// IsAuthenticated asks the gateway whether the token maps to a principal.
func (c *HTTPClient) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := c.Principal(ctx)
	if errors.Is(err, ErrNotAuthenticated) {
		return false, nil
	}
	return err == nil, err
}

// Principal returns the caller's principal text.
func (c *HTTPClient) Principal(ctx context.Context) (string, error) {
	if !c.hasToken() {
		return "", ErrNotAuthenticated
	}
	var out struct {
		Principal string `json:"principal"`
	}
	if err := c.do(ctx, http.MethodGet, "/whoami", nil, &out); err != nil {
		return "", fmt.Errorf("whoami: %w", err)
	}
	if out.Principal == "" {
		return "", ErrNotAuthenticated
	}
	return out.Principal, nil
}

// ════════════════════════════════════════════════════════════════════
// Account
// ════════════════════════════════════════════════════════════════════

type amountBody struct {
	Amount models.Amount `json:"amount"`
}

// GetBalance returns the base-currency balance.
func (c *HTTPClient) GetBalance(ctx context.Context) (models.Amount, error) {
	var out struct {
		Balance models.Amount `json:"balance"`
	}
	if err := c.do(ctx, http.MethodGet, "/balance", nil, &out); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Balance, nil
}

// GetDefaultTradeSize returns the per-swipe trade size.
func (c *HTTPClient) GetDefaultTradeSize(ctx context.Context) (models.Amount, error) {
	var out amountBody
	if err := c.do(ctx, http.MethodGet, "/default-swap-amount", nil, &out); err != nil {
		return 0, fmt.Errorf("get default swap amount: %w", err)
	}
	return out.Amount, nil
}

// SetDefaultTradeSize stores the per-swipe trade size.
func (c *HTTPClient) SetDefaultTradeSize(ctx context.Context, amount models.Amount) (models.Amount, error) {
	var out amountBody
	if err := c.do(ctx, http.MethodPut, "/default-swap-amount", amountBody{Amount: amount}, &out); err != nil {
		return 0, fmt.Errorf("set default swap amount: %w", err)
	}
	return out.Amount, nil
}

// Deposit credits the base-currency balance.
func (c *HTTPClient) Deposit(ctx context.Context, amount models.Amount) (models.TradeResult, error) {
	var out transactionResult
	if err := c.do(ctx, http.MethodPost, "/deposit", amountBody{Amount: amount}, &out); err != nil {
		return models.TradeResult{}, fmt.Errorf("deposit: %w", err)
	}
	return out.toModel(), nil
}

// ════════════════════════════════════════════════════════════════════
// Swaps
// ════════════════════════════════════════════════════════════════════

type swapRequest struct {
	TokenID string        `json:"token_id"`
	Amount  models.Amount `json:"amount"`
}

// transactionResult is the gateway's swap/deposit answer.
type transactionResult struct {
	Success         bool           `json:"success"`
	Message         string         `json:"message"`
	NewICPBalance   models.Amount  `json:"new_icp_balance"`
	NewTokenBalance *models.Amount `json:"new_token_balance"`
}

func (t transactionResult) toModel() models.TradeResult {
	return models.TradeResult{
		Success:         t.Success,
		NewBalance:      t.NewICPBalance,
		NewTokenBalance: t.NewTokenBalance,
		Message:         t.Message,
	}
}

// SwapBaseToToken spends amount of the base currency on symbol.
func (c *HTTPClient) SwapBaseToToken(ctx context.Context, symbol string, amount models.Amount) (models.TradeResult, error) {
	var out transactionResult
	if err := c.do(ctx, http.MethodPost, "/swap/icp-to-token", swapRequest{TokenID: symbol, Amount: amount}, &out); err != nil {
		return models.TradeResult{}, fmt.Errorf("swap %s: %w", symbol, err)
	}
	return out.toModel(), nil
}

// SwapTokenToBase sells amount of symbol.
func (c *HTTPClient) SwapTokenToBase(ctx context.Context, symbol string, amount models.Amount) (models.TradeResult, error) {
	var out transactionResult
	if err := c.do(ctx, http.MethodPost, "/swap/token-to-icp", swapRequest{TokenID: symbol, Amount: amount}, &out); err != nil {
		return models.TradeResult{}, fmt.Errorf("sell %s: %w", symbol, err)
	}
	return out.toModel(), nil
}

// GetPortfolio returns balances and totals.
func (c *HTTPClient) GetPortfolio(ctx context.Context) (models.Portfolio, error) {
	var out struct {
		ICPBalance        models.Amount `json:"icp_balance"`
		DefaultSwapAmount models.Amount `json:"default_swap_amount"`
		TotalDeposits     models.Amount `json:"total_deposits"`
		TotalSwaps        models.Amount `json:"total_swaps"`
		TokenBalances     []struct {
			TokenID string        `json:"token_id"`
			Amount  models.Amount `json:"amount"`
		} `json:"token_balances"`
	}
	if err := c.do(ctx, http.MethodGet, "/portfolio", nil, &out); err != nil {
		return models.Portfolio{}, fmt.Errorf("get portfolio: %w", err)
	}

	p := models.Portfolio{
		BaseBalance:      out.ICPBalance,
		DefaultTradeSize: out.DefaultSwapAmount,
		TotalDeposits:    out.TotalDeposits,
		TotalSwaps:       out.TotalSwaps,
		TokenBalances:    make([]models.TokenBalance, 0, len(out.TokenBalances)),
	}
	for _, tb := range out.TokenBalances {
		p.TokenBalances = append(p.TokenBalances, models.TokenBalance{Symbol: tb.TokenID, Amount: tb.Amount})
	}
	return p, nil
}

// ════════════════════════════════════════════════════════════════════
// HTTP Helpers
// ════════════════════════════════════════════════════════════════════

func (c *HTTPClient) hasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrNotAuthenticated
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: wallet gateway HTTP %d: %s", ErrTransport, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}
