package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lokeshwaran100/ic-swipe/internal/config"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// PaperWallet
// ════════════════════════════════════════════════════════════════════

func newTestPaper() *PaperWallet {
	return NewPaperWallet(PaperConfig{Principal: "alice", InitialBalance: 1000, DefaultTradeSize: 500})
}

func TestPaperIdentity(t *testing.T) {
	ctx := context.Background()
	pw := newTestPaper()

	p, err := pw.Principal(ctx)
	if err != nil || p != "alice" {
		t.Fatalf("Principal: got %q, %v", p, err)
	}

	pw.SetPrincipal("")
	if ok, _ := pw.IsAuthenticated(ctx); ok {
		t.Error("should be signed out")
	}
	if _, err := pw.Principal(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestPaperSwapBaseToToken(t *testing.T) {
	ctx := context.Background()
	pw := newTestPaper()

	res, err := pw.SwapBaseToToken(ctx, "DOGE", 400)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.NewBalance != 600 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.NewTokenBalance == nil || *res.NewTokenBalance != 400 {
		t.Fatalf("token balance: %v", res.NewTokenBalance)
	}
	if res.Message != "Successfully swapped 4.00 ICP to 4.00 DOGE tokens" {
		t.Errorf("message: %q", res.Message)
	}

	res, _ = pw.SwapBaseToToken(ctx, "DOGE", 100)
	if *res.NewTokenBalance != 500 {
		t.Errorf("token balance should accumulate, got %d", *res.NewTokenBalance)
	}
}

func TestPaperSwapBusinessFailures(t *testing.T) {
	ctx := context.Background()
	pw := newTestPaper()

	res, err := pw.SwapBaseToToken(ctx, "DOGE", 0)
	if err != nil || res.Success || res.Message != "Swap amount must be greater than 0" {
		t.Fatalf("zero amount: %+v, %v", res, err)
	}

	res, err = pw.SwapBaseToToken(ctx, "DOGE", 1500)
	if err != nil || res.Success {
		t.Fatalf("insufficient: %+v, %v", res, err)
	}
	if res.Message != "Insufficient ICP balance. Available: 10.00, Required: 15.00" {
		t.Errorf("message: %q", res.Message)
	}
	if res.NewBalance != 1000 {
		t.Errorf("balance should be unchanged, got %d", res.NewBalance)
	}
}

func TestPaperSwapTokenToBase(t *testing.T) {
	ctx := context.Background()
	pw := newTestPaper()
	pw.SwapBaseToToken(ctx, "PEPE", 300)

	res, _ := pw.SwapTokenToBase(ctx, "PEPE", 500)
	if res.Success || !strings.HasPrefix(res.Message, "Insufficient PEPE token balance") {
		t.Fatalf("oversell: %+v", res)
	}

	res, _ = pw.SwapTokenToBase(ctx, "PEPE", 300)
	if !res.Success || res.NewBalance != 1000 || *res.NewTokenBalance != 0 {
		t.Fatalf("sell: %+v", res)
	}

	pf, _ := pw.GetPortfolio(ctx)
	if len(pf.TokenBalances) != 0 {
		t.Errorf("zero balances should be removed: %+v", pf.TokenBalances)
	}
}

func TestPaperDepositAndPortfolio(t *testing.T) {
	ctx := context.Background()
	pw := newTestPaper()

	res, _ := pw.Deposit(ctx, 0)
	if res.Success {
		t.Fatal("zero deposit should fail")
	}
	res, _ = pw.Deposit(ctx, 250)
	if !res.Success || res.NewBalance != 1250 || res.Message != "Successfully deposited 2.50 ICP" {
		t.Fatalf("deposit: %+v", res)
	}

	pw.SwapBaseToToken(ctx, "SHIB", 100)
	pw.SwapBaseToToken(ctx, "DOGE", 50)

	pf, err := pw.GetPortfolio(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if pf.BaseBalance != 1100 || pf.TotalDeposits != 1250 || pf.TotalSwaps != 150 || pf.DefaultTradeSize != 500 {
		t.Errorf("portfolio: %+v", pf)
	}
	if len(pf.TokenBalances) != 2 || pf.TokenBalances[0].Symbol != "DOGE" {
		t.Errorf("token balances should be sorted: %+v", pf.TokenBalances)
	}
}

func TestPaperRefusesOverflowingCredits(t *testing.T) {
	ctx := context.Background()

	pw := newTestPaper()
	res, err := pw.Deposit(ctx, math.MaxUint64)
	if err != nil || res.Success || res.NewBalance != 1000 {
		t.Fatalf("wrapping deposit: %+v, %v", res, err)
	}
	if res, _ = pw.Deposit(ctx, models.MaxAmount-1000); !res.Success || res.NewBalance != models.MaxAmount {
		t.Fatalf("deposit to the limit: %+v", res)
	}
	if res, _ = pw.Deposit(ctx, 1); res.Success {
		t.Fatalf("deposit past the limit: %+v", res)
	}

	pw = NewPaperWallet(PaperConfig{Principal: "alice", InitialBalance: math.MaxUint64})
	if bal, _ := pw.GetBalance(ctx); bal != models.MaxAmount {
		t.Fatalf("initial balance should be capped, got %d", bal)
	}
	pw.SwapBaseToToken(ctx, "DOGE", 100)
	pw.Deposit(ctx, 100)
	res, _ = pw.SwapTokenToBase(ctx, "DOGE", 100)
	if res.Success || res.NewBalance != models.MaxAmount || *res.NewTokenBalance != 100 {
		t.Fatalf("sell past the limit: %+v", res)
	}

	pw = NewPaperWallet(PaperConfig{Principal: "alice", InitialBalance: models.MaxAmount})
	pw.SwapBaseToToken(ctx, "PEPE", models.MaxAmount)
	pw.Deposit(ctx, 1)
	res, _ = pw.SwapBaseToToken(ctx, "PEPE", 1)
	if res.Success || res.NewBalance != 1 || *res.NewTokenBalance != models.MaxAmount {
		t.Fatalf("token balance past the limit: %+v", res)
	}
	if pf, _ := pw.GetPortfolio(ctx); pf.BaseBalance != 1 || pf.TotalSwaps != models.MaxAmount {
		t.Errorf("portfolio after refused swap: %+v", pf)
	}
}

func TestPaperLatencyHonoursContext(t *testing.T) {
	pw := NewPaperWallet(PaperConfig{Principal: "a", Latency: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := pw.GetBalance(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Wallet.Provider = "paper"
	cfg.Wallet.Paper.InitialBalance = 700
	c, err := NewClientFromConfig(cfg)
	if err != nil || c.Name() != "paper" {
		t.Fatalf("paper: %v, %v", c, err)
	}
	if p, _ := c.Principal(context.Background()); p != DefaultPaperPrincipal {
		t.Errorf("principal: %q", p)
	}
	if b, _ := c.GetBalance(context.Background()); b != 700 {
		t.Errorf("balance: %d", b)
	}

	cfg.Wallet.Provider = "http"
	if c, _ := NewClientFromConfig(cfg); c.Name() != "http" {
		t.Errorf("expected http client")
	}

	cfg.Wallet.Provider = "ledger9000"
	if _, err := NewClientFromConfig(cfg); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// HTTPClient
// ════════════════════════════════════════════════════════════════════

func newGateway(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"principal":"abc-123"}`))
	})
	mux.HandleFunc("/balance", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":1000}`))
	})
	mux.HandleFunc("/default-swap-amount", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			var body amountBody
			json.NewDecoder(r.Body).Decode(&body)
			json.NewEncoder(w).Encode(body)
			return
		}
		w.Write([]byte(`{"amount":500}`))
	})
	mux.HandleFunc("/swap/icp-to-token", func(w http.ResponseWriter, r *http.Request) {
		var req swapRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.TokenID != "DOGE" || req.Amount != 500 {
			t.Errorf("unexpected swap request: %+v", req)
		}
		w.Write([]byte(`{"success":true,"message":"ok","new_icp_balance":500,"new_token_balance":500}`))
	})
	mux.HandleFunc("/swap/token-to-icp", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Insufficient DOGE token balance","new_icp_balance":0,"new_token_balance":0}`))
	})
	mux.HandleFunc("/portfolio", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"icp_balance":500,"default_swap_amount":500,"total_deposits":1000,"total_swaps":500,
			"token_balances":[{"token_id":"DOGE","amount":500}]}`))
	})
	mux.HandleFunc("/deposit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("ledger unavailable"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientIdentity(t *testing.T) {
	srv := newGateway(t)
	ctx := context.Background()

	c := NewHTTPClient(HTTPConfig{BaseURL: srv.URL + "/", Token: "tok"})
	p, err := c.Principal(ctx)
	if err != nil || p != "abc-123" {
		t.Fatalf("Principal: %q, %v", p, err)
	}

	c.SetToken("wrong")
	ok, err := c.IsAuthenticated(ctx)
	if ok || err != nil {
		t.Fatalf("bad token: ok=%v err=%v", ok, err)
	}

	c.SetToken("")
	if _, err := c.Principal(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("no token: %v", err)
	}
}

func TestHTTPClientAccountAndSwaps(t *testing.T) {
	srv := newGateway(t)
	ctx := context.Background()
	c := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, Token: "tok"})

	if b, err := c.GetBalance(ctx); err != nil || b != 1000 {
		t.Fatalf("GetBalance: %d, %v", b, err)
	}
	if n, err := c.SetDefaultTradeSize(ctx, 250); err != nil || n != 250 {
		t.Fatalf("SetDefaultTradeSize: %d, %v", n, err)
	}

	res, err := c.SwapBaseToToken(ctx, "DOGE", 500)
	if err != nil || !res.Success || res.NewBalance != 500 || *res.NewTokenBalance != 500 {
		t.Fatalf("swap: %+v, %v", res, err)
	}

	res, err = c.SwapTokenToBase(ctx, "DOGE", 1)
	if err != nil || res.Success {
		t.Fatalf("sell should be a business failure: %+v, %v", res, err)
	}

	pf, err := c.GetPortfolio(ctx)
	if err != nil || len(pf.TokenBalances) != 1 || pf.TokenBalances[0].Symbol != "DOGE" {
		t.Fatalf("portfolio: %+v, %v", pf, err)
	}
}

func TestHTTPClientTransportErrors(t *testing.T) {
	srv := newGateway(t)
	c := NewHTTPClient(HTTPConfig{BaseURL: srv.URL, Token: "tok"})

	_, err := c.Deposit(context.Background(), 100)
	if !errors.Is(err, ErrTransport) || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected transport error, got %v", err)
	}

	down := NewHTTPClient(HTTPConfig{BaseURL: "http://127.0.0.1:1", Token: "tok", Timeout: time.Second})
	if _, err := down.SwapBaseToToken(context.Background(), "DOGE", 1); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

var _ WalletClient = (*PaperWallet)(nil)
var _ WalletClient = (*HTTPClient)(nil)
