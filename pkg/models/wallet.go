package models

import (
	"errors"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// MinorUnitExp is the decimal exponent of minor-unit amounts (2 implied decimals).
const MinorUnitExp = -2

// MaxAmount is the largest amount a wallet or journal will hold. It keeps
// every amount representable as a signed 64-bit column.
const MaxAmount Amount = math.MaxInt64

// ErrAmountOverflow is returned when a value exceeds MaxAmount.
var ErrAmountOverflow = errors.New("amount exceeds the maximum supported value")

// Amount is an integer quantity in minor units (ICP × 100).
type Amount uint64

// Decimal converts the amount to major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), MinorUnitExp)
}

// Add returns a+b, or false when the sum would exceed MaxAmount.
func (a Amount) Add(b Amount) (Amount, bool) {
	if a > MaxAmount || b > MaxAmount-a {
		return a, false
	}
	return a + b, true
}

// String formats the amount in major units with two decimals, e.g. "12.50".
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

var maxAmountDecimal = decimal.NewFromInt(int64(MaxAmount))

// AmountFromDecimal converts a major-unit value to minor units, truncating
// anything below the minor unit. Negative values become zero. Values above
// MaxAmount minor units return ErrAmountOverflow.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, nil
	}
	minor := d.Shift(-MinorUnitExp).Truncate(0)
	if minor.GreaterThan(maxAmountDecimal) {
		return 0, ErrAmountOverflow
	}
	return Amount(minor.IntPart()), nil
}

// TradeResult is the wallet's answer to a swap request.
type TradeResult struct {
	Success         bool    `json:"success"`
	NewBalance      Amount  `json:"new_balance"`                 // meaningful when Success
	NewTokenBalance *Amount `json:"new_token_balance,omitempty"`
	Message         string  `json:"message,omitempty"`
}

// TokenBalance is one (symbol, amount) pair of a portfolio.
type TokenBalance struct {
	Symbol string `json:"symbol"`
	Amount Amount `json:"amount"`
}

// Portfolio is the wallet's full view of a user's holdings.
type Portfolio struct {
	BaseBalance      Amount         `json:"base_balance"`
	DefaultTradeSize Amount         `json:"default_trade_size"`
	TotalDeposits    Amount         `json:"total_deposits"`
	TotalSwaps       Amount         `json:"total_swaps"`
	TokenBalances    []TokenBalance `json:"token_balances"`
}

// WalletState is the session-local cache of remote balance and configuration.
type WalletState struct {
	Balance          Amount `json:"balance"`
	DefaultTradeSize Amount `json:"default_trade_size"` // 0 means unset
}
