// Package utils provides common formatting helpers for IcSwipe cards and
// terminals.
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// FormatUSDCompact formats a dollar figure the way token cards show it.
// e.g., 10500000000 → "$10.50B", 45000000 → "$45.00M", 999 → "$999.00"
func FormatUSDCompact(v decimal.Decimal) string {
	prefix := "$"
	if v.IsNegative() {
		prefix = "-$"
		v = v.Abs()
	}

	switch {
	case v.GreaterThanOrEqual(billion):
		return prefix + v.Div(billion).StringFixed(2) + "B"
	case v.GreaterThanOrEqual(million):
		return prefix + v.Div(million).StringFixed(2) + "M"
	case v.GreaterThanOrEqual(thousand):
		return prefix + v.Div(thousand).StringFixed(2) + "K"
	default:
		return prefix + v.StringFixed(2)
	}
}

// FormatPrice formats a token price with six decimals, widening for
// sub-micro prices so they never print as zero.
// e.g., 0.072345 → "$0.072345", 0.0000000023 → "$0.0000000023"
func FormatPrice(p decimal.Decimal) string {
	s := p.StringFixed(6)
	if p.IsPositive() && strings.Trim(s, "0.") == "" {
		s = p.String()
	}
	return "$" + s
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct decimal.Decimal) string {
	if pct.IsNegative() {
		return pct.StringFixed(2) + "%"
	}
	return "+" + pct.StringFixed(2) + "%"
}

// TrustLabel maps a 0..100 score to its display label.
func TrustLabel(score int) string {
	switch {
	case score >= 80:
		return "High Trust"
	case score >= 60:
		return "Medium Trust"
	case score >= 40:
		return "Low Trust"
	default:
		return "Very Low Trust"
	}
}

// NormalizeSymbol converts user input to a trade-routing symbol.
// e.g., " $doge " → "DOGE"
func NormalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	return strings.ToUpper(strings.TrimSpace(s))
}
