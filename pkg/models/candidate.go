package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OriginTag records where a candidate came from.
type OriginTag string

const (
	OriginStatic      OriginTag = "static"
	OriginAIGenerated OriginTag = "ai_generated"
)

// RiskLevel is the coarse risk bucket attached to AI-generated candidates.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel normalises a free-form risk label. Unknown labels map to Medium.
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "Low", "low", "LOW":
		return RiskLow
	case "High", "high", "HIGH":
		return RiskHigh
	default:
		return RiskMedium
	}
}

// Candidate is a token proposed to the user for an accept/reject decision.
// Candidates are values: once placed in a queue they are never mutated.
type Candidate struct {
	ID                 string          `json:"id"`
	Symbol             string          `json:"symbol"` // trade-routing key
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	PriceChangePercent decimal.Decimal `json:"price_change_percent"`

	MarketCapUSD         decimal.Decimal `json:"market_cap_usd"`
	LiquidityUSD         decimal.Decimal `json:"liquidity_usd"`
	FullyDilutedValueUSD decimal.Decimal `json:"fdv_usd"`
	Volume24hUSD         decimal.Decimal `json:"volume_24h_usd,omitempty"`
	Holders              int             `json:"holders,omitempty"`
	PairCreatedAt        time.Time       `json:"pair_created_at"`

	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Website     string `json:"website,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Icon        Icon   `json:"icon"`

	Origin OriginTag `json:"origin"`

	// Set only when Origin is OriginAIGenerated.
	Reasoning string    `json:"reasoning,omitempty"`
	Category  string    `json:"category,omitempty"`
	RiskLevel RiskLevel `json:"risk_level,omitempty"`

	// AIScore is populated by the "ai-analyzed" static category (60..100).
	AIScore int `json:"ai_score,omitempty"`
}

// MarshalJSON adds the resolved icon artwork for front-ends.
func (c Candidate) MarshalJSON() ([]byte, error) {
	type plain Candidate
	return json.Marshal(struct {
		plain
		IconAsset IconAsset `json:"icon_asset"`
	}{plain(c), c.Icon.Asset()})
}

// IsGenerated reports whether the candidate came from the AI generator.
func (c Candidate) IsGenerated() bool {
	return c.Origin == OriginAIGenerated
}

// DisplayName returns the name shown in notifications, falling back to the symbol.
func (c Candidate) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Symbol
}
