package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

const maxGenerated = 5

// uniqueID derives an id not yet in seen for the candidate at idx.
func uniqueID(id string, idx int, seen map[string]bool) string {
	for n := idx + 1; ; n++ {
		if next := fmt.Sprintf("%s-%d", id, n); !seen[next] {
			return next
		}
	}
}

// backfill fills the optional fields a generated candidate is missing with
// bounded random defaults. Zero values count as missing.
func backfill(c models.Candidate, idx int, prompt string, r *rand.Rand, now time.Time) models.Candidate {
	n := idx + 1
	if c.ID == "" {
		c.ID = fmt.Sprintf("ai-%d", n)
	}
	if c.Name == "" {
		c.Name = fmt.Sprintf("AI Token %d", n)
	}
	if c.Symbol == "" {
		c.Symbol = fmt.Sprintf("AI%d", n)
	}
	if !c.Price.IsPositive() {
		// (0, 0.001]
		c.Price = decimal.NewFromFloat((1 - r.Float64()) * 0.001).Round(8)
		if !c.Price.IsPositive() {
			c.Price = decimal.New(1, -8)
		}
	}
	if c.PriceChangePercent.IsZero() {
		c.PriceChangePercent = decimal.NewFromFloat(r.Float64()*200 - 100).Round(2)
	}
	if !c.MarketCapUSD.IsPositive() {
		c.MarketCapUSD = decimal.NewFromInt(r.Int64N(10_000_000) + 100_000)
	}
	if !c.LiquidityUSD.IsPositive() {
		c.LiquidityUSD = decimal.NewFromInt(r.Int64N(100_000) + 10_000)
	}
	if !c.FullyDilutedValueUSD.IsPositive() {
		c.FullyDilutedValueUSD = c.MarketCapUSD.Add(decimal.NewFromInt(r.Int64N(1_000_000)))
	}
	if !c.Volume24hUSD.IsPositive() {
		c.Volume24hUSD = decimal.NewFromInt(r.Int64N(500_000) + 50_000)
	}
	if c.Holders <= 0 {
		c.Holders = r.IntN(5000) + 100
	}
	if c.PairCreatedAt.IsZero() {
		age := time.Duration(r.Int64N(90*24*3600)) * time.Second
		c.PairCreatedAt = now.Add(-age).Truncate(time.Second)
	}
	if c.URL == "" {
		c.URL = "https://dexscreener.com/ethereum/0x" + randomHex(r, 40)
	}
	if c.Description == "" {
		c.Description = "AI-generated token for " + prompt
	}
	if c.Reasoning == "" {
		c.Reasoning = fmt.Sprintf("This token matches your search for %q based on its innovative features.", prompt)
	}
	if c.Category == "" {
		c.Category = "AI"
	}
	if c.RiskLevel == "" {
		c.RiskLevel = models.RiskMedium
	}
	slug := strings.ToLower(c.Symbol)
	if c.Website == "" {
		c.Website = "https://" + slug + ".io"
	}
	if c.Twitter == "" {
		c.Twitter = "https://twitter.com/" + slug
	}
	c.Icon = models.IconAI
	c.Origin = models.OriginAIGenerated
	return c
}

func randomHex(r *rand.Rand, n int) string {
	const digits = "0123456789abcdef"
	var sb strings.Builder
	sb.Grow(n)
	for range n {
		sb.WriteByte(digits[r.IntN(len(digits))])
	}
	return sb.String()
}

// fallbackCandidates is the pre-authored table served when generation fails.
func fallbackCandidates(prompt string, now time.Time) []models.Candidate {
	daysAgo := func(days int) time.Time {
		return now.Add(-time.Duration(days) * 24 * time.Hour).Truncate(time.Second)
	}
	return []models.Candidate{
		{
			ID: "ai-fallback-1", Symbol: "NEURAL", Name: "Neural Network Protocol",
			Price: d("0.000234"), PriceChangePercent: d("67.89"),
			MarketCapUSD: d("2400000"), LiquidityUSD: d("45000"), FullyDilutedValueUSD: d("2500000"),
			Volume24hUSD: d("180000"), Holders: 1250, PairCreatedAt: daysAgo(14),
			URL:         "https://dexscreener.com/ethereum/0x1a2b3c4d5e6f7890abcdef1234567890abcdef12",
			Description: "AI-powered decentralized trading algorithm with machine learning capabilities",
			Reasoning:   fmt.Sprintf("Matches your search for %q with advanced AI and neural network technology", prompt),
			Category:    "AI", RiskLevel: models.RiskMedium,
			Website: "https://neuralprotocol.io", Twitter: "https://twitter.com/neuralprotocol",
			Icon: models.IconAI, Origin: models.OriginAIGenerated,
		},
		{
			ID: "ai-fallback-2", Symbol: "QLAP", Name: "Quantum Leap Finance",
			Price: d("0.000567"), PriceChangePercent: d("-23.45"),
			MarketCapUSD: d("1800000"), LiquidityUSD: d("32000"), FullyDilutedValueUSD: d("1900000"),
			Volume24hUSD: d("95000"), Holders: 890, PairCreatedAt: daysAgo(21),
			URL:         "https://dexscreener.com/ethereum/0x2b3c4d5e6f7890abcdef1234567890abcdef1234",
			Description: "Next-generation quantum computing for DeFi optimization and yield farming",
			Reasoning:   fmt.Sprintf("Perfect for %q as it represents cutting-edge quantum technology in finance", prompt),
			Category:    "DeFi", RiskLevel: models.RiskHigh,
			Website: "https://quantumleap.finance", Twitter: "https://twitter.com/qlapfinance",
			Icon: models.IconAI, Origin: models.OriginAIGenerated,
		},
		{
			ID: "ai-fallback-3", Symbol: "SCAI", Name: "Smart Contract AI",
			Price: d("0.00123"), PriceChangePercent: d("145.67"),
			MarketCapUSD: d("5600000"), LiquidityUSD: d("89000"), FullyDilutedValueUSD: d("5800000"),
			Volume24hUSD: d("320000"), Holders: 2100, PairCreatedAt: daysAgo(7),
			URL:         "https://dexscreener.com/ethereum/0x3c4d5e6f7890abcdef1234567890abcdef123456",
			Description: "Automated smart contract deployment and optimization using artificial intelligence",
			Reasoning:   fmt.Sprintf("Ideal match for %q combining AI with blockchain automation technology", prompt),
			Category:    "AI", RiskLevel: models.RiskLow,
			Website: "https://smartcontractai.io", Twitter: "https://twitter.com/scai_protocol",
			Icon: models.IconAI, Origin: models.OriginAIGenerated,
		},
		{
			ID: "ai-fallback-4", Symbol: "MVBLD", Name: "MetaVerse Builder",
			Price: d("0.00089"), PriceChangePercent: d("78.23"),
			MarketCapUSD: d("3200000"), LiquidityUSD: d("67000"), FullyDilutedValueUSD: d("3300000"),
			Volume24hUSD: d("210000"), Holders: 1680, PairCreatedAt: daysAgo(35),
			URL:         "https://dexscreener.com/ethereum/0x4d5e6f7890abcdef1234567890abcdef12345678",
			Description: "AI-powered metaverse construction toolkit for creating immersive virtual worlds",
			Reasoning:   fmt.Sprintf("Aligns with %q through innovative AI-driven virtual world creation", prompt),
			Category:    "Gaming", RiskLevel: models.RiskMedium,
			Website: "https://metaversebuilder.xyz", Twitter: "https://twitter.com/mvbld_official",
			Icon: models.IconAI, Origin: models.OriginAIGenerated,
		},
	}
}
