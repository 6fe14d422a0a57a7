package catalog

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

const dexscreenerURL = "https://dexscreener.com/ethereum/0x..."

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// baseTokens is the meme-coin table every static category derives from.
func baseTokens() []models.Candidate {
	return []models.Candidate{
		{
			ID: "doge", Symbol: "DOGE", Name: "Dogecoin",
			Price: d("0.072345"), PriceChangePercent: d("5.67"),
			MarketCapUSD: d("10500000000"), LiquidityUSD: d("45000000"), FullyDilutedValueUSD: d("10600000000"),
			PairCreatedAt: time.Unix(1640995200, 0).UTC(),
			URL:           dexscreenerURL, Icon: models.IconDoge, Origin: models.OriginStatic,
		},
		{
			ID: "shib", Symbol: "SHIB", Name: "Shiba Inu",
			Price: d("0.000008234"), PriceChangePercent: d("-2.34"),
			MarketCapUSD: d("4800000000"), LiquidityUSD: d("28000000"), FullyDilutedValueUSD: d("4850000000"),
			PairCreatedAt: time.Unix(1629936000, 0).UTC(),
			URL:           dexscreenerURL, Icon: models.IconShib, Origin: models.OriginStatic,
		},
		{
			ID: "pepe", Symbol: "PEPE", Name: "Pepe",
			Price: d("0.00000123"), PriceChangePercent: d("12.45"),
			MarketCapUSD: d("520000000"), LiquidityUSD: d("15000000"), FullyDilutedValueUSD: d("520000000"),
			PairCreatedAt: time.Unix(1681776000, 0).UTC(),
			URL:           dexscreenerURL, Icon: models.IconPepe, Origin: models.OriginStatic,
		},
		{
			ID: "floki", Symbol: "FLOKI", Name: "Floki Inu",
			Price: d("0.00003456"), PriceChangePercent: d("8.92"),
			MarketCapUSD: d("330000000"), LiquidityUSD: d("12000000"), FullyDilutedValueUSD: d("340000000"),
			PairCreatedAt: time.Unix(1625097600, 0).UTC(),
			URL:           dexscreenerURL, Icon: models.IconFloki, Origin: models.OriginStatic,
		},
		{
			ID: "babydoge", Symbol: "BABYDOGE", Name: "Baby Doge Coin",
			Price: d("0.0000000023"), PriceChangePercent: d("-1.23"),
			MarketCapUSD: d("160000000"), LiquidityUSD: d("8000000"), FullyDilutedValueUSD: d("165000000"),
			PairCreatedAt: time.Unix(1623456000, 0).UTC(),
			URL:           dexscreenerURL, Icon: models.IconBabyDoge, Origin: models.OriginStatic,
		},
	}
}

var (
	riskyLiquidityFactor  = d("0.3")
	launchedMarketCapRate = d("0.1")
)

// build derives the table for a known category key.
func (c *Catalog) build(key string) []models.Candidate {
	tokens := baseTokens()

	switch key {
	case "risky-degens":
		c.withRand(func(r *rand.Rand) {
			for i := range tokens {
				tokens[i].PriceChangePercent = decimal.NewFromFloat(r.Float64()*200 - 100).Round(2)
				tokens[i].LiquidityUSD = tokens[i].LiquidityUSD.Mul(riskyLiquidityFactor)
			}
		})
	case "newly-launched":
		now := c.now()
		c.withRand(func(r *rand.Rand) {
			for i := range tokens {
				age := time.Duration(r.Int64N(int64(7 * 24 * time.Hour)))
				tokens[i].PairCreatedAt = now.Add(-age).Truncate(time.Second)
				tokens[i].MarketCapUSD = tokens[i].MarketCapUSD.Mul(launchedMarketCapRate)
			}
		})
	case "blue-chips":
		btc, eth := tokens[0], tokens[1]
		btc.ID, btc.Symbol, btc.Name, btc.Icon = "btc", "BTC", "Bitcoin", models.IconBTC
		btc.Price, btc.MarketCapUSD, btc.LiquidityUSD = d("43250.67"), d("850000000000"), d("2000000000")
		eth.ID, eth.Symbol, eth.Name, eth.Icon = "eth", "ETH", "Ethereum", models.IconETH
		eth.Price, eth.MarketCapUSD, eth.LiquidityUSD = d("2650.43"), d("320000000000"), d("1500000000")
		tokens = []models.Candidate{btc, eth}
	case "ai-analyzed":
		c.withRand(func(r *rand.Rand) {
			for i := range tokens {
				tokens[i].AIScore = 60 + r.IntN(40)
			}
		})
	}
	return tokens
}
