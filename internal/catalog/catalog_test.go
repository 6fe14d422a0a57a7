package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokeshwaran100/ic-swipe/internal/generator"
	"github.com/lokeshwaran100/ic-swipe/internal/llm"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestCatalog(opts ...Option) *Catalog {
	base := []Option{WithSeed(42), WithClock(func() time.Time { return fixedNow })}
	return New(append(base, opts...)...)
}

type fakeGenerator struct {
	cands []models.Candidate
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) ([]models.Candidate, error) {
	f.calls++
	return f.cands, f.err
}

// ── Static categories ──

func TestCategoriesOrder(t *testing.T) {
	cats := newTestCatalog().Categories()
	require.Len(t, cats, 5)
	assert.Equal(t, "meme-coins", cats[0].Key)
	assert.Equal(t, "ai-analyzed", cats[4].Key)
	assert.Equal(t, "Blue Chips", Title("blue-chips"))
	assert.Equal(t, "Tokens", Title("nope"))
}

func TestLoadStaticMemeCoins(t *testing.T) {
	cands := newTestCatalog().LoadStatic("meme-coins")
	require.Len(t, cands, 5)

	symbols := make([]string, len(cands))
	for i, c := range cands {
		symbols[i] = c.Symbol
		assert.Equal(t, models.OriginStatic, c.Origin)
	}
	assert.Equal(t, []string{"DOGE", "SHIB", "PEPE", "FLOKI", "BABYDOGE"}, symbols)
	assert.Equal(t, "0.072345", cands[0].Price.String())
}

func TestLoadStaticUnknownFallsBackToDefault(t *testing.T) {
	c := newTestCatalog()
	assert.Equal(t, c.LoadStatic("meme-coins"), c.LoadStatic("does-not-exist"))
}

func TestCategoryStrict(t *testing.T) {
	_, err := newTestCatalog().Category("does-not-exist")
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	cands, err := newTestCatalog().Category("blue-chips")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "BTC", cands[0].Symbol)
	assert.Equal(t, models.IconBTC, cands[0].Icon)
	assert.Equal(t, "43250.67", cands[0].Price.String())
	assert.Equal(t, "ETH", cands[1].Symbol)
	assert.True(t, cands[1].LiquidityUSD.Equal(decimal.NewFromInt(1_500_000_000)))
}

func TestRiskyDegensVariant(t *testing.T) {
	base := baseTokens()
	cands := newTestCatalog().LoadStatic("risky-degens")
	require.Len(t, cands, len(base))

	hundred := decimal.NewFromInt(100)
	for i, c := range cands {
		assert.True(t, c.LiquidityUSD.Equal(base[i].LiquidityUSD.Mul(d("0.3"))), c.Symbol)
		assert.True(t, c.PriceChangePercent.Abs().LessThanOrEqual(hundred), c.Symbol)
	}
}

func TestNewlyLaunchedVariant(t *testing.T) {
	base := baseTokens()
	for i, c := range newTestCatalog().LoadStatic("newly-launched") {
		assert.True(t, c.MarketCapUSD.Equal(base[i].MarketCapUSD.Mul(d("0.1"))), c.Symbol)
		assert.False(t, c.PairCreatedAt.After(fixedNow), c.Symbol)
		assert.True(t, fixedNow.Sub(c.PairCreatedAt) <= 7*24*time.Hour, c.Symbol)
	}
}

func TestAIAnalyzedScores(t *testing.T) {
	for _, c := range newTestCatalog().LoadStatic("ai-analyzed") {
		assert.GreaterOrEqual(t, c.AIScore, 60)
		assert.LessOrEqual(t, c.AIScore, 100)
	}
}

func TestSeededVariantsAreDeterministic(t *testing.T) {
	a := newTestCatalog().LoadStatic("risky-degens")
	b := newTestCatalog().LoadStatic("risky-degens")
	assert.Equal(t, a, b)
}

// ── Generated ──

func TestLoadGeneratedWithoutGeneratorUsesFallback(t *testing.T) {
	cands := newTestCatalog().LoadGenerated(context.Background(), "cats")
	require.Len(t, cands, 4)
	assert.Equal(t, "NEURAL", cands[0].Symbol)
	assert.Contains(t, cands[0].Reasoning, `"cats"`)
	assert.Equal(t, fixedNow.Add(-14*24*time.Hour), cands[0].PairCreatedAt)
}

func TestLoadGeneratedBackfillsMissingFields(t *testing.T) {
	gen := &fakeGenerator{cands: []models.Candidate{
		{ID: "ai-1", Symbol: "PUP", Name: "Pup", Price: d("0.5"), Origin: models.OriginAIGenerated},
		{},
	}}
	cands := newTestCatalog(WithGenerator(gen)).LoadGenerated(context.Background(), "dogs")
	require.Len(t, cands, 2)

	pup := cands[0]
	assert.Equal(t, "0.5", pup.Price.String())
	assert.Equal(t, "https://pup.io", pup.Website)
	assert.Equal(t, "AI", pup.Category)
	assert.Equal(t, models.RiskMedium, pup.RiskLevel)
	assert.Contains(t, pup.Reasoning, `"dogs"`)

	blank := cands[1]
	assert.Equal(t, "ai-2", blank.ID)
	assert.Equal(t, "AI2", blank.Symbol)
	assert.Equal(t, "AI Token 2", blank.Name)
	assert.True(t, blank.Price.IsPositive())
	assert.True(t, blank.Price.LessThanOrEqual(d("0.001")))
	assert.True(t, blank.MarketCapUSD.GreaterThanOrEqual(decimal.NewFromInt(100_000)))
	assert.True(t, blank.MarketCapUSD.LessThan(decimal.NewFromInt(10_100_000)))
	assert.True(t, blank.FullyDilutedValueUSD.GreaterThanOrEqual(blank.MarketCapUSD))
	assert.GreaterOrEqual(t, blank.Holders, 100)
	assert.Less(t, blank.Holders, 5100)
	assert.True(t, fixedNow.Sub(blank.PairCreatedAt) <= 90*24*time.Hour)
	assert.Equal(t, "AI-generated token for dogs", blank.Description)
	for _, c := range cands {
		assert.Equal(t, models.OriginAIGenerated, c.Origin)
		assert.Equal(t, models.IconAI, c.Icon)
	}
}

func TestLoadGeneratedClampsToFive(t *testing.T) {
	many := make([]models.Candidate, 8)
	for i := range many {
		many[i] = models.Candidate{Symbol: "T", Price: d("1")}
	}
	cands := newTestCatalog(WithGenerator(&fakeGenerator{cands: many})).LoadGenerated(context.Background(), "x")
	assert.Len(t, cands, 5)
}

func TestLoadGeneratedFallbackOnError(t *testing.T) {
	for name, gen := range map[string]*fakeGenerator{
		"error": {err: errors.New("boom")},
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			cands := newTestCatalog(WithGenerator(gen)).LoadGenerated(context.Background(), "x")
			assert.Len(t, cands, 4)
		})
	}
}

func TestLoadGeneratedCachesPerPrompt(t *testing.T) {
	gen := &fakeGenerator{cands: []models.Candidate{{Symbol: "ONE"}}}
	c := newTestCatalog(WithGenerator(gen), WithCacheTTL(time.Minute))

	first := c.LoadGenerated(context.Background(), "Dogs")
	second := c.LoadGenerated(context.Background(), "  dogs ")
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, first, second)

	// Callers get their own copy.
	second[0].Symbol = "MUTATED"
	third := c.LoadGenerated(context.Background(), "dogs")
	assert.Equal(t, "ONE", third[0].Symbol)
}

func TestLoadGeneratedUniqueIDs(t *testing.T) {
	gen := &fakeGenerator{cands: []models.Candidate{
		{ID: "dup", Symbol: "A"},
		{ID: "dup", Symbol: "B"},
		{Symbol: "C"},
		{ID: "ai-3", Symbol: "D"},
		{ID: "dup-2", Symbol: "E"},
	}}
	cands := newTestCatalog(WithGenerator(gen)).LoadGenerated(context.Background(), "x")
	require.Len(t, cands, 5)

	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"dup", "dup-2", "ai-3", "ai-3-4", "dup-2-5"}, ids)
}

func TestPruneCache(t *testing.T) {
	gen := &fakeGenerator{cands: []models.Candidate{{Symbol: "ONE"}}}
	c := newTestCatalog(WithGenerator(gen), WithCacheTTL(time.Millisecond))

	c.LoadGenerated(context.Background(), "dogs")
	assert.Equal(t, 1, c.CachedPrompts())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, c.PruneCache())
	assert.Equal(t, 0, c.CachedPrompts())
	assert.Equal(t, 0, c.PruneCache())
}

// A generation request that hits a network error still yields AI candidates.
func TestLoadGeneratedNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gemini, err := llm.NewGeminiProvider("test-key", llm.WithGeminiBaseURL(url))
	require.NoError(t, err)
	router := llm.NewRouter(llm.ProviderGemini, llm.WithMaxRetries(0))
	router.RegisterProvider(gemini)

	c := newTestCatalog(WithGenerator(generator.New(router)))
	cands := c.LoadGenerated(context.Background(), "ai tokens")

	require.NotEmpty(t, cands)
	assert.LessOrEqual(t, len(cands), 5)
	for _, cand := range cands {
		assert.Equal(t, models.OriginAIGenerated, cand.Origin)
		assert.NotEmpty(t, cand.Reasoning)
		assert.NotEmpty(t, cand.Category)
		assert.NotEmpty(t, cand.RiskLevel)
	}
}
