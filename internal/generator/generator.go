// Package generator asks an LLM for token candidates that match a free-form
// prompt. Output is best effort: callers are expected to fall back to a
// local table when Generate fails.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lokeshwaran100/ic-swipe/internal/infra"
	"github.com/lokeshwaran100/ic-swipe/internal/llm"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// MaxCandidates is the most candidates a single generation may yield.
const MaxCandidates = 5

var (
	ErrEmptyPrompt = errors.New("generator: empty prompt")
	ErrRateLimited = errors.New("generator: rate limited")
	ErrNoJSON      = errors.New("generator: no JSON array in model output")
	ErrNoTokens    = errors.New("generator: model returned no tokens")
)

// jsonArray matches the outermost JSON array in a model reply. Models
// often wrap the payload in prose or code fences.
var jsonArray = regexp.MustCompile(`\[[\s\S]*\]`)

// Generator implements catalog.TokenGenerator on top of an LLM provider.
type Generator struct {
	provider llm.LLMProvider
	limiter  *infra.RateLimiter
	opts     llm.ChatOptions
	now      func() time.Time
	log      *logrus.Entry
}

// Option configures a Generator.
type Option func(*Generator)

// WithRateLimit caps generations to perMinute calls. Zero disables the cap.
func WithRateLimit(perMinute int) Option {
	return func(g *Generator) {
		if perMinute > 0 {
			g.limiter = infra.NewRateLimiter(perMinute, time.Minute/time.Duration(perMinute))
		}
	}
}

// WithChatOptions overrides the model, temperature and token limit.
func WithChatOptions(opts llm.ChatOptions) Option {
	return func(g *Generator) { g.opts = opts }
}

// WithLogger sets the generator's logger.
func WithLogger(log *logrus.Logger) Option {
	return func(g *Generator) { g.log = infra.Component(log, "generator") }
}

// New creates a Generator backed by provider (typically an *llm.Router).
func New(provider llm.LLMProvider, opts ...Option) *Generator {
	g := &Generator{
		provider: provider,
		opts:     llm.ChatOptions{Temperature: 0.7, MaxTokens: 2048},
		now:      time.Now,
		log:      infra.Component(nil, "generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.opts.JSON = true
	return g
}

// Generate returns up to MaxCandidates AI-generated candidates for prompt.
// Fields the model omitted are left at their zero value.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]models.Candidate, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if g.limiter != nil && !g.limiter.Allow() {
		return nil, ErrRateLimited
	}

	opts := g.opts
	resp, err := g.provider.Chat(ctx, []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(buildPrompt(prompt)),
	}, &opts)
	if err != nil {
		return nil, fmt.Errorf("generator: chat: %w", err)
	}

	cands, err := Parse(resp.Content, g.now())
	if err != nil {
		return nil, err
	}
	g.log.WithFields(logrus.Fields{
		"prompt":   prompt,
		"count":    len(cands),
		"provider": resp.Provider,
	}).Debug("generated candidates")
	return cands, nil
}

// rawToken is the shape the model is asked to produce. Numbers go through
// decimal.Decimal so quoted and bare values both decode.
type rawToken struct {
	Name         string           `json:"name"`
	Symbol       string           `json:"symbol"`
	Price        decimal.Decimal  `json:"price"`
	Change24h    *decimal.Decimal `json:"change_24h"`
	MarketCap    decimal.Decimal  `json:"market_cap"`
	LiquidityUSD decimal.Decimal  `json:"liquidity_usd"`
	FDV          decimal.Decimal  `json:"fdv"`
	Volume24h    decimal.Decimal  `json:"volume_24h"`
	Holders      decimal.Decimal  `json:"holders"`
	PairAgeDays  decimal.Decimal  `json:"pair_age_days"`
	URL          string           `json:"url"`
	Description  string           `json:"description"`
	Reasoning    string           `json:"reasoning"`
	Category     string           `json:"category"`
	RiskLevel    string           `json:"risk_level"`
	Website      string           `json:"website"`
	Twitter      string           `json:"twitter"`
}

// Parse extracts candidates from a model reply. At most MaxCandidates are
// returned; ids are positional ("ai-1", "ai-2", ...).
func Parse(text string, now time.Time) ([]models.Candidate, error) {
	match := jsonArray.FindString(text)
	if match == "" {
		return nil, ErrNoJSON
	}

	var raws []rawToken
	if err := json.Unmarshal([]byte(match), &raws); err != nil {
		return nil, fmt.Errorf("generator: decode tokens: %w", err)
	}
	if len(raws) == 0 {
		return nil, ErrNoTokens
	}
	if len(raws) > MaxCandidates {
		raws = raws[:MaxCandidates]
	}

	out := make([]models.Candidate, 0, len(raws))
	for i, r := range raws {
		c := models.Candidate{
			ID:                   fmt.Sprintf("ai-%d", i+1),
			Symbol:               strings.ToUpper(strings.TrimSpace(r.Symbol)),
			Name:                 strings.TrimSpace(r.Name),
			Price:                r.Price,
			MarketCapUSD:         r.MarketCap,
			LiquidityUSD:         r.LiquidityUSD,
			FullyDilutedValueUSD: r.FDV,
			Volume24hUSD:         r.Volume24h,
			Holders:              int(r.Holders.IntPart()),
			URL:                  r.URL,
			Description:          r.Description,
			Website:              r.Website,
			Twitter:              r.Twitter,
			Icon:                 models.IconAI,
			Origin:               models.OriginAIGenerated,
			Reasoning:            r.Reasoning,
			Category:             r.Category,
		}
		if r.Change24h != nil {
			c.PriceChangePercent = *r.Change24h
		}
		if r.RiskLevel != "" {
			c.RiskLevel = models.ParseRiskLevel(r.RiskLevel)
		}
		if r.PairAgeDays.IsPositive() {
			age := time.Duration(r.PairAgeDays.Mul(decimal.NewFromInt(int64(24 * time.Hour))).IntPart())
			c.PairCreatedAt = now.Add(-age)
		}
		out = append(out, c)
	}
	return out, nil
}

const systemPrompt = `You are a crypto token scout. You answer with a JSON array only, no prose and no code fences.`

func buildPrompt(userPrompt string) string {
	return fmt.Sprintf(`The user is looking for: %q

Propose 4 or 5 plausible tokens that match. Reply with a JSON array where each element has:
  "name"          full token name
  "symbol"        3-5 uppercase characters
  "price"         USD price as a number
  "change_24h"    24h price change in percent, between -80 and 300
  "market_cap"    USD market cap, 50000 to 100000000
  "liquidity_usd" USD liquidity in the main pair
  "fdv"           fully diluted valuation in USD
  "volume_24h"    24h volume in USD
  "holders"       holder count
  "pair_age_days" days since the trading pair was created, 1 to 90
  "description"   one sentence on what the token does
  "reasoning"     why it matches the user's request
  "category"      one of AI, DeFi, Gaming, Meme, Infra
  "risk_level"    Low, Medium or High
  "website"       project URL
  "twitter"       project twitter URL

Mix positive and negative price moves and give every token a distinct use case.`, userPrompt)
}
