// Package catalog produces the ordered candidate lists a swipe queue is
// built from: fixed category tables, or prompt-driven AI generation with a
// local fallback.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lokeshwaran100/ic-swipe/internal/infra"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// DefaultCategory is used when a category key is unknown.
const DefaultCategory = "meme-coins"

// ErrUnknownCategory is returned by the strict Category lookup.
var ErrUnknownCategory = errors.New("catalog: unknown category")

// TokenGenerator produces AI-generated candidates for a prompt.
type TokenGenerator interface {
	Generate(ctx context.Context, prompt string) ([]models.Candidate, error)
}

// Category describes one static category.
type Category struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var categories = []Category{
	{Key: "meme-coins", Title: "Meme Coins", Description: "Popular and trending meme tokens on ICP"},
	{Key: "risky-degens", Title: "Risky Degens", Description: "High risk, high reward tokens"},
	{Key: "newly-launched", Title: "Newly Launched", Description: "Recently launched tokens on Internet Computer"},
	{Key: "blue-chips", Title: "Blue Chips", Description: "Established and trusted ICP tokens"},
	{Key: "ai-analyzed", Title: "AI Analyzed", Description: "AI-recommended tokens based on ICP data"},
}

// Catalog is safe for concurrent use.
type Catalog struct {
	gen             TokenGenerator
	cache           *infra.Cache[[]models.Candidate]
	defaultCategory string
	now             func() time.Time
	log             *logrus.Entry

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithGenerator sets the AI generator. Without one every generated load
// returns the fallback table.
func WithGenerator(gen TokenGenerator) Option {
	return func(c *Catalog) { c.gen = gen }
}

// WithCacheTTL caches generated lists per prompt. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Catalog) { c.cache = infra.NewCache[[]models.Candidate](ttl) }
}

// WithDefaultCategory overrides the category unknown keys resolve to.
func WithDefaultCategory(key string) Option {
	return func(c *Catalog) {
		if _, ok := lookupCategory(key); ok {
			c.defaultCategory = key
		}
	}
}

// WithSeed makes the random category variants and back-fill deterministic.
func WithSeed(seed uint64) Option {
	return func(c *Catalog) { c.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithLogger sets the catalog's logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Catalog) { c.log = infra.Component(log, "catalog") }
}

// New creates a Catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		cache:           infra.NewCache[[]models.Candidate](0),
		defaultCategory: DefaultCategory,
		now:             time.Now,
		log:             infra.Component(nil, "catalog"),
		rng:             rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categories lists the static categories in display order.
func (c *Catalog) Categories() []Category {
	return slices.Clone(categories)
}

// Title returns the display title for key, or "Tokens" when unknown.
func Title(key string) string {
	if cat, ok := lookupCategory(key); ok {
		return cat.Title
	}
	return "Tokens"
}

// Category returns the candidates for key, or ErrUnknownCategory.
func (c *Catalog) Category(key string) ([]models.Candidate, error) {
	if _, ok := lookupCategory(key); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
	}
	return c.build(key), nil
}

// LoadStatic returns the candidates for key. Unknown keys resolve to the
// default category; it never fails.
func (c *Catalog) LoadStatic(key string) []models.Candidate {
	if _, ok := lookupCategory(key); !ok {
		c.log.WithField("category", key).Debug("unknown category, using default")
		key = c.defaultCategory
	}
	return c.build(key)
}

// LoadGenerated returns 1..5 AI-generated candidates for prompt. Any
// generator failure is logged and answered with the fallback table.
func (c *Catalog) LoadGenerated(ctx context.Context, prompt string) []models.Candidate {
	key := strings.ToLower(strings.TrimSpace(prompt))
	if cached, ok := c.cache.Get(key); ok {
		return slices.Clone(cached)
	}

	if c.gen == nil {
		return c.Fallback(prompt)
	}

	cands, err := c.gen.Generate(ctx, prompt)
	if err == nil && len(cands) == 0 {
		err = errors.New("no candidates")
	}
	if err != nil {
		c.log.WithError(err).WithField("prompt", prompt).Warn("generation failed, using fallback tokens")
		return c.Fallback(prompt)
	}

	if len(cands) > maxGenerated {
		cands = cands[:maxGenerated]
	}
	out := make([]models.Candidate, len(cands))
	c.withRand(func(r *rand.Rand) {
		now := c.now()
		seen := make(map[string]bool, len(cands))
		for i, cand := range cands {
			cand = backfill(cand, i, prompt, r, now)
			if seen[cand.ID] {
				cand.ID = uniqueID(cand.ID, i, seen)
			}
			seen[cand.ID] = true
			out[i] = cand
		}
	})

	c.cache.Set(key, out)
	return slices.Clone(out)
}

// CachedPrompts returns the number of generated lists in the cache,
// expired ones included until the next PruneCache.
func (c *Catalog) CachedPrompts() int {
	return c.cache.Len()
}

// PruneCache drops expired generated lists and reports how many went.
func (c *Catalog) PruneCache() int {
	n := c.cache.Cleanup()
	if n > 0 {
		c.log.WithField("dropped", n).Debug("pruned generated list cache")
	}
	return n
}

// Fallback returns the fixed table of pre-authored AI candidates for prompt.
func (c *Catalog) Fallback(prompt string) []models.Candidate {
	return fallbackCandidates(prompt, c.now())
}

func (c *Catalog) withRand(fn func(*rand.Rand)) {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	fn(c.rng)
}

func lookupCategory(key string) (Category, bool) {
	for _, cat := range categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return Category{}, false
}
