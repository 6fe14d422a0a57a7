// Package app wires the IcSwipe components from configuration. The API
// server and the CLI commands share this bootstrap.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lokeshwaran100/ic-swipe/internal/catalog"
	"github.com/lokeshwaran100/ic-swipe/internal/config"
	"github.com/lokeshwaran100/ic-swipe/internal/engine"
	"github.com/lokeshwaran100/ic-swipe/internal/generator"
	"github.com/lokeshwaran100/ic-swipe/internal/journal"
	"github.com/lokeshwaran100/ic-swipe/internal/llm"
	"github.com/lokeshwaran100/ic-swipe/internal/notify"
	"github.com/lokeshwaran100/ic-swipe/internal/wallet"
)

// App holds the long-lived components of one signed-in user.
type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	LLM      *llm.Router // nil when no provider is configured
	Catalog  *catalog.Catalog
	Session  *wallet.Session
	Notifier *notify.Channel
	Journal  journal.Store
}

// Build constructs every component. A missing LLM provider is not an
// error: the catalog then serves its local fallback for prompts. A failed
// wallet sign-in is logged and leaves the session signed out.
func Build(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	router, err := llm.NewRouterFromConfig(cfg, log)
	switch {
	case errors.Is(err, llm.ErrNoProviders):
		log.Warn("no LLM provider configured; prompt queues use the local fallback")
	case err != nil:
		return nil, fmt.Errorf("LLM setup failed: %w", err)
	default:
		a.LLM = router
	}

	catOpts := []catalog.Option{
		catalog.WithCacheTTL(time.Duration(cfg.Catalog.CacheTTL) * time.Second),
		catalog.WithDefaultCategory(cfg.Catalog.DefaultCategory),
		catalog.WithLogger(log),
	}
	if a.LLM != nil {
		gen := generator.New(a.LLM,
			generator.WithRateLimit(cfg.Catalog.GenerateRateLimit),
			generator.WithChatOptions(llm.ChatOptions{
				Model:       cfg.LLM.Model,
				Temperature: cfg.LLM.Temperature,
				MaxTokens:   cfg.LLM.MaxTokens,
			}),
			generator.WithLogger(log),
		)
		catOpts = append(catOpts, catalog.WithGenerator(gen))
	}
	a.Catalog = catalog.New(catOpts...)

	client, err := wallet.NewClientFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.Session = wallet.NewSession(client, wallet.WithSessionLogger(log))
	if err := a.Session.Authenticate(ctx); err != nil {
		log.WithError(err).Warn("wallet sign-in failed; accepting trades is disabled")
	}

	a.Notifier = notify.NewChannel(
		notify.WithDefaultTTL(cfg.NotificationTTL()),
		notify.WithLogger(log),
	)

	a.Journal, err = journal.Open(ctx, cfg, log)
	if err != nil {
		a.Notifier.Close()
		a.Session.Close()
		return nil, fmt.Errorf("journal setup failed: %w", err)
	}
	return a, nil
}

// NewEngine creates a swipe engine bound to the app's session, notifier
// and journal.
func (a *App) NewEngine() *engine.Engine {
	opts := append(engine.OptionsFromConfig(a.Config),
		engine.WithJournal(a.Journal),
		engine.WithLogger(a.Log),
	)
	return engine.New(a.Session, a.Notifier, opts...)
}

// Close releases everything Build opened.
func (a *App) Close() {
	a.Notifier.Close()
	a.Session.Close()
	a.Journal.Close()
}
