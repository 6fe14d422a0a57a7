// Package engine implements the swipe decision engine. It owns one queue
// of token candidates, turns drag gestures into accept/reject decisions,
// executes buys through the wallet session and reports every outcome on
// the notification channel.
//
// Accepted trades use advance-then-reconcile: the cursor moves past the
// candidate as soon as the swap is dispatched, and the balance overwrite
// or error notification is applied when the wallet answers. The trading
// lock stays held until then, so no second decision can start.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lokeshwaran100/ic-swipe/internal/config"
	"github.com/lokeshwaran100/ic-swipe/internal/infra"
	"github.com/lokeshwaran100/ic-swipe/internal/journal"
	"github.com/lokeshwaran100/ic-swipe/internal/notify"
	"github.com/lokeshwaran100/ic-swipe/internal/wallet"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Errors & States
// ════════════════════════════════════════════════════════════════════

var (
	// ErrNotAuthenticated is the wallet's sign-in error.
	ErrNotAuthenticated    = wallet.ErrNotAuthenticated
	ErrNoDefaultAmount     = errors.New("engine: default trade size not set")
	ErrInsufficientBalance = errors.New("engine: insufficient balance")
	ErrTradeInFlight       = errors.New("engine: trade in flight")
	ErrExhausted           = errors.New("engine: queue exhausted")
	ErrNotLoaded           = errors.New("engine: queue not loaded")
	ErrAlreadyLoaded       = errors.New("engine: queue already loaded")
	ErrClosed              = errors.New("engine: closed")
)

// IsPrecondition reports whether err refused an accept before any wallet
// call. Such refusals leave the queue untouched.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrNoDefaultAmount) ||
		errors.Is(err, ErrInsufficientBalance)
}

// State is the engine's position in its lifecycle.
type State string

const (
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateDeciding  State = "deciding"
	StateExhausted State = "exhausted"
)

// Defaults for gesture handling and trade execution.
const (
	DefaultSwipeThreshold = 100.0
	DefaultExitOffset     = 500.0
	DefaultTradeTimeout   = 30 * time.Second
)

// Notification lifetimes per outcome.
const (
	ttlPrecondition = 4 * time.Second
	ttlInsufficient = 5 * time.Second
	ttlPurchased    = 5 * time.Second
	ttlSwapFailed   = 4 * time.Second
	ttlSkipped      = 2 * time.Second
)

// Notifier receives the engine's user-facing messages. *notify.Channel
// satisfies it.
type Notifier interface {
	Post(n models.Notification) models.Notification
}

// Outcome describes how one decision was resolved.
type Outcome struct {
	Decision      models.Decision     `json:"decision"`
	Candidate     models.Candidate    `json:"candidate"`
	Result        models.TradeOutcome `json:"result"`
	Amount        models.Amount       `json:"amount,omitempty"`
	Trade         *models.TradeResult `json:"trade,omitempty"`
	BalanceBefore models.Amount       `json:"balance_before"`
	BalanceAfter  models.Amount       `json:"balance_after"`
	Notification  models.Notification `json:"notification"`
	Err           error               `json:"-"`
}

// Snapshot is a point-in-time view of the engine.
type Snapshot struct {
	ID        string             `json:"id"`
	State     State              `json:"state"`
	Cursor    int                `json:"cursor"`
	Length    int                `json:"length"`
	Trading   bool               `json:"trading"`
	Transform Transform          `json:"transform"`
	Current   *models.Candidate  `json:"current,omitempty"`
	Wallet    models.WalletState `json:"wallet"`
}

// ════════════════════════════════════════════════════════════════════
// Engine
// ════════════════════════════════════════════════════════════════════

// Engine drives one candidate queue. It is safe for concurrent use but
// processes decisions one at a time.
type Engine struct {
	id       string
	session  *wallet.Session
	notifier Notifier
	journal  journal.Store
	animator Animator
	log      *logrus.Entry

	threshold    float64
	exitOffset   float64
	tradeTimeout time.Duration

	mu        sync.Mutex
	queue     []models.Candidate
	cursor    int
	state     State
	trading   bool
	transform Transform
	closed    bool

	inflight sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records every decision in store.
func WithJournal(store journal.Store) Option {
	return func(e *Engine) { e.journal = store }
}

// WithAnimator sets the card animator.
func WithAnimator(a Animator) Option {
	return func(e *Engine) {
		if a != nil {
			e.animator = a
		}
	}
}

// WithSwipeThreshold sets the drag distance that turns into a decision.
func WithSwipeThreshold(px float64) Option {
	return func(e *Engine) {
		if px > 0 {
			e.threshold = px
		}
	}
}

// WithExitOffset sets how far the card flies off screen.
func WithExitOffset(px float64) Option {
	return func(e *Engine) {
		if px > 0 {
			e.exitOffset = px
		}
	}
}

// WithTradeTimeout bounds a single swap call.
func WithTradeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tradeTimeout = d
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(log *logrus.Logger) Option {
	return func(e *Engine) { e.log = infra.Component(log, "engine") }
}

// OptionsFromConfig maps the engine section of cfg to options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithSwipeThreshold(cfg.Engine.SwipeThresholdPx),
		WithExitOffset(cfg.Engine.ExitOffsetPx),
		WithTradeTimeout(cfg.TradeTimeout()),
	}
}

// New creates an engine in the Loading state. The session and notifier are
// shared with the caller, who stays responsible for closing them.
func New(session *wallet.Session, notifier Notifier, opts ...Option) *Engine {
	e := &Engine{
		id:           uuid.NewString(),
		session:      session,
		notifier:     notifier,
		animator:     NopAnimator{},
		log:          infra.Component(nil, "engine"),
		threshold:    DefaultSwipeThreshold,
		exitOffset:   DefaultExitOffset,
		tradeTimeout: DefaultTradeTimeout,
		state:        StateLoading,
		transform:    Rest,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithField("queue", e.id)
	return e
}

// ID returns the engine's queue id.
func (e *Engine) ID() string { return e.id }

// Load installs the queue and leaves Loading. An empty queue is exhausted
// immediately.
func (e *Engine) Load(queue []models.Candidate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.state != StateLoading {
		return ErrAlreadyLoaded
	}
	e.queue = append([]models.Candidate(nil), queue...)
	e.cursor = 0
	e.settleStateLocked()
	e.log.WithField("length", len(e.queue)).Info("queue loaded")
	return nil
}

// CurrentCandidate returns the candidate at the cursor, or false once the
// queue is exhausted.
func (e *Engine) CurrentCandidate() (models.Candidate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cursor >= len(e.queue) {
		return models.Candidate{}, false
	}
	return e.queue[e.cursor], true
}

// Snapshot returns the engine's current view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	snap := Snapshot{
		ID:        e.id,
		State:     e.state,
		Cursor:    e.cursor,
		Length:    len(e.queue),
		Trading:   e.trading,
		Transform: e.transform,
	}
	if e.cursor < len(e.queue) {
		c := e.queue[e.cursor]
		snap.Current = &c
	}
	e.mu.Unlock()

	snap.Wallet = e.session.State()
	return snap
}

// Close tears the engine down. A swap already dispatched is left to finish
// on its own timeout: the session is still reconciled but no notification
// is posted. Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.log.WithField("trading", e.trading).Info("engine closed")
}

// Wait blocks until every dispatched swap has been reconciled.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// ════════════════════════════════════════════════════════════════════
// Gestures
// ════════════════════════════════════════════════════════════════════

// OnDragEnd interprets the release of a drag. A release within the
// threshold, or a NaN offset, snaps the card back and reports false. Otherwise the card
// exits in the drag direction, the decision runs, and the card resets for
// the next candidate.
func (e *Engine) OnDragEnd(ctx context.Context, offsetX float64) (Outcome, bool, error) {
	if err := e.checkInteractive(); err != nil {
		return Outcome{}, false, err
	}

	if math.IsNaN(offsetX) || math.Abs(offsetX) <= e.threshold {
		e.setTransform(Rest)
		if err := e.animator.Animate(ctx, Rest); err != nil {
			e.log.WithError(err).Debug("snap-back animation interrupted")
		}
		return Outcome{}, false, nil
	}

	decision, exit := models.DecisionAccept, Transform{X: e.exitOffset, Opacity: 0}
	if offsetX < 0 {
		decision, exit = models.DecisionReject, Transform{X: -e.exitOffset, Opacity: 0}
	}

	e.setTransform(exit)
	if err := e.animator.Animate(ctx, exit); err != nil {
		e.log.WithError(err).Debug("exit animation interrupted")
	}

	out, err := e.Decide(ctx, decision)

	e.setTransform(Rest)
	e.animator.Set(Rest)
	return out, true, err
}

// ════════════════════════════════════════════════════════════════════
// Decisions
// ════════════════════════════════════════════════════════════════════

// Decide runs a decision and waits for its reconciliation. If ctx ends
// first Decide returns ctx.Err() while the swap keeps running detached.
func (e *Engine) Decide(ctx context.Context, d models.Decision) (Outcome, error) {
	ch, err := e.DecideAsync(ctx, d)
	if err != nil {
		return Outcome{}, err
	}
	select {
	case out := <-ch:
		return out, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// DecideAsync dispatches a decision. The returned channel yields exactly
// one Outcome once the decision is reconciled, then closes.
//
// ErrTradeInFlight, ErrExhausted, ErrNotLoaded and ErrClosed are returned
// without a notification. Precondition failures (see IsPrecondition) post
// one and leave the cursor where it was.
func (e *Engine) DecideAsync(ctx context.Context, d models.Decision) (<-chan Outcome, error) {
	e.mu.Lock()
	if err := e.checkInteractiveLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	cand := e.queue[e.cursor]

	switch d {
	case models.DecisionReject:
		e.advanceLocked()
		e.mu.Unlock()
		return e.resolved(ctx, e.skip(cand)), nil

	case models.DecisionAccept:
		state := e.session.State()
		if err := e.checkPreconditions(state); err != nil {
			e.mu.Unlock()
			e.refuse(ctx, cand, state, err)
			return nil, err
		}
		e.trading = true
		e.advanceLocked()
		e.state = StateDeciding
		e.inflight.Add(1)
		e.mu.Unlock()

		ch := make(chan Outcome, 1)
		go e.reconcile(ctx, cand, state, ch)
		return ch, nil

	default:
		e.mu.Unlock()
		return nil, fmt.Errorf("engine: unknown decision %q", d)
	}
}

func (e *Engine) checkPreconditions(state models.WalletState) error {
	if !e.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if state.DefaultTradeSize == 0 {
		return ErrNoDefaultAmount
	}
	if state.Balance < state.DefaultTradeSize {
		return fmt.Errorf("%w: need %s ICP, have %s ICP",
			ErrInsufficientBalance, state.DefaultTradeSize, state.Balance)
	}
	return nil
}

// refuse reports a failed precondition. The queue is untouched.
func (e *Engine) refuse(ctx context.Context, cand models.Candidate, state models.WalletState, err error) {
	var n models.Notification
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		n = notify.Error("Authentication Required",
			"Please login with Internet Identity to purchase tokens", ttlPrecondition)
	case errors.Is(err, ErrNoDefaultAmount):
		n = notify.Error("Default Amount Not Set",
			"Please set your default swap amount in the onboarding page", ttlPrecondition)
	default:
		n = notify.Error("Insufficient Balance",
			fmt.Sprintf("You need %s ICP but only have %s ICP. Please deposit more ICP.",
				state.DefaultTradeSize, state.Balance),
			ttlInsufficient)
	}
	e.post(n)
	e.log.WithFields(logrus.Fields{"symbol": cand.Symbol, "reason": err}).Info("accept refused")
	e.record(ctx, Outcome{
		Decision:      models.DecisionAccept,
		Candidate:     cand,
		Result:        models.OutcomePrecondition,
		Amount:        state.DefaultTradeSize,
		BalanceBefore: state.Balance,
		BalanceAfter:  state.Balance,
		Notification:  n,
		Err:           err,
	})
}

func (e *Engine) skip(cand models.Candidate) Outcome {
	bal := e.session.State().Balance
	n := e.post(notify.Info("Token Skipped 👍", "Passed on "+cand.DisplayName(), ttlSkipped))
	return Outcome{
		Decision:      models.DecisionReject,
		Candidate:     cand,
		Result:        models.OutcomeSkipped,
		BalanceBefore: bal,
		BalanceAfter:  bal,
		Notification:  n,
	}
}

// reconcile performs the swap and applies its result. The swap runs on a
// context detached from the caller so teardown cannot abort it half way.
func (e *Engine) reconcile(ctx context.Context, cand models.Candidate, state models.WalletState, ch chan<- Outcome) {
	defer e.inflight.Done()
	defer close(ch)

	tradeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.tradeTimeout)
	defer cancel()

	size := state.DefaultTradeSize
	out := Outcome{
		Decision:      models.DecisionAccept,
		Candidate:     cand,
		Amount:        size,
		BalanceBefore: state.Balance,
		BalanceAfter:  state.Balance,
	}
	entry := e.log.WithFields(logrus.Fields{"symbol": cand.Symbol, "amount": size.String()})

	res, err := e.session.SwapBaseToToken(tradeCtx, cand.Symbol, size)
	var n models.Notification
	switch {
	case err != nil:
		entry.WithError(err).Error("swap call failed")
		out.Result = models.OutcomeError
		out.Err = err
		n = notify.Error("Swap Error", "Failed to execute swap. Please try again.", ttlSwapFailed)

	case res.Success:
		e.session.ApplyTradeResult(res)
		out.Result = models.OutcomeFilled
		out.Trade = &res
		out.BalanceAfter = res.NewBalance
		entry.WithField("new_balance", res.NewBalance.String()).Info("token purchased")
		n = notify.Success("Token Purchased! 🚀",
			fmt.Sprintf("Successfully swapped %s ICP for %s. New ICP balance: %s",
				size, cand.DisplayName(), res.NewBalance),
			ttlPurchased)

	default:
		out.Result = models.OutcomeRejected
		out.Trade = &res
		msg := res.Message
		if msg == "" {
			msg = "Failed to swap tokens"
		}
		entry.WithField("message", msg).Warn("swap rejected by wallet")
		n = notify.Error("Swap Failed", msg, ttlSwapFailed)
	}

	e.mu.Lock()
	e.trading = false
	closed := e.closed
	e.settleStateLocked()
	e.mu.Unlock()

	if closed {
		out.Notification = n
		entry.Debug("engine closed before reconciliation, notification suppressed")
	} else {
		out.Notification = e.post(n)
	}
	e.record(tradeCtx, out)
	ch <- out
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func (e *Engine) resolved(ctx context.Context, out Outcome) <-chan Outcome {
	e.record(ctx, out)
	ch := make(chan Outcome, 1)
	ch <- out
	close(ch)
	return ch
}

func (e *Engine) post(n models.Notification) models.Notification {
	if e.notifier == nil {
		return n
	}
	return e.notifier.Post(n)
}

func (e *Engine) record(ctx context.Context, out Outcome) {
	if e.journal == nil {
		return
	}
	msg := out.Notification.Message
	if out.Trade != nil && out.Trade.Message != "" {
		msg = out.Trade.Message
	}
	_, err := e.journal.Record(context.WithoutCancel(ctx), models.JournalEntry{
		SessionID:     e.session.ID(),
		CandidateID:   out.Candidate.ID,
		Symbol:        out.Candidate.Symbol,
		Decision:      out.Decision,
		Outcome:       out.Result,
		Amount:        out.Amount,
		BalanceBefore: out.BalanceBefore,
		BalanceAfter:  out.BalanceAfter,
		Message:       msg,
	})
	if err != nil {
		e.log.WithError(err).Warn("journal write failed")
	}
}

func (e *Engine) checkInteractive() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkInteractiveLocked()
}

func (e *Engine) checkInteractiveLocked() error {
	switch {
	case e.closed:
		return ErrClosed
	case e.state == StateLoading:
		return ErrNotLoaded
	case e.trading:
		return ErrTradeInFlight
	case e.cursor >= len(e.queue):
		return ErrExhausted
	}
	return nil
}

// advanceLocked moves the cursor one step, never past the end.
func (e *Engine) advanceLocked() {
	if e.cursor < len(e.queue) {
		e.cursor++
	}
	e.settleStateLocked()
}

func (e *Engine) settleStateLocked() {
	switch {
	case e.trading:
		e.state = StateDeciding
	case e.cursor >= len(e.queue):
		e.state = StateExhausted
	default:
		e.state = StateReady
	}
}

func (e *Engine) setTransform(t Transform) {
	e.mu.Lock()
	e.transform = t
	e.mu.Unlock()
}
