package engine

import "context"

// Transform is the card's visual offset.
type Transform struct {
	X       float64 `json:"x"`
	Opacity float64 `json:"opacity"`
}

// Rest is the card's resting position.
var Rest = Transform{X: 0, Opacity: 1}

// Animator renders card movement. Animate runs a transition and returns
// when it completes; Set jumps without a transition.
type Animator interface {
	Animate(ctx context.Context, to Transform) error
	Set(to Transform)
}

// NopAnimator completes every transition immediately. Headless callers
// such as the HTTP API use it.
type NopAnimator struct{}

func (NopAnimator) Animate(ctx context.Context, _ Transform) error { return ctx.Err() }
func (NopAnimator) Set(Transform)                                  {}
