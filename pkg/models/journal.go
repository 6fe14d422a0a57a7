package models

import "time"

// Decision is the user's verdict on a candidate.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision maps "accept"/"right" and "reject"/"left" to a Decision.
func ParseDecision(s string) (Decision, bool) {
	switch s {
	case "accept", "right", "buy":
		return DecisionAccept, true
	case "reject", "left", "skip":
		return DecisionReject, true
	}
	return "", false
}

// TradeOutcome classifies how a decision ended.
type TradeOutcome string

const (
	OutcomeSkipped      TradeOutcome = "skipped"      // reject, no wallet call
	OutcomeFilled       TradeOutcome = "filled"       // swap succeeded
	OutcomeRejected     TradeOutcome = "rejected"     // wallet answered success=false
	OutcomeError        TradeOutcome = "error"        // transport failure
	OutcomePrecondition TradeOutcome = "precondition" // refused locally, queue untouched
)

// JournalEntry is one line of the decision audit trail.
type JournalEntry struct {
	ID            string       `json:"id"`
	SessionID     string       `json:"session_id"`
	CandidateID   string       `json:"candidate_id"`
	Symbol        string       `json:"symbol"`
	Decision      Decision     `json:"decision"`
	Outcome       TradeOutcome `json:"outcome"`
	Amount        Amount       `json:"amount"`
	BalanceBefore Amount       `json:"balance_before"`
	BalanceAfter  Amount       `json:"balance_after"`
	Message       string       `json:"message,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
