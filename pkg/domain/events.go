package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRoundStart   EventType = "round_start"
	EventOracleCall   EventType = "oracle_call"
	EventCandidate    EventType = "candidate"
	EventLeafDecision EventType = "leaf_decision"
	EventComplete     EventType = "complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// RoundEvent is emitted before the oracle is called for a round.
type RoundEvent struct {
	EventBase
	Round  int `json:"round"`
	Leaves int `json:"leaves"`
}

// OracleEvent reports one batched oracle call.
type OracleEvent struct {
	EventBase
	Round     int           `json:"round"`
	BatchSize int           `json:"batch_size"`
	Latency   time.Duration `json:"latency"`
	Err       error         `json:"-"`
}

// CandidateOutcome is the fate of a predicted mode.
type CandidateOutcome string

const (
	CandidateKept        CandidateOutcome = "kept"
	CandidateProbPruned  CandidateOutcome = "prob_pruned"
	CandidatePolicyPrune CandidateOutcome = "policy_pruned"
	CandidateMerged      CandidateOutcome = "merged"
)

// CandidateEvent reports the outcome of one mode of one parent.
type CandidateEvent struct {
	EventBase
	ParentID   string           `json:"parent_id"`
	ScenarioID string           `json:"scenario_id,omitempty"`
	Mode       int              `json:"mode"`
	Prob       float64          `json:"prob"`
	Outcome    CandidateOutcome `json:"outcome"`
}

// LeafDecision is the state a leaf is left in after a round.
type LeafDecision string

const (
	LeafBranch    LeafDecision = "branch"
	LeafEnd       LeafDecision = "end"
	LeafTerminate LeafDecision = "terminate"
)

// LeafEvent reports the branch decision taken for a leaf.
type LeafEvent struct {
	EventBase
	ScenarioID string       `json:"scenario_id"`
	Depth      int          `json:"depth"`
	Decision   LeafDecision `json:"decision"`
	BranchT    int          `json:"branch_t,omitempty"`
}

// CompleteEvent is emitted once a generation finishes, successfully or not.
type CompleteEvent struct {
	EventBase
	Stats Stats `json:"stats"`
	Err   error `json:"-"`
}

// Hooks defines callbacks for generator observability.
// Nil callbacks are skipped.
type Hooks struct {
	OnRoundStart   func(context.Context, *RoundEvent)
	OnOracleCall   func(context.Context, *OracleEvent)
	OnCandidate    func(context.Context, *CandidateEvent)
	OnLeafDecision func(context.Context, *LeafEvent)
	OnComplete     func(context.Context, *CompleteEvent)
}

// Merge chains two hook sets: h runs first, then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnRoundStart:   chain(h.OnRoundStart, other.OnRoundStart),
		OnOracleCall:   chain(h.OnOracleCall, other.OnOracleCall),
		OnCandidate:    chain(h.OnCandidate, other.OnCandidate),
		OnLeafDecision: chain(h.OnLeafDecision, other.OnLeafDecision),
		OnComplete:     chain(h.OnComplete, other.OnComplete),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
