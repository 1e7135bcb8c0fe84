package domain

// PayloadKind tells which shape a ScenarioNode currently holds.
type PayloadKind int

const (
	// PayloadPending nodes carry an observation window waiting for the oracle.
	PayloadPending PayloadKind = iota
	// PayloadPredicted nodes carry a scenario produced by prune & merge.
	PayloadPredicted
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadPending:
		return "pending"
	case PayloadPredicted:
		return "predicted"
	}
	return "unknown"
}

// Pending is an observation window plus the scenario snapshot it continues.
// The snapshot is owned by the node and already truncated to the branch point.
type Pending struct {
	Observation *Observation
	Snapshot    *Scenario
}

// ScenarioNode is the payload of a search-tree node. It holds exactly one of
// Pending or Predicted data, plus the leaf flags driving the generator.
type ScenarioNode struct {
	pending   *Pending
	predicted *Scenario

	// Branch marks a leaf ready to be expanded in the next round.
	Branch bool
	// End marks a scenario that reached the prediction horizon.
	End bool
	// Terminate marks a scenario whose expansion stopped without reaching the horizon.
	Terminate bool
}

// NewPendingNode creates a node holding an observation window.
func NewPendingNode(p Pending) *ScenarioNode {
	return &ScenarioNode{pending: &p}
}

// NewPredictedNode creates a node holding a freshly predicted scenario.
func NewPredictedNode(s *Scenario) *ScenarioNode {
	return &ScenarioNode{predicted: s}
}

// Kind reports the active payload shape.
func (n *ScenarioNode) Kind() PayloadKind {
	if n.pending != nil {
		return PayloadPending
	}
	return PayloadPredicted
}

// Pending returns the pending payload, if active.
func (n *ScenarioNode) Pending() (*Pending, bool) {
	return n.pending, n.pending != nil
}

// Predicted returns the predicted scenario, if active.
func (n *ScenarioNode) Predicted() (*Scenario, bool) {
	return n.predicted, n.predicted != nil
}

// Scenario returns the scenario backing the node in either shape.
func (n *ScenarioNode) Scenario() *Scenario {
	if n.pending != nil {
		return n.pending.Snapshot
	}
	return n.predicted
}

// Observe replaces the payload with a pending observation window.
func (n *ScenarioNode) Observe(p Pending) {
	n.pending = &p
	n.predicted = nil
}

// Status returns a short label of the leaf state, used in logs.
func (n *ScenarioNode) Status() string {
	switch {
	case n.End:
		return "end"
	case n.Terminate:
		return "terminate"
	case n.Branch:
		return "branch"
	}
	return "open"
}
