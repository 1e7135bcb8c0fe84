package domain

import (
	"time"

	"github.com/aretw0/aime/pkg/tree"
	"gonum.org/v1/gonum/spatial/r2"
)

// TrajectoryNode is one node of an output scenario tree: the segment of the
// future owned by a scenario, for every agent.
type TrajectoryNode struct {
	ScenarioID string      `json:"scenario_id"`
	Prob       float64     `json:"prob"`
	CurT       int         `json:"cur_t"`
	EndT       int         `json:"end_t"`
	TrackIDs   []string    `json:"track_ids"`
	Positions  [][]r2.Vec  `json:"positions"`
	Sigmas     [][]float64 `json:"sigmas"`
	GoalPoints []r2.Vec    `json:"goal_points,omitempty"`
}

// ScenarioTree is a probability-weighted tree of trajectory futures.
type ScenarioTree = tree.Tree[TrajectoryNode]

// Stats summarises a generation.
type Stats struct {
	Rounds       int           `json:"rounds"`
	OracleCalls  int           `json:"oracle_calls"`
	Candidates   int           `json:"candidates"`
	Kept         int           `json:"kept"`
	ProbPruned   int           `json:"prob_pruned"`
	PolicyPruned int           `json:"policy_pruned"`
	Merged       int           `json:"merged"`
	EndLeaves    int           `json:"end_leaves"`
	Terminated   int           `json:"terminated"`
	SearchNodes  int           `json:"search_nodes"`
	Duration     time.Duration `json:"duration"`
}

// Run is a persisted generation result.
type Run struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Trees     []*ScenarioTree `json:"trees"`
	Stats     Stats           `json:"stats"`
}

// RunSummary is the listing view of a Run.
type RunSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Trees     int       `json:"trees"`
}

// Summary returns the listing view of the run.
func (r *Run) Summary() RunSummary {
	return RunSummary{ID: r.ID, CreatedAt: r.CreatedAt, Trees: len(r.Trees)}
}

// SearchTree is the raw tree grown by the generator.
type SearchTree = tree.Tree[*ScenarioNode]

// Result is the complete output of a generation.
type Result struct {
	RunID  string
	Trees  []*ScenarioTree
	Search *SearchTree
	Stats  Stats
}
