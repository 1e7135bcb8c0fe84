package domain

import (
	"fmt"
	"math"
)

// Config holds the generator parameters. Steps are counted at the oracle rate.
type Config struct {
	// ObsLen is the number of observed history steps per agent.
	ObsLen int `json:"obs_len" yaml:"obs_len" mapstructure:"obs_len"`
	// PredLen is the prediction horizon in steps.
	PredLen int `json:"pred_len" yaml:"pred_len" mapstructure:"pred_len"`
	// StepSeconds is the duration of one step.
	StepSeconds float64 `json:"step_seconds" yaml:"step_seconds" mapstructure:"step_seconds"`
	// MaxDepth bounds the depth of the search tree.
	MaxDepth int `json:"max_depth" yaml:"max_depth" mapstructure:"max_depth"`
	// EgoIndex is the position of the ego agent in every observation.
	EgoIndex int `json:"ego_index" yaml:"ego_index" mapstructure:"ego_index"`

	// CovChangeRate is the sigma growth ratio that triggers a branch.
	CovChangeRate float64 `json:"cov_change_rate" yaml:"cov_change_rate" mapstructure:"cov_change_rate"`
	// ProbThreshold prunes candidates with a lower joint probability.
	ProbThreshold float64 `json:"prob_threshold" yaml:"prob_threshold" mapstructure:"prob_threshold"`
	// TopologyThreshold is the signature difference (radians) that keeps two candidates apart.
	TopologyThreshold float64 `json:"topology_threshold" yaml:"topology_threshold" mapstructure:"topology_threshold"`

	// PolicyPrune enables pruning of candidates whose ego leaves the target lane.
	PolicyPrune bool `json:"policy_prune" yaml:"policy_prune" mapstructure:"policy_prune"`
	// LaneDeviation is the tolerated ego distance (meters) to the target lane.
	LaneDeviation float64 `json:"lane_deviation" yaml:"lane_deviation" mapstructure:"lane_deviation"`

	// LookaheadSeconds is the time ahead used to place the command window.
	LookaheadSeconds float64 `json:"lookahead_seconds" yaml:"lookahead_seconds" mapstructure:"lookahead_seconds"`
	// MinSpeed floors the ego speed when placing the command window.
	MinSpeed float64 `json:"min_speed" yaml:"min_speed" mapstructure:"min_speed"`

	// HeadingFallback is the scene heading used when the ego has no valid sample.
	HeadingFallback float64 `json:"heading_fallback" yaml:"heading_fallback" mapstructure:"heading_fallback"`
	// EncodingRadius masks relative encodings of anchors farther apart.
	EncodingRadius float64 `json:"encoding_radius" yaml:"encoding_radius" mapstructure:"encoding_radius"`
	// InitialSigma seeds the sigma history of observed steps.
	InitialSigma float64 `json:"initial_sigma" yaml:"initial_sigma" mapstructure:"initial_sigma"`
}

// DefaultConfig returns the parameters of the reference planner.
func DefaultConfig() Config {
	return Config{
		ObsLen:            50,
		PredLen:           60,
		StepSeconds:       0.1,
		MaxDepth:          5,
		EgoIndex:          0,
		CovChangeRate:     9,
		ProbThreshold:     0.001,
		TopologyThreshold: math.Pi / 6,
		PolicyPrune:       true,
		LaneDeviation:     10,
		LookaheadSeconds:  5,
		MinSpeed:          0.5,
		HeadingFallback:   0,
		EncodingRadius:    100,
		InitialSigma:      1e-5,
	}
}

// SeqLen is the maximum history length of a scenario.
func (c Config) SeqLen() int {
	return c.ObsLen + c.PredLen
}

// Validate checks every field and returns a *ConfigError listing all failures.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, key, reason string) {
		if !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: reason})
		}
	}

	check(c.ObsLen >= 2, "obs_len", "must be at least 2")
	check(c.PredLen >= 2, "pred_len", "must be at least 2")
	check(c.StepSeconds > 0, "step_seconds", "must be positive")
	check(c.MaxDepth >= 1, "max_depth", "must be at least 1")
	check(c.EgoIndex >= 0, "ego_index", "must not be negative")
	check(c.CovChangeRate > 0, "cov_change_rate", "must be positive")
	check(c.ProbThreshold >= 0 && c.ProbThreshold < 1, "prob_threshold", "must be in [0, 1)")
	check(c.TopologyThreshold >= 0 && c.TopologyThreshold <= math.Pi, "topology_threshold", "must be in [0, pi]")
	check(c.LaneDeviation >= 0, "lane_deviation", "must not be negative")
	check(c.LookaheadSeconds > 0, "lookahead_seconds", "must be positive")
	check(c.MinSpeed >= 0, "min_speed", "must not be negative")
	check(!math.IsNaN(c.HeadingFallback) && !math.IsInf(c.HeadingFallback, 0), "heading_fallback", "must be finite")
	check(c.EncodingRadius > 0, "encoding_radius", "must be positive")
	check(c.InitialSigma > 0, "initial_sigma", fmt.Sprintf("must be positive, got %g", c.InitialSigma))

	if len(errs) > 0 {
		return &ConfigError{Errors: errs}
	}
	return nil
}
