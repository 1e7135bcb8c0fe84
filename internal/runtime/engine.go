// Package runtime implements the scenario-tree search controller.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/aime/pkg/command"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/aretw0/aime/pkg/tree"
)

// Engine grows scenario trees by alternating batched oracle calls,
// prune & merge and branch decisions.
type Engine struct {
	cfg      domain.Config
	oracle   ports.Oracle
	resolver *command.Resolver
	rules    []domain.PruneRule
	hooks    domain.Hooks
	logger   *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = h
	}
}

// WithPruneRules adds policy rules evaluated on every candidate.
func WithPruneRules(rules ...domain.PruneRule) Option {
	return func(e *Engine) {
		e.rules = append(e.rules, rules...)
	}
}

// NewEngine creates an engine. The config must be valid.
func NewEngine(cfg domain.Config, oracle ports.Oracle, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if oracle == nil {
		return nil, fmt.Errorf("engine requires an oracle")
	}
	e := &Engine{
		cfg:      cfg,
		oracle:   oracle,
		resolver: command.NewResolver(cfg),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Input is everything a generation needs. Lane is an immutable snapshot.
type Input struct {
	RunID  string
	Sample domain.LocalSample
	Obs    domain.AgentObservation
	Lane   *domain.TargetLane
}

// search is the state of one generation. It is never shared.
type search struct {
	runID string
	tree  *domain.SearchTree
	lane  domain.TargetLane
	lanes []domain.Lane
	round int
	stats domain.Stats
}

// Run executes a full generation.
func (e *Engine) Run(ctx context.Context, in Input) (*domain.Result, error) {
	start := time.Now()
	logger := e.logger.With("run_id", in.RunID)

	s, err := e.init(in)
	if err == nil {
		err = e.loop(ctx, s, logger)
	}

	var res *domain.Result
	if err == nil {
		trees, xerr := Extract(s.tree, e.cfg.ObsLen)
		switch {
		case xerr != nil:
			err = xerr
		case len(trees) == 0:
			err = domain.ErrNoValidScenario
		default:
			res = &domain.Result{RunID: in.RunID, Trees: trees, Search: s.tree}
		}
	}

	var stats domain.Stats
	if s != nil {
		s.stats.SearchNodes = s.tree.Len()
		s.stats.Duration = time.Since(start)
		stats = s.stats
	}
	if res != nil {
		res.Stats = stats
	}

	e.emitComplete(ctx, in.RunID, stats, err)
	if err != nil {
		logger.Warn("generation failed", "rounds", stats.Rounds, "err", err)
		return nil, err
	}
	logger.Info("generation finished",
		"trees", len(res.Trees),
		"rounds", stats.Rounds,
		"end_leaves", stats.EndLeaves,
		"nodes", stats.SearchNodes,
		"duration", stats.Duration)
	return res, nil
}

func (e *Engine) init(in Input) (*search, error) {
	if in.Lane == nil {
		return nil, domain.ErrTargetLaneMissing
	}
	if err := in.Obs.Validate(e.cfg.ObsLen); err != nil {
		return nil, err
	}
	if e.cfg.EgoIndex >= len(in.Obs.Agents) {
		return nil, fmt.Errorf("%w: ego index %d out of %d agents", domain.ErrMalformedObservation, e.cfg.EgoIndex, len(in.Obs.Agents))
	}

	s := &search{
		runID: in.RunID,
		tree:  tree.New[*domain.ScenarioNode](),
		lane:  *in.Lane,
		lanes: in.Sample.Lanes,
	}

	obs, err := e.observe(in.Obs, s.lanes, in.Sample.EgoSpeed, s.lane)
	if err != nil {
		return nil, fmt.Errorf("failed to observe scene: %w", err)
	}

	root := e.rootScenario(in.Obs, obs)
	node := domain.NewPendingNode(domain.Pending{Observation: obs, Snapshot: root})
	node.Branch = true
	if _, err := s.tree.Add(domain.RootScenarioID, "", node); err != nil {
		return nil, err
	}
	return s, nil
}

func (e *Engine) loop(ctx context.Context, s *search, logger *slog.Logger) error {
	for s.round = 1; s.round <= e.cfg.MaxDepth; s.round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ready := branchSet(s.tree)
		if len(ready) == 0 {
			break
		}
		s.stats.Rounds++
		logger.Debug("round started", "round", s.round, "leaves", len(ready))
		e.emitRoundStart(ctx, s, len(ready))

		batch := make([]*domain.Observation, len(ready))
		horizons := make([]int, len(ready))
		for i, n := range ready {
			p, _ := n.Data.Pending()
			batch[i] = p.Observation
			horizons[i] = e.cfg.PredLen - p.Snapshot.EndT
		}

		preds, err := e.predictBatch(ctx, s, batch, horizons)
		if err != nil {
			return err
		}

		for i, parent := range ready {
			children, err := e.expand(ctx, s, i, parent, preds[i])
			if err != nil {
				return err
			}
			for _, c := range children {
				if _, err := s.tree.Add(c.ID, parent.Key, domain.NewPredictedNode(c)); err != nil {
					return fmt.Errorf("failed to insert scenario: %w", err)
				}
			}
			if len(children) > 0 {
				parent.Data.Branch = false
			}
			logger.Debug("parent expanded", "round", s.round, "parent", parent.Key, "children", len(children))
		}

		if err := e.decide(ctx, s, logger); err != nil {
			return err
		}
	}

	for _, l := range s.tree.Leaves() {
		if l.Data.End {
			s.stats.EndLeaves++
		}
		if l.Data.Branch {
			// Still pending when the round budget ran out.
			l.Data.Branch = false
			l.Data.Terminate = true
		}
		if l.Data.Terminate {
			s.stats.Terminated++
		}
	}
	return nil
}

// branchSet returns the leaves ready for expansion, in insertion order.
func branchSet(t *domain.SearchTree) []*tree.Node[*domain.ScenarioNode] {
	var out []*tree.Node[*domain.ScenarioNode]
	for _, l := range t.Leaves() {
		if l.Data.Branch && l.Data.Kind() == domain.PayloadPending {
			out = append(out, l)
		}
	}
	return out
}

func (e *Engine) emitRoundStart(ctx context.Context, s *search, leaves int) {
	if e.hooks.OnRoundStart == nil {
		return
	}
	e.hooks.OnRoundStart(ctx, &domain.RoundEvent{
		EventBase: e.base(domain.EventRoundStart, s.runID),
		Round:     s.round,
		Leaves:    leaves,
	})
}

func (e *Engine) emitComplete(ctx context.Context, runID string, stats domain.Stats, err error) {
	if e.hooks.OnComplete == nil {
		return
	}
	e.hooks.OnComplete(ctx, &domain.CompleteEvent{
		EventBase: e.base(domain.EventComplete, runID),
		Stats:     stats,
		Err:       err,
	})
}

func (e *Engine) base(t domain.EventType, runID string) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RunID: runID}
}
