package aime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/aime/internal/runtime"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Generator is the high-level entry point of the library.
// It wraps the internal search controller and owns the target lane.
type Generator struct {
	runtime *runtime.Engine
	cfg     domain.Config
	oracle  ports.Oracle
	store   ports.TreeStore
	rules   []domain.PruneRule
	hooks   domain.Hooks
	logger  *slog.Logger

	mu   sync.RWMutex
	lane *domain.TargetLane
}

// Option defines a functional option for configuring the Generator.
type Option func(*Generator)

// WithConfig replaces the default generator parameters.
func WithConfig(cfg domain.Config) Option {
	return func(g *Generator) {
		g.cfg = cfg
	}
}

// WithOracle sets the prediction model. It is required.
func WithOracle(o ports.Oracle) Option {
	return func(g *Generator) {
		g.oracle = o
	}
}

// WithStore persists every successful generation as a Run.
func WithStore(s ports.TreeStore) Option {
	return func(g *Generator) {
		g.store = s
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithHooks registers observability hooks. Repeated calls are chained.
func WithHooks(hooks domain.Hooks) Option {
	return func(g *Generator) {
		g.hooks = g.hooks.Merge(hooks)
	}
}

// WithPruneRules adds policy rules evaluated on every candidate.
func WithPruneRules(rules ...domain.PruneRule) Option {
	return func(g *Generator) {
		g.rules = append(g.rules, rules...)
	}
}

// New initializes a Generator. The configuration is validated here.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{cfg: domain.DefaultConfig()}
	for _, opt := range opts {
		opt(g)
	}

	if g.oracle == nil {
		return nil, fmt.Errorf("an oracle is required (use WithOracle)")
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	rt, err := runtime.NewEngine(g.cfg, g.oracle,
		runtime.WithLogger(g.logger),
		runtime.WithHooks(g.hooks),
		runtime.WithPruneRules(g.rules...),
	)
	if err != nil {
		return nil, err
	}
	g.runtime = rt
	return g, nil
}

// Config returns the generator parameters.
func (g *Generator) Config() domain.Config {
	return g.cfg
}

// SetTargetLane sets the route the ego should follow: polyline points in the
// global frame and, optionally, one attribute row per point. The values are
// copied.
func (g *Generator) SetTargetLane(points []r2.Vec, attributes [][]float64) {
	lane := domain.TargetLane{Points: points, Attributes: attributes}.Clone()
	g.mu.Lock()
	g.lane = &lane
	g.mu.Unlock()
}

// Reset clears the target lane between planning cycles.
func (g *Generator) Reset() {
	g.mu.Lock()
	g.lane = nil
	g.mu.Unlock()
}

// TargetLane returns a copy of the current target lane.
func (g *Generator) TargetLane() (domain.TargetLane, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.lane == nil {
		return domain.TargetLane{}, false
	}
	return g.lane.Clone(), true
}

// Generate grows the scenario tree for one planning cycle and returns one
// probability-weighted trajectory tree per surviving first-level branch.
func (g *Generator) Generate(ctx context.Context, sample domain.LocalSample, obs domain.AgentObservation) ([]*domain.ScenarioTree, error) {
	res, err := g.GenerateDetailed(ctx, sample, obs)
	if err != nil {
		return nil, err
	}
	return res.Trees, nil
}

// GenerateDetailed is Generate that also returns the raw search tree and
// statistics. The run is persisted when a store is configured.
func (g *Generator) GenerateDetailed(ctx context.Context, sample domain.LocalSample, obs domain.AgentObservation) (*domain.Result, error) {
	var lane *domain.TargetLane
	if l, ok := g.TargetLane(); ok {
		lane = &l
	}
	return g.generate(ctx, sample, obs, lane)
}

// GenerateWithLane is GenerateDetailed with an explicit target lane. It does
// not touch the lane set with SetTargetLane, so concurrent callers with
// different routes can share one Generator.
func (g *Generator) GenerateWithLane(ctx context.Context, lane domain.TargetLane, sample domain.LocalSample, obs domain.AgentObservation) (*domain.Result, error) {
	l := lane.Clone()
	return g.generate(ctx, sample, obs, &l)
}

func (g *Generator) generate(ctx context.Context, sample domain.LocalSample, obs domain.AgentObservation, lane *domain.TargetLane) (*domain.Result, error) {
	runID, err := newRunID()
	if err != nil {
		return nil, err
	}

	res, err := g.runtime.Run(ctx, runtime.Input{
		RunID:  runID,
		Sample: sample,
		Obs:    obs,
		Lane:   lane,
	})
	if err != nil {
		return nil, err
	}

	if g.store != nil {
		run := &domain.Run{ID: runID, CreatedAt: time.Now().UTC(), Trees: res.Trees, Stats: res.Stats}
		if err := g.store.Save(ctx, runID, run); err != nil {
			return nil, fmt.Errorf("failed to save run %s: %w", runID, err)
		}
		g.logger.Debug("run saved", "run_id", runID)
	}
	return res, nil
}

func newRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to mint run id: %w", err)
	}
	return id.String(), nil
}
