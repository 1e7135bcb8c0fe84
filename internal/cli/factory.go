// Package cli wires configuration into generators, oracles and stores for
// the command-line entry points.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/aime"
	"github.com/aretw0/aime/internal/logging"
	"github.com/aretw0/aime/pkg/adapters/file"
	"github.com/aretw0/aime/pkg/adapters/kinematic"
	"github.com/aretw0/aime/pkg/adapters/memory"
	"github.com/aretw0/aime/pkg/adapters/redis"
	"github.com/aretw0/aime/pkg/adapters/remote"
	"github.com/aretw0/aime/pkg/adapters/sqlite"
	"github.com/aretw0/aime/pkg/config"
	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/policy"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/aretw0/aime/pkg/registry"
)

// CreateLogger builds the application logger. JSON logs go to stderr as well,
// so stdout stays free for reports and the MCP transport.
func CreateLogger(cfg config.Log, override string) (*slog.Logger, error) {
	name := cfg.Level
	if override != "" {
		name = override
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "json" {
		return logging.NewJSON(os.Stderr, level), nil
	}
	return logging.New(level), nil
}

// Oracles holds the prediction backends selectable by oracle.kind.
var Oracles = newOracleRegistry()

func newOracleRegistry() *registry.Registry {
	r := registry.NewRegistry()
	r.Register("kinematic", func(params map[string]any) (ports.Oracle, error) {
		return kinematic.FromParams(params)
	})
	r.Register("remote", func(params map[string]any) (ports.Oracle, error) {
		return remote.FromParams(params)
	})
	return r
}

// CreateOracle builds the prediction backend selected by cfg.
func CreateOracle(cfg config.Oracle) (ports.Oracle, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = "kinematic"
	}
	return Oracles.Build(kind, cfg.Params)
}

// CreateStore opens the run store selected by cfg. The returned closer
// releases its connections and is never nil.
func CreateStore(ctx context.Context, cfg config.Store) (ports.TreeStore, io.Closer, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.NewStore(), nopCloser{}, nil
	case "file":
		return file.NewStore(cfg.Path), nopCloser{}, nil
	case "redis":
		s := redis.New(cfg.Addr, os.Getenv("AIME_REDIS_PASSWORD"), 0, redis.WithPrefix(cfg.Prefix), redis.WithTTL(cfg.TTL))
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("redis store unreachable at %s: %w", cfg.Addr, err)
		}
		return s, s, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// GeneratorOptions carries the pieces built outside the factory.
type GeneratorOptions struct {
	Logger *slog.Logger
	Store  ports.TreeStore
	Hooks  domain.Hooks
	Debug  bool
}

// CreateGenerator builds a generator from the configuration file.
func CreateGenerator(f *config.File, opts GeneratorOptions) (*aime.Generator, error) {
	oracle, err := CreateOracle(f.Oracle)
	if err != nil {
		return nil, err
	}
	rules, err := policy.CompileAll(f.Rules)
	if err != nil {
		return nil, err
	}

	genOpts := []aime.Option{
		aime.WithConfig(f.Generator),
		aime.WithOracle(oracle),
		aime.WithPruneRules(rules...),
		aime.WithHooks(opts.Hooks),
	}
	if opts.Logger != nil {
		genOpts = append(genOpts, aime.WithLogger(opts.Logger))
		if opts.Debug {
			genOpts = append(genOpts, aime.WithHooks(createDebugHooks(opts.Logger)))
		}
	}
	if opts.Store != nil {
		genOpts = append(genOpts, aime.WithStore(opts.Store))
	}

	gen, err := aime.New(genOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing generator: %w", err)
	}
	return gen, nil
}

func createDebugHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnRoundStart: func(ctx context.Context, e *domain.RoundEvent) {
			logger.Debug("Round Start", "run_id", e.RunID, "round", e.Round, "leaves", e.Leaves)
		},
		OnOracleCall: func(ctx context.Context, e *domain.OracleEvent) {
			logger.Debug("Oracle Call", "run_id", e.RunID, "batch", e.BatchSize, "latency", e.Latency, "err", e.Err)
		},
		OnLeafDecision: func(ctx context.Context, e *domain.LeafEvent) {
			logger.Debug("Leaf Decision", "scenario_id", e.ScenarioID, "decision", e.Decision, "branch_t", e.BranchT)
		},
	}
}
