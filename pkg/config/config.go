// Package config loads the aime configuration from YAML files and AIME_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/spf13/viper"
)

const (
	configFileName = "aime"
	configFileType = "yaml"
	envPrefix      = "AIME"
)

// File is the full configuration of the CLI and the server.
type File struct {
	Generator domain.Config `mapstructure:"generator" yaml:"generator"`
	Oracle    Oracle        `mapstructure:"oracle" yaml:"oracle"`
	Store     Store         `mapstructure:"store" yaml:"store"`
	Server    Server        `mapstructure:"server" yaml:"server"`
	Log       Log           `mapstructure:"log" yaml:"log"`
	// Rules are policy expressions; a candidate matching any of them is pruned.
	Rules []string `mapstructure:"rules" yaml:"rules"`
}

// Oracle selects the prediction backend.
type Oracle struct {
	// Kind is "kinematic" or "remote".
	Kind   string         `mapstructure:"kind" yaml:"kind"`
	Params map[string]any `mapstructure:"params" yaml:"params"`
}

// Store selects where generated runs are persisted.
type Store struct {
	// Backend is "memory", "file", "redis" or "sqlite".
	Backend string        `mapstructure:"backend" yaml:"backend"`
	Path    string        `mapstructure:"path" yaml:"path"`
	Addr    string        `mapstructure:"addr" yaml:"addr"`
	Prefix  string        `mapstructure:"prefix" yaml:"prefix"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Log configures the application logger.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration used when no file is found.
func Default() File {
	return File{
		Generator: domain.DefaultConfig(),
		Oracle:    Oracle{Kind: "kinematic"},
		Store:     Store{Backend: "memory", Path: ".aime/runs", Prefix: "aime:run:"},
		Server:    Server{Addr: ":8080", ShutdownTimeout: 5 * time.Second},
		Log:       Log{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	g := d.Generator
	for key, val := range map[string]any{
		"generator.obs_len":            g.ObsLen,
		"generator.pred_len":           g.PredLen,
		"generator.step_seconds":       g.StepSeconds,
		"generator.max_depth":          g.MaxDepth,
		"generator.ego_index":          g.EgoIndex,
		"generator.cov_change_rate":    g.CovChangeRate,
		"generator.prob_threshold":     g.ProbThreshold,
		"generator.topology_threshold": g.TopologyThreshold,
		"generator.policy_prune":       g.PolicyPrune,
		"generator.lane_deviation":     g.LaneDeviation,
		"generator.lookahead_seconds":  g.LookaheadSeconds,
		"generator.min_speed":          g.MinSpeed,
		"generator.heading_fallback":   g.HeadingFallback,
		"generator.encoding_radius":    g.EncodingRadius,
		"generator.initial_sigma":      g.InitialSigma,
		"oracle.kind":                  d.Oracle.Kind,
		"store.backend":                d.Store.Backend,
		"store.path":                   d.Store.Path,
		"store.addr":                   d.Store.Addr,
		"store.prefix":                 d.Store.Prefix,
		"store.ttl":                    d.Store.TTL,
		"server.addr":                  d.Server.Addr,
		"server.shutdown_timeout":      d.Server.ShutdownTimeout,
		"log.level":                    d.Log.Level,
		"log.format":                   d.Log.Format,
	} {
		v.SetDefault(key, val)
	}
}

// Load reads the configuration. An explicit path must exist; without one,
// aime.yaml is searched in the working directory and a missing file is not
// an error. Environment variables such as AIME_GENERATOR_MAX_DEPTH override
// file values.
func Load(path string) (*File, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the generator parameters and the backend selections.
func (f *File) Validate() error {
	var errs []error
	if err := f.Generator.Validate(); err != nil {
		var cerr *domain.ConfigError
		if errors.As(err, &cerr) {
			errs = append(errs, cerr.Errors...)
		} else {
			errs = append(errs, err)
		}
	}
	switch f.Oracle.Kind {
	case "kinematic", "remote":
	default:
		errs = append(errs, &domain.ValidationError{Key: "oracle.kind", Reason: fmt.Sprintf("unknown oracle %q", f.Oracle.Kind)})
	}
	switch f.Store.Backend {
	case "memory", "file", "redis", "sqlite":
	default:
		errs = append(errs, &domain.ValidationError{Key: "store.backend", Reason: fmt.Sprintf("unknown backend %q", f.Store.Backend)})
	}
	switch f.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, &domain.ValidationError{Key: "log.format", Reason: fmt.Sprintf("unknown format %q", f.Log.Format)})
	}
	if len(errs) > 0 {
		return &domain.ConfigError{Errors: errs}
	}
	return nil
}
