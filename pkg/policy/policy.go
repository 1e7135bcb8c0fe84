// Package policy compiles boolean prune rules written in the expr language.
//
// Rules see the candidate through these variables: prob, mode_prob, depth,
// ego_lane_distance, ego_sigma and ego_speed. A rule that evaluates to true
// prunes the candidate, e.g.
//
//	ego_speed > 35 || (depth > 2 && mode_prob < 0.05)
package policy

import (
	"fmt"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule is a compiled prune expression.
type Rule struct {
	source  string
	program *vm.Program
}

// Compile parses and type-checks a rule.
func Compile(source string) (*Rule, error) {
	program, err := expr.Compile(source, expr.Env(domain.CandidateFacts{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile rule %q: %w", source, err)
	}
	return &Rule{source: source, program: program}, nil
}

// CompileAll compiles every rule, failing on the first invalid one.
func CompileAll(sources []string) ([]domain.PruneRule, error) {
	rules := make([]domain.PruneRule, 0, len(sources))
	for _, src := range sources {
		r, err := Compile(src)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Name returns the rule source.
func (r *Rule) Name() string {
	return r.source
}

// Prune evaluates the rule against a candidate.
func (r *Rule) Prune(facts domain.CandidateFacts) (bool, error) {
	out, err := expr.Run(r.program, facts)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule %q returned %T, want bool", r.source, out)
	}
	return b, nil
}
