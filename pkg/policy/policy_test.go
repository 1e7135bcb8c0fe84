package policy_test

import (
	"testing"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRule_Prune(t *testing.T) {
	tests := []struct {
		name  string
		rule  string
		facts domain.CandidateFacts
		want  bool
	}{
		{"Speed Limit", "ego_speed > 35", domain.CandidateFacts{EgoSpeed: 40}, true},
		{"Speed Ok", "ego_speed > 35", domain.CandidateFacts{EgoSpeed: 20}, false},
		{"Deep Unlikely", "depth > 2 && mode_prob < 0.05", domain.CandidateFacts{Depth: 3, ModeProb: 0.01}, true},
		{"Shallow Unlikely", "depth > 2 && mode_prob < 0.05", domain.CandidateFacts{Depth: 1, ModeProb: 0.01}, false},
		{"Lane Margin", "ego_lane_distance - ego_sigma > 2", domain.CandidateFacts{EgoLaneDistance: 5, EgoSigma: 1}, true},
		{"Joint Prob", "prob < 0.01", domain.CandidateFacts{Prob: 0.005}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := policy.Compile(tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.rule, r.Name())

			got, err := r.Prune(tt.facts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	_, err := policy.Compile("ego_speed +")
	assert.Error(t, err)

	_, err = policy.Compile("ego_speed * 2")
	assert.Error(t, err, "non-boolean rules are rejected")

	_, err = policy.Compile("unknown_var > 1")
	assert.Error(t, err)

	_, err = policy.CompileAll([]string{"depth > 1", "???"})
	assert.Error(t, err)

	rules, err := policy.CompileAll([]string{"depth > 1", "prob < 0.1"})
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}
