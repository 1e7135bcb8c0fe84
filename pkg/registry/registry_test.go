package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/aime/pkg/domain"
	"github.com/aretw0/aime/pkg/ports"
	"github.com/aretw0/aime/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry()
	silent := ports.OracleFunc(func(context.Context, []*domain.Observation) ([]domain.Prediction, error) {
		return nil, nil
	})

	var got map[string]any
	r.Register("silent", func(params map[string]any) (ports.Oracle, error) {
		got = params
		return silent, nil
	})
	r.Register("broken", func(map[string]any) (ports.Oracle, error) {
		return nil, errors.New("missing url")
	})

	assert.Equal(t, []string{"broken", "silent"}, r.Kinds())

	o, err := r.Build("silent", map[string]any{"a": 1})
	require.NoError(t, err)
	assert.NotNil(t, o)
	assert.Equal(t, map[string]any{"a": 1}, got)

	_, err = r.Build("broken", nil)
	assert.ErrorContains(t, err, "failed to build broken oracle: missing url")

	_, err = r.Build("ghost", nil)
	assert.ErrorContains(t, err, `unknown oracle "ghost"`)
}
